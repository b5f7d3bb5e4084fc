// Package vanity generates secp256k1 keypairs for address-vanity
// mining: searching for a private key whose derived address carries a
// caller-chosen prefix. Spec §1 names "key generation for
// address-vanity variants" an out-of-scope *engine* concern, so this
// package never touches internal/miner; it is wired from the
// control-channel's start_address_mining message and the CLI's
// address subcommand.
package vanity

import (
	"encoding/hex"
	"errors"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/base58"
)

// mainnetP2PKHVersion is the version byte prefixed to a Hash160 before
// base58check-encoding a legacy P2PKH address (addresses starting '1').
const mainnetP2PKHVersion = 0x00

// Config is the caller-supplied search configuration.
type Config struct {
	// Prefix is matched case-sensitively against the base58check-encoded
	// address, the way every public vanity-address generator works —
	// base58 itself is case-sensitive, so there is no odd-nibble
	// equivalent here.
	Prefix  string
	Threads int
}

// Result is a matching keypair and the address it derives to.
type Result struct {
	PrivateKeyHex string
	Address       string
}

// Mine searches for a private key whose derived P2PKH address starts
// with cfg.Prefix. attemptsOut and cancel are externally owned, the
// same ownership contract as internal/miner.Coordinator.Mine.
func Mine(cfg Config, attemptsOut *atomic.Uint64, cancel *atomic.Bool) (*Result, error) {
	if cfg.Prefix == "" {
		return nil, errors.New("vanity: empty prefix matches every address; refusing to mine")
	}
	if cfg.Prefix[0] != '1' {
		return nil, errors.New("vanity: mainnet P2PKH addresses always start with '1'")
	}

	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	var found atomic.Bool
	var mu sync.Mutex
	var result *Result
	var wg sync.WaitGroup

	wg.Add(threads)
	for w := 0; w < threads; w++ {
		go func() {
			defer wg.Done()
			for {
				if cancel.Load() || found.Load() {
					return
				}

				priv, err := btcec.NewPrivateKey()
				if err != nil {
					continue
				}
				pubKeyBytes := priv.PubKey().SerializeCompressed()
				hash160 := btcutil.Hash160(pubKeyBytes)
				address := base58.CheckEncode(hash160, mainnetP2PKHVersion)
				attemptsOut.Add(1)

				if !strings.HasPrefix(address, cfg.Prefix) {
					continue
				}
				if !found.CompareAndSwap(false, true) {
					return
				}

				mu.Lock()
				result = &Result{
					PrivateKeyHex: hex.EncodeToString(priv.Serialize()),
					Address:       address,
				}
				mu.Unlock()
				return
			}
		}()
	}
	wg.Wait()

	return result, nil
}
