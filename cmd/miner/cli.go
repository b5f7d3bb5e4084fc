package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rawblock/id-miner/internal/miner"
	"github.com/rawblock/id-miner/internal/txtemplate"
	"github.com/rawblock/id-miner/internal/vanity"
	"github.com/rawblock/id-miner/pkg/target"
)

// handleCLICommands dispatches os.Args[1] to one of the mining
// subcommands or "serve", the same "first arg picks a subcommand, no
// subcommand means run the daemon" switch as the reference CLI this is
// grounded on. An unrecognized or missing subcommand falls through to
// main's own default (run the daemon), matching that switch's
// behavior exactly.
func handleCLICommands() {
	if len(os.Args) < 2 {
		return
	}

	switch os.Args[1] {
	case "package":
		os.Exit(runPackageCommand())
	case "gas":
		os.Exit(runGasCommand())
	case "move":
		os.Exit(runMoveCommand())
	case "address":
		os.Exit(runVanityAddressCommand())
	case "serve":
		return // serve is main's default path; fall through to it
	case "help":
		printUsage()
		os.Exit(0)
	default:
		return
	}
}

func printUsage() {
	fmt.Println("id-miner - vanity object-id mining engine")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  miner package --prefix=<hex> [--threads=N]     Mine a package-publish object id")
	fmt.Println("  miner gas --prefix=<hex> --count=K [--threads=N]   Mine a gas-coin split (K new coins)")
	fmt.Println("  miner move --prefix=<hex> --index=I [--threads=N]  Mine an object at a known index")
	fmt.Println("  miner address --prefix=<base58> [--threads=N]     Mine a vanity P2PKH address")
	fmt.Println("  miner serve [--port=8080]                       Run the control-channel server")
	fmt.Println("  miner help                                      Show this help")
	fmt.Println()
	fmt.Println("Ctrl+C cancels an in-progress search cleanly (exit code 0, no match reported).")
}

// runPackageCommand mines a Package-mode search over a synthetic
// package-publish template, exercising internal/txtemplate the same
// way start_package_mining does over the control channel.
func runPackageCommand() int {
	fs := flag.NewFlagSet("package", flag.ExitOnError)
	prefix := fs.String("prefix", "", "hex prefix to match against the derived object id")
	threads := fs.Int("threads", 0, "worker thread count (0 = auto-detect)")
	fs.Parse(os.Args[2:])

	if *prefix == "" {
		fmt.Fprintln(os.Stderr, "miner package: --prefix is required")
		return 1
	}

	tmplBytes, nonceOffset, err := txtemplate.Build(txtemplate.Package, txtemplate.Fields{
		Payload: []byte("cli-package-publish-placeholder"),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "miner package: building template: %v\n", err)
		return 1
	}

	return runSearch("package", miner.Mode{Kind: miner.Package}, tmplBytes, nonceOffset, *prefix, *threads)
}

// runGasCommand mines a Multi{K} search over a synthetic gas-coin-split
// template, matching start_gas_coin_mining's split_amounts semantics:
// K is the number of new coins the split produces, and any of the K
// resulting indices is an acceptable win.
func runGasCommand() int {
	fs := flag.NewFlagSet("gas", flag.ExitOnError)
	prefix := fs.String("prefix", "", "hex prefix to match against the derived object id")
	count := fs.Uint("count", 0, "number of coins the split produces (K)")
	threads := fs.Int("threads", 0, "worker thread count (0 = auto-detect)")
	fs.Parse(os.Args[2:])

	if *prefix == "" {
		fmt.Fprintln(os.Stderr, "miner gas: --prefix is required")
		return 1
	}
	if *count == 0 || *count > 0xFFFF {
		fmt.Fprintln(os.Stderr, "miner gas: --count must be between 1 and 65535")
		return 1
	}

	mode, err := miner.NewMulti(uint16(*count))
	if err != nil {
		fmt.Fprintf(os.Stderr, "miner gas: %v\n", err)
		return 1
	}

	tmplBytes, nonceOffset, err := txtemplate.Build(txtemplate.Split, txtemplate.Fields{
		Payload: splitPayload(uint16(*count)),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "miner gas: building template: %v\n", err)
		return 1
	}

	return runSearch("gas", mode, tmplBytes, nonceOffset, *prefix, *threads)
}

// runMoveCommand mines a SingleIndex{I} search over a generic template,
// matching start_object_mining on the control channel: "place a desired
// object at a known index" (the generic Move-call case).
func runMoveCommand() int {
	fs := flag.NewFlagSet("move", flag.ExitOnError)
	prefix := fs.String("prefix", "", "hex prefix to match against the derived object id")
	index := fs.Uint("index", 0, "object index to probe")
	threads := fs.Int("threads", 0, "worker thread count (0 = auto-detect)")
	fs.Parse(os.Args[2:])

	if *prefix == "" {
		fmt.Fprintln(os.Stderr, "miner move: --prefix is required")
		return 1
	}
	if *index > 0xFFFF {
		fmt.Fprintln(os.Stderr, "miner move: --index must fit in 16 bits")
		return 1
	}

	tmplBytes, nonceOffset, err := txtemplate.Build(txtemplate.Generic, txtemplate.Fields{
		Payload: []byte("cli-move-call-placeholder"),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "miner move: building template: %v\n", err)
		return 1
	}

	return runSearch("move", miner.NewSingleIndex(uint16(*index)), tmplBytes, nonceOffset, *prefix, *threads)
}

// runSearch is the shared body of every mining subcommand: parse the
// target, build a Coordinator around the reference hasher, wire a
// Sampler for periodic console progress, install a SIGINT handler that
// flips cancel, and print the result. Exit code 0 covers both a match
// and a clean user cancel; a configuration error or a worker panic
// returns non-zero.
func runSearch(label string, mode miner.Mode, tmplBytes []byte, nonceOffset int, prefixHex string, threads int) int {
	tgt, err := target.Parse(prefixHex)
	if err != nil {
		fmt.Fprintf(os.Stderr, "miner %s: %v\n", label, err)
		return 1
	}

	hasher := miner.NewBlakeHasher(nil)
	coordinator := miner.NewCoordinator(hasher)
	coordinator.Parser = txtemplate.NewParser()

	cfg := miner.MinerConfig{
		TemplateBytes: tmplBytes,
		NonceOffset:   nonceOffset,
		Threads:       threadsOrAuto(threads),
	}

	var attempts atomic.Uint64
	var cancel atomic.Bool

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		cancel.Store(true)
	}()

	sink := &consoleSink{label: label}
	sampler := miner.NewSampler(sink)
	sampleCtx, cancelSampler := context.WithCancel(context.Background())
	defer cancelSampler()
	go sampler.Run(sampleCtx, &attempts)

	log.Printf("[miner %s] searching for prefix %q with %d threads", label, prefixHex, cfg.Threads)
	start := time.Now()
	result, err := coordinator.Mine(mode, cfg, tgt, &attempts, &cancel)
	cancelSampler()
	sampler.Report(result, attempts.Load())

	if err != nil {
		fmt.Fprintf(os.Stderr, "miner %s: %v\n", label, err)
		return 1
	}
	if result == nil {
		fmt.Printf("miner %s: cancelled after %d attempts in %s, no match found\n", label, attempts.Load(), time.Since(start))
		return 0
	}

	fmt.Printf("miner %s: found object id 0x%x at index %d (nonce=%d, %d attempts, %s)\n",
		label, result.ObjectID, result.ObjectIndex, result.NonceUsed, attempts.Load(), time.Since(start))
	fmt.Printf("  tx digest: 0x%x\n", result.TxDigest)
	return 0
}

func threadsOrAuto(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// splitPayload encodes the little-endian uint16 K so the gas-coin
// split template's content actually reflects the requested coin count,
// rather than mining over a fixed placeholder regardless of --count.
func splitPayload(k uint16) []byte {
	return []byte{byte(k), byte(k >> 8)}
}

// consoleSink prints progress lines to stdout, the CLI's equivalent of
// Session.sessionSink's progress websocket frames.
type consoleSink struct {
	label string
}

func (s *consoleSink) OnSample(sample miner.ProgressSample) {
	log.Printf("[miner %s] %d attempts (%.0f h/s)", s.label, sample.AttemptsTotal, sample.HashesPerSecond)
}

func (s *consoleSink) OnTerminal(miner.TerminalEvent) {
	// runSearch prints the terminal outcome itself once Mine returns;
	// this sink only drives the periodic console progress line.
}

// runVanityAddressCommand backs "miner address", the CLI's direct
// entrypoint into internal/vanity. spec §6 lists start_address_mining
// as a control-channel message; this subcommand exercises the same
// package without going through internal/api.
func runVanityAddressCommand() int {
	fs := flag.NewFlagSet("address", flag.ExitOnError)
	prefix := fs.String("prefix", "", "base58 address prefix, e.g. \"1Love\"")
	threads := fs.Int("threads", 0, "worker thread count (0 = auto-detect)")
	fs.Parse(os.Args[2:])

	var attempts atomic.Uint64
	var cancel atomic.Bool

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		cancel.Store(true)
	}()

	result, err := vanity.Mine(vanity.Config{Prefix: *prefix, Threads: *threads}, &attempts, &cancel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "miner address: %v\n", err)
		return 1
	}
	if result == nil {
		fmt.Printf("miner address: cancelled after %d attempts, no match found\n", attempts.Load())
		return 0
	}
	fmt.Printf("miner address: found %s\n", result.Address)
	fmt.Printf("  private key: %s\n", result.PrivateKeyHex)
	return 0
}
