package api

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rawblock/id-miner/internal/miner"
	"github.com/rawblock/id-miner/internal/store"
	"github.com/rawblock/id-miner/internal/txtemplate"
	"github.com/rawblock/id-miner/internal/vanity"
	"github.com/rawblock/id-miner/pkg/target"
)

const protocolVersion = "1.0"

// Session owns one websocket connection's lifecycle. It decodes client
// commands, drives internal/miner or internal/vanity on a background
// goroutine, and streams progress/result events back over the same
// connection. One Session per connection, mirroring the teacher's
// per-connection bookkeeping in Hub.Subscribe but replacing the
// broadcast-only Hub with a bidirectional command/response loop.
type Session struct {
	ID     string
	conn   *websocket.Conn
	store  *store.SessionStore
	hasher miner.Hasher

	cancel   atomic.Bool
	attempts atomic.Uint64
	running  atomic.Bool
}

// NewSession builds a Session around an already-upgraded connection.
// store may be nil, in which case session history is never persisted.
func NewSession(conn *websocket.Conn, hasher miner.Hasher, st *store.SessionStore) *Session {
	return &Session{
		ID:     uuid.NewString(),
		conn:   conn,
		store:  st,
		hasher: hasher,
	}
}

// Run is the per-connection read loop, one goroutine per Session,
// mirroring the teacher's go poller.Run(ctx) / go wsHub.Run() pattern
// in cmd/engine/main.go. It blocks until the connection closes.
func (s *Session) Run(ctx context.Context) {
	defer s.conn.Close()
	s.send(ServerMessage{Type: TypeConnected, Version: protocolVersion})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[Session %s] read error: %v", s.ID, err)
			}
			s.cancel.Store(true)
			return
		}

		msg, err := decodeClientMessage(raw)
		if err != nil {
			s.send(ServerMessage{Type: TypeError, Message: fmt.Sprintf("malformed message: %v", err)})
			continue
		}
		s.dispatch(ctx, msg)
	}
}

func (s *Session) dispatch(ctx context.Context, msg ClientMessage) {
	switch msg.Type {
	case TypeStartPackageMining:
		s.startEngineMining(ctx, msg, miner.Mode{Kind: miner.Package})
	case TypeStartGasCoinMining:
		mode, err := miner.NewMulti(uint16(len(msg.SplitAmounts)))
		if err != nil {
			s.send(ServerMessage{Type: TypeError, Message: err.Error()})
			return
		}
		s.startEngineMining(ctx, msg, mode)
	case TypeStartObjectMining:
		s.startEngineMining(ctx, msg, miner.NewSingleIndex(msg.ObjectIndex))
	case TypeStartAddressMining:
		s.startAddressMining(ctx, msg)
	case TypeStopMining:
		s.cancel.Store(true)
	default:
		s.send(ServerMessage{Type: TypeError, Message: fmt.Sprintf("unknown message type %q", msg.Type)})
	}
}

// startEngineMining builds a synthetic template from the message's
// fields (see internal/txtemplate — this is not a chain codec), then
// drives internal/miner.Coordinator on a background goroutine.
func (s *Session) startEngineMining(ctx context.Context, msg ClientMessage, mode miner.Mode) {
	if s.running.Load() {
		s.send(ServerMessage{Type: TypeError, Message: "a mining session is already running"})
		return
	}

	tgt, err := target.Parse(msg.Prefix)
	if err != nil {
		s.send(ServerMessage{Type: TypeError, Message: err.Error()})
		return
	}

	payload, err := buildPayload(msg)
	if err != nil {
		s.send(ServerMessage{Type: TypeError, Message: err.Error()})
		return
	}

	kind := txtemplate.Generic
	switch mode.Kind {
	case miner.Package:
		kind = txtemplate.Package
	case miner.Multi:
		kind = txtemplate.Split
	}

	tmplBytes, nonceOffset, err := txtemplate.Build(kind, txtemplate.Fields{
		Sender:  []byte(msg.Sender),
		Payload: payload,
	})
	if err != nil {
		s.send(ServerMessage{Type: TypeError, Message: err.Error()})
		return
	}

	threads := msg.Threads
	s.attempts.Store(0)
	s.cancel.Store(false)
	s.running.Store(true)

	sessCtx, cancelFunc := context.WithCancel(ctx)

	s.send(ServerMessage{
		Type:              TypeMiningStarted,
		Mode:              modeLabel(mode),
		Prefix:            msg.Prefix,
		Difficulty:        tgt.Difficulty(),
		EstimatedAttempts: tgt.EstimatedAttempts(),
		Threads:           threadsOrAuto(threads),
	})

	if s.store != nil {
		if err := s.store.RecordStarted(context.Background(), s.ID, modeLabel(mode), msg.Prefix, threadsOrAuto(threads)); err != nil {
			log.Printf("[Session %s] failed to persist session start: %v", s.ID, err)
		}
	}

	sampler := miner.NewSampler(&sessionSink{session: s})
	go sampler.Run(sessCtx, &s.attempts)

	go func() {
		defer cancelFunc()
		defer s.running.Store(false)

		coordinator := miner.NewCoordinator(s.hasher)
		coordinator.Parser = txtemplate.NewParser()

		cfg := miner.MinerConfig{
			TemplateBytes: tmplBytes,
			NonceOffset:   nonceOffset,
			Threads:       threads,
			// nonce_offset on the wire is spec §6's resume handle: a
			// client passes back a previous stopped.last_nonce here to
			// continue past it, not a template byte offset.
			StartNonce: uint64(msg.NonceOffset),
		}

		result, err := coordinator.Mine(mode, cfg, tgt, &s.attempts, &s.cancel)
		if err != nil {
			s.send(ServerMessage{Type: TypeError, Message: err.Error()})
			return
		}
		s.reportEngineOutcome(mode, result, cfg.StartNonce)
	}()
}

func (s *Session) reportEngineOutcome(mode miner.Mode, result *miner.MiningResult, startNonce uint64) {
	attempts := s.attempts.Load()

	if result == nil {
		s.send(ServerMessage{Type: TypeStopped, Attempts: attempts, LastNonce: startNonce + attempts})
		if s.store != nil {
			if err := s.store.RecordFinished(context.Background(), s.ID, "cancelled", attempts, nil); err != nil {
				log.Printf("[Session %s] failed to persist session outcome: %v", s.ID, err)
			}
		}
		return
	}

	switch mode.Kind {
	case miner.Package:
		s.send(ServerMessage{
			Type:          TypePackageFound,
			PackageID:     "0x" + hex.EncodeToString(result.ObjectID[:]),
			TxDigest:      "0x" + hex.EncodeToString(result.TxDigest[:]),
			TxBytesBase64: base64.StdEncoding.EncodeToString(result.TxBytes),
			Attempts:      attempts,
		})
	default:
		s.send(ServerMessage{
			Type:          TypeGasCoinFound,
			ObjectID:      "0x" + hex.EncodeToString(result.ObjectID[:]),
			ObjectIndex:   result.ObjectIndex,
			TxDigest:      "0x" + hex.EncodeToString(result.TxDigest[:]),
			TxBytesBase64: base64.StdEncoding.EncodeToString(result.TxBytes),
			Attempts:      attempts,
		})
	}

	if s.store != nil {
		if err := s.store.RecordFinished(context.Background(), s.ID, "won", attempts, result); err != nil {
			log.Printf("[Session %s] failed to persist session outcome: %v", s.ID, err)
		}
	}
}

// startAddressMining never touches internal/miner: spec §1 names
// address-vanity key generation an out-of-scope engine concern, but
// spec §6 still lists it as a valid frontend message.
func (s *Session) startAddressMining(ctx context.Context, msg ClientMessage) {
	if s.running.Load() {
		s.send(ServerMessage{Type: TypeError, Message: "a mining session is already running"})
		return
	}

	s.attempts.Store(0)
	s.cancel.Store(false)
	s.running.Store(true)

	_, cancelFunc := context.WithCancel(ctx)

	s.send(ServerMessage{
		Type:    TypeMiningStarted,
		Mode:    "address",
		Prefix:  msg.Prefix,
		Threads: threadsOrAuto(msg.Threads),
	})

	go func() {
		defer cancelFunc()
		defer s.running.Store(false)

		result, err := vanity.Mine(vanity.Config{Prefix: msg.Prefix, Threads: msg.Threads}, &s.attempts, &s.cancel)
		if err != nil {
			s.send(ServerMessage{Type: TypeError, Message: err.Error()})
			return
		}
		attempts := s.attempts.Load()
		if result == nil {
			s.send(ServerMessage{Type: TypeStopped, Attempts: attempts, LastNonce: attempts})
			return
		}
		s.send(ServerMessage{
			Type:       TypeAddressFound,
			Address:    result.Address,
			PrivateKey: result.PrivateKeyHex,
			Attempts:   attempts,
		})
	}()
}

func (s *Session) send(msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[Session %s] failed to marshal %s message: %v", s.ID, msg.Type, err)
		return
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("[Session %s] write error: %v", s.ID, err)
	}
}

// buildPayload concatenates the message's module/split-amount fields
// into the opaque Payload field txtemplate.Build wraps. This is not a
// chain codec: it exists only so mining over two different message
// shapes (package publish vs. coin split) produces two differently
// sized, but equally byte-stable, templates.
func buildPayload(msg ClientMessage) ([]byte, error) {
	var payload []byte
	for _, m := range msg.ModulesBase64 {
		decoded, err := base64.StdEncoding.DecodeString(m)
		if err != nil {
			return nil, fmt.Errorf("invalid modules_base64 entry: %w", err)
		}
		payload = append(payload, decoded...)
	}
	for _, amt := range msg.SplitAmounts {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], amt)
		payload = append(payload, b[:]...)
	}
	return payload, nil
}

func modeLabel(mode miner.Mode) string {
	switch mode.Kind {
	case miner.Package:
		return "package"
	case miner.Multi:
		return "gas_coin"
	case miner.SingleIndex:
		return "object"
	default:
		return "unknown"
	}
}

func threadsOrAuto(threads int) int {
	if threads <= 0 {
		return runtime.NumCPU()
	}
	return threads
}

// sessionSink adapts a Session onto miner.ProgressSink. OnTerminal is
// intentionally a no-op: Session.reportEngineOutcome already emits a
// richer *_found/stopped message than a bare TerminalEvent carries.
type sessionSink struct {
	session *Session
}

func (sk *sessionSink) OnSample(sample miner.ProgressSample) {
	sk.session.send(ServerMessage{Type: TypeProgress, Attempts: sample.AttemptsTotal, Hashrate: sample.HashesPerSecond})
}

func (sk *sessionSink) OnTerminal(miner.TerminalEvent) {}
