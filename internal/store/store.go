// Package store implements optional session-history persistence for
// the control channel's frontend, adapted from the teacher's
// internal/db.PostgresStore. Spec §6 "Persisted state: None required"
// binds the engine itself, not the frontend keeping an audit trail of
// what it asked the engine to do.
package store

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rawblock/id-miner/internal/miner"
)

// SessionRecord is one row of mining-session history: what was asked
// for, how long it ran, and the winning result when present.
type SessionRecord struct {
	ID         string     `json:"id"`
	Mode       string     `json:"mode"`
	Prefix     string     `json:"prefix"`
	Threads    int        `json:"threads"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	Outcome    string     `json:"outcome,omitempty"`
	Attempts   uint64     `json:"attempts"`
	LastNonce  uint64     `json:"lastNonce,omitempty"`
	ObjectID   string     `json:"objectId,omitempty"`
	TxDigest   string     `json:"txDigest,omitempty"`
}

// SessionStore persists SessionRecords to Postgres via pgx. Every call
// site treats a nil *SessionStore as "no-persistence mode" and logs a
// warning instead of failing, the same contract the teacher's
// dbStore *db.PostgresStore call sites rely on.
type SessionStore struct {
	pool *pgxpool.Pool
}

// Connect opens a pooled connection to connStr and pings it once to
// fail fast on misconfiguration.
func Connect(ctx context.Context, connStr string) (*SessionStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("store: unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping failed: %w", err)
	}
	log.Println("[SessionStore] connected to PostgreSQL")
	return &SessionStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *SessionStore) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

// InitSchema loads and executes schema.sql from the given path.
func (s *SessionStore) InitSchema(ctx context.Context, schemaPath string) error {
	schemaBytes, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("store: failed to read schema file: %w", err)
	}
	if _, err := s.pool.Exec(ctx, string(schemaBytes)); err != nil {
		return fmt.Errorf("store: failed to execute schema: %w", err)
	}
	log.Println("[SessionStore] schema initialized")
	return nil
}

// RecordStarted inserts the opening row for a mining session.
func (s *SessionStore) RecordStarted(ctx context.Context, id, mode, prefix string, threads int) error {
	const q = `
		INSERT INTO mining_sessions (id, mode, prefix, threads, started_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (id) DO NOTHING;
	`
	_, err := s.pool.Exec(ctx, q, id, mode, prefix, threads)
	if err != nil {
		return fmt.Errorf("store: record started: %w", err)
	}
	return nil
}

// RecordFinished updates a session's row with its terminal outcome.
// result is nil for a cancelled search.
func (s *SessionStore) RecordFinished(ctx context.Context, id, outcome string, attempts uint64, result *miner.MiningResult) error {
	const q = `
		UPDATE mining_sessions
		SET finished_at = now(), outcome = $2, attempts = $3, last_nonce = $4,
		    object_id = $5, tx_digest = $6
		WHERE id = $1;
	`
	var objectID, txDigest string
	var lastNonce uint64
	if result != nil {
		objectID = "0x" + hex.EncodeToString(result.ObjectID[:])
		txDigest = "0x" + hex.EncodeToString(result.TxDigest[:])
		lastNonce = result.NonceUsed
	} else {
		lastNonce = attempts
	}

	_, err := s.pool.Exec(ctx, q, id, outcome, attempts, lastNonce, objectID, txDigest)
	if err != nil {
		return fmt.Errorf("store: record finished: %w", err)
	}
	return nil
}

// Get fetches one session's history row by id.
func (s *SessionStore) Get(ctx context.Context, id string) (*SessionRecord, error) {
	const q = `
		SELECT id, mode, prefix, threads, started_at, finished_at,
		       COALESCE(outcome, ''), COALESCE(attempts, 0), COALESCE(last_nonce, 0),
		       COALESCE(object_id, ''), COALESCE(tx_digest, '')
		FROM mining_sessions WHERE id = $1;
	`
	row := s.pool.QueryRow(ctx, q, id)

	var rec SessionRecord
	if err := row.Scan(
		&rec.ID, &rec.Mode, &rec.Prefix, &rec.Threads, &rec.StartedAt, &rec.FinishedAt,
		&rec.Outcome, &rec.Attempts, &rec.LastNonce, &rec.ObjectID, &rec.TxDigest,
	); err != nil {
		return nil, fmt.Errorf("store: get session %s: %w", id, err)
	}
	return &rec, nil
}
