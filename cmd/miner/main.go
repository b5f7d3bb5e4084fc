package main

import (
	"context"
	"encoding/hex"
	"flag"
	"log"
	"os"

	"github.com/rawblock/id-miner/internal/api"
	"github.com/rawblock/id-miner/internal/miner"
	"github.com/rawblock/id-miner/internal/store"
)

func main() {
	handleCLICommands() // exits the process for the mining subcommands and "help"; "serve", an unrecognized subcommand, or none falls through

	log.Println("Starting id-miner control-channel server...")

	// ─── Optional Environment Variables ─────────────────────────────────
	// Session history is opt-in: without DATABASE_URL the server runs in
	// no-persistence mode, the same degrade-gracefully contract the
	// teacher's dbConn follows for its forensics store.
	// ──────────────────────────────────────────────────────────────────

	var sessionStore *store.SessionStore
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		s, err := store.Connect(context.Background(), dbURL)
		if err != nil {
			log.Printf("Warning: failed to connect to PostgreSQL, continuing without session history. Error: %v", err)
		} else {
			defer s.Close()
			schemaPath := getEnvOrDefault("SCHEMA_PATH", "internal/store/schema.sql")
			if err := s.InitSchema(context.Background(), schemaPath); err != nil {
				log.Printf("Warning: schema init failed: %v", err)
			}
			sessionStore = s
		}
	} else {
		log.Println("DATABASE_URL not set; running without session history persistence")
	}

	intentHex := os.Getenv("MINER_INTENT_PREFIX")
	hasher := miner.NewBlakeHasher(decodeIntentOrNil(intentHex))

	r := api.SetupRouter(hasher, sessionStore)

	port := getEnvOrDefault("PORT", "8080")
	if len(os.Args) > 1 && os.Args[1] == "serve" {
		fs := flag.NewFlagSet("serve", flag.ExitOnError)
		fs.StringVar(&port, "port", port, "control-channel listen port")
		fs.Parse(os.Args[2:])
	}
	log.Printf("id-miner control-channel server listening on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// getEnvOrDefault returns the env var value or a safe default for
// non-secret settings.
func getEnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// decodeIntentOrNil hex-decodes an optional intent domain-separator
// prefix, logging and falling back to nil (no domain separation) on a
// malformed value rather than refusing to start — MINER_INTENT_PREFIX
// has no effect on correctness beyond which object ids get produced.
func decodeIntentOrNil(hexStr string) []byte {
	if hexStr == "" {
		return nil
	}
	b, err := hex.DecodeString(hexStr)
	if err != nil {
		log.Printf("Warning: MINER_INTENT_PREFIX is not valid hex, ignoring: %v", err)
		return nil
	}
	return b
}
