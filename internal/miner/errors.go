package miner

import "fmt"

// ConfigError reports a synchronous, fail-fast configuration problem
// raised at Mine entry — before any worker is spawned.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("miner: bad configuration: %s", e.Reason)
}

// errInvalidOffset builds the ConfigError returned when nonce_offset does
// not leave room for the 8-byte nonce window inside the template.
func errInvalidOffset(templateLen, offset int) error {
	return &ConfigError{Reason: fmt.Sprintf(
		"nonce_offset %d + 8 exceeds template length %d", offset, templateLen)}
}

// errEmptyIndexSet is the ConfigError returned when a Mode's index
// set is empty (e.g. Multi{K: 0}).
var errEmptyIndexSet = &ConfigError{Reason: "mode enumerates an empty index set"}

// WorkerPanicError is returned when a worker goroutine panics mid-search.
// All sibling workers are cancelled before this error is surfaced.
type WorkerPanicError struct {
	Message string
}

func (e *WorkerPanicError) Error() string {
	return fmt.Sprintf("miner: worker panicked: %s", e.Message)
}
