package types

import "time"

// ProcessingMode selects which orchestrator phases run.
type ProcessingMode string

const (
	// ModeFull runs extraction, structure build, aggregation, and statistics.
	ModeFull ProcessingMode = "FULL"

	// ModeProcessOnly runs extraction and structure build.
	ModeProcessOnly ProcessingMode = "PROCESS_ONLY"

	// ModeAggregateOnly runs aggregation and statistics against the
	// existing tree.
	ModeAggregateOnly ProcessingMode = "AGGREGATE_ONLY"
)

// ParseProcessingMode accepts the canonical names as well as lowercase,
// hyphenated spellings used on the command line ("process-only").
func ParseProcessingMode(s string) (ProcessingMode, bool) {
	switch s {
	case "FULL", "full", "":
		return ModeFull, true
	case "PROCESS_ONLY", "process-only", "process_only":
		return ModeProcessOnly, true
	case "AGGREGATE_ONLY", "aggregate-only", "aggregate_only":
		return ModeAggregateOnly, true
	}
	return "", false
}

// LockConfig controls per-document mutual exclusion.
type LockConfig struct {
	// Timeout bounds one wait for a document lock (default 10s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// RetryDelay is the polling interval while waiting (default 25ms).
	RetryDelay time.Duration `json:"retry_delay" yaml:"retry_delay"`

	// MaxAttempts bounds lock waits and conflict re-merges per document
	// (default 5).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`
}

// TreeConfig holds settings for building a knowledge tree.
type TreeConfig struct {
	// Root is the directory holding topics/, areas/, people/, inbox/.
	Root string `json:"root" yaml:"root"`

	// Lock configures per-document locking.
	Lock LockConfig `json:"lock" yaml:"lock"`

	// LedgerPath overrides the SQLite ledger location
	// (default <root>/inbox/index/kbtree.db).
	LedgerPath string `json:"ledger_path,omitempty" yaml:"ledger_path,omitempty"`
}
