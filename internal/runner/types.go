package runner

import "time"

// State tracks a run's progress through its lifecycle.
type State int32

const (
	StateIdle State = iota
	StateLoading
	StateRunning
	StateReporting
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateRunning:
		return "running"
	case StateReporting:
		return "reporting"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Config controls how a run executes.
type Config struct {
	// Concurrency bounds the number of in-flight model calls. Defaults to 4.
	Concurrency int

	// Timeout applies per upstream call (model completion and grading), not
	// to the whole run. Zero disables it.
	Timeout time.Duration

	// Limit caps how many samples are evaluated. Zero means all.
	Limit int

	// MaxTokens for each completion request. Defaults to 1024.
	MaxTokens int

	// GraderFingerprint keys the result cache alongside model and sample.
	GraderFingerprint string
}

const (
	defaultConcurrency = 4
	defaultMaxTokens   = 1024
)
