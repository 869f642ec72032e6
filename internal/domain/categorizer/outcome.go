package categorizer

import (
	"context"
	"errors"
)

// Classifier errors. Adapters wrap provider errors with one of these so the
// categorizer can tell a skippable failure from one that must stop the run.
var (
	ErrQuotaExhausted = errors.New("classifier quota exhausted")
	ErrRateLimited    = errors.New("classifier rate limited")
	ErrUnauthorized   = errors.New("classifier credentials rejected")
)

// OutcomeKind classifies a classifier call.
type OutcomeKind int

const (
	OutcomeOK OutcomeKind = iota
	OutcomeRetryable
	OutcomeQuotaExhausted
	OutcomeFatal
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOK:
		return "ok"
	case OutcomeRetryable:
		return "retryable"
	case OutcomeQuotaExhausted:
		return "quota_exhausted"
	case OutcomeFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Outcome is the typed result of one classifier call.
type Outcome struct {
	Kind OutcomeKind
	Text string
	Err  error
}

// NewOutcome converts a classifier response into an Outcome.
func NewOutcome(text string, err error) Outcome {
	switch {
	case err == nil:
		return Outcome{Kind: OutcomeOK, Text: text}
	case errors.Is(err, ErrQuotaExhausted):
		return Outcome{Kind: OutcomeQuotaExhausted, Err: err}
	case errors.Is(err, ErrUnauthorized), errors.Is(err, context.Canceled):
		return Outcome{Kind: OutcomeFatal, Err: err}
	default:
		return Outcome{Kind: OutcomeRetryable, Err: err}
	}
}

// Halts reports whether the outcome must stop the whole run.
func (o Outcome) Halts() bool {
	return o.Kind == OutcomeQuotaExhausted || o.Kind == OutcomeFatal
}
