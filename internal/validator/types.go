package validator

import (
	"context"

	"github.com/hetulpatel/arbmatch/internal/cache"
	"github.com/hetulpatel/arbmatch/internal/matches"
)

// Outcome is the classifier's decision for a pair.
type Outcome int

const (
	OutcomeDifferent Outcome = iota
	OutcomeSame
	// OutcomeFailed means no decision could be obtained. Callers treat it as
	// "not the same event".
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSame:
		return "same"
	case OutcomeDifferent:
		return "different"
	default:
		return "failed"
	}
}

// Verdict is the typed result returned across the classifier boundary.
type Verdict struct {
	Outcome Outcome
	Err     error
	Cached  bool
}

// Same reports whether the pair was confirmed.
func (v Verdict) Same() bool {
	return v.Outcome == OutcomeSame
}

// Completer is the chat call the classifier needs; *llm.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Config controls the classifier behavior.
type Config struct {
	LLM          Completer
	Tier         matches.Tier
	VerdictCache cache.VerdictCache
	SystemPrompt string
}
