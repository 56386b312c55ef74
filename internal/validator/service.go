package validator

import (
	"context"
	"fmt"
	"strings"

	"github.com/hetulpatel/arbmatch/internal/cache"
	"github.com/hetulpatel/arbmatch/internal/collectors"
	"github.com/hetulpatel/arbmatch/internal/logging"
	"github.com/hetulpatel/arbmatch/internal/matches"
	"github.com/hetulpatel/arbmatch/internal/metrics"
)

// Service is one tier of the same-event classifier.
type Service struct {
	llm          Completer
	tier         matches.Tier
	cache        cache.VerdictCache
	systemPrompt string
}

// NewService creates a classifier tier.
func NewService(cfg Config) (*Service, error) {
	if cfg.LLM == nil {
		return nil, fmt.Errorf("validator: llm client is required")
	}
	if cfg.Tier == "" {
		return nil, fmt.Errorf("validator: tier is required")
	}
	system := cfg.SystemPrompt
	if strings.TrimSpace(system) == "" {
		system = systemPrompt
	}
	return &Service{
		llm:          cfg.LLM,
		tier:         cfg.Tier,
		cache:        cfg.VerdictCache,
		systemPrompt: system,
	}, nil
}

func (s *Service) Tier() matches.Tier {
	return s.tier
}

// Classify asks whether a and b describe the same event. It never returns an
// error: failures come back as OutcomeFailed and are logged here once.
func (s *Service) Classify(ctx context.Context, a, b collectors.MarketRecord) Verdict {
	key := matches.VerdictCacheKey(s.tier, a, b)
	if s.cache != nil {
		same, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			logging.Errorf("[verdict-cache] get error key=%s: %v", key, err)
		} else if ok {
			logging.Debugf("[verdict-cache] hit %s %s/%s same=%t", s.tier, a.ID, b.ID, same)
			v := Verdict{Outcome: OutcomeDifferent, Cached: true}
			if same {
				v.Outcome = OutcomeSame
			}
			metrics.ClassifierCalls.WithLabelValues(string(s.tier), "cached").Inc()
			return v
		}
	}

	raw, err := s.llm.Complete(ctx, s.systemPrompt, buildUserPrompt(a.Descriptor, b.Descriptor))
	if err == nil {
		var same bool
		same, err = parseAnswer(raw)
		if err == nil {
			v := Verdict{Outcome: OutcomeDifferent}
			if same {
				v.Outcome = OutcomeSame
			}
			metrics.ClassifierCalls.WithLabelValues(string(s.tier), v.Outcome.String()).Inc()
			if s.cache != nil {
				if err := s.cache.Set(ctx, key, same); err != nil {
					logging.Errorf("[verdict-cache] set error key=%s: %v", key, err)
				}
			}
			return v
		}
	}

	metrics.ClassifierCalls.WithLabelValues(string(s.tier), OutcomeFailed.String()).Inc()
	logging.Errorf("[validator:%s] %s vs %s treated as no match: %v", s.tier, a.ID, b.ID, err)
	return Verdict{Outcome: OutcomeFailed, Err: err}
}
