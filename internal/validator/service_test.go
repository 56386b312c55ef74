package validator

import (
	"context"
	"errors"
	"testing"

	"github.com/hetulpatel/arbmatch/internal/collectors"
	"github.com/hetulpatel/arbmatch/internal/matches"
)

type fakeCompleter struct {
	reply string
	err   error
	calls int
	user  string
}

func (f *fakeCompleter) Complete(_ context.Context, _, user string) (string, error) {
	f.calls++
	f.user = user
	return f.reply, f.err
}

type memVerdicts struct {
	data map[string]bool
}

func (m *memVerdicts) Get(_ context.Context, key string) (bool, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memVerdicts) Set(_ context.Context, key string, verdict bool) error {
	m.data[key] = verdict
	return nil
}

func (m *memVerdicts) Close() error { return nil }

var (
	polyRecord   = collectors.MarketRecord{ID: "p1", Venue: collectors.VenuePolymarket, Descriptor: "Will X win the 2028 election? Resolves yes if X wins."}
	kalshiRecord = collectors.MarketRecord{ID: "k1", Venue: collectors.VenueKalshi, Descriptor: "X wins 2028 presidential election. Rules."}
)

func TestClassifyOutcomes(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		err   error
		want  Outcome
	}{
		{name: "yes", reply: "Yes", want: OutcomeSame},
		{name: "yes with punctuation", reply: "yes.", want: OutcomeSame},
		{name: "no", reply: "No, different deadlines", want: OutcomeDifferent},
		{name: "garbage", reply: "maybe", want: OutcomeFailed},
		{name: "call error", err: errors.New("timeout"), want: OutcomeFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := &fakeCompleter{reply: tt.reply, err: tt.err}
			svc, err := NewService(Config{LLM: fc, Tier: matches.TierCheap})
			if err != nil {
				t.Fatalf("NewService: %v", err)
			}
			v := svc.Classify(context.Background(), polyRecord, kalshiRecord)
			if v.Outcome != tt.want {
				t.Fatalf("outcome = %s, want %s", v.Outcome, tt.want)
			}
			if tt.want == OutcomeFailed && v.Err == nil {
				t.Fatal("failed verdict should carry an error")
			}
			if v.Same() != (tt.want == OutcomeSame) {
				t.Fatalf("Same() = %t", v.Same())
			}
		})
	}
}

func TestClassifyUsesDescriptors(t *testing.T) {
	fc := &fakeCompleter{reply: "no"}
	svc, _ := NewService(Config{LLM: fc, Tier: matches.TierExpensive})
	svc.Classify(context.Background(), polyRecord, kalshiRecord)
	want := buildUserPrompt(polyRecord.Descriptor, kalshiRecord.Descriptor)
	if fc.user != want {
		t.Fatalf("prompt = %q, want %q", fc.user, want)
	}
}

func TestClassifyCachesDefiniteVerdicts(t *testing.T) {
	vc := &memVerdicts{data: map[string]bool{}}
	fc := &fakeCompleter{reply: "yes"}
	svc, _ := NewService(Config{LLM: fc, Tier: matches.TierCheap, VerdictCache: vc})

	first := svc.Classify(context.Background(), polyRecord, kalshiRecord)
	second := svc.Classify(context.Background(), kalshiRecord, polyRecord)
	if !first.Same() || !second.Same() {
		t.Fatalf("expected both verdicts same, got %+v %+v", first, second)
	}
	if !second.Cached {
		t.Fatal("second verdict should come from cache")
	}
	if fc.calls != 1 {
		t.Fatalf("expected 1 llm call, got %d", fc.calls)
	}
}

func TestClassifyDoesNotCacheFailures(t *testing.T) {
	vc := &memVerdicts{data: map[string]bool{}}
	fc := &fakeCompleter{err: errors.New("boom")}
	svc, _ := NewService(Config{LLM: fc, Tier: matches.TierCheap, VerdictCache: vc})
	svc.Classify(context.Background(), polyRecord, kalshiRecord)
	if len(vc.data) != 0 {
		t.Fatalf("failure should not be cached: %v", vc.data)
	}
}

func TestTiersDoNotShareCacheEntries(t *testing.T) {
	vc := &memVerdicts{data: map[string]bool{}}
	cheap, _ := NewService(Config{LLM: &fakeCompleter{reply: "no"}, Tier: matches.TierCheap, VerdictCache: vc})
	expensiveLLM := &fakeCompleter{reply: "yes"}
	expensive, _ := NewService(Config{LLM: expensiveLLM, Tier: matches.TierExpensive, VerdictCache: vc})

	cheap.Classify(context.Background(), polyRecord, kalshiRecord)
	v := expensive.Classify(context.Background(), polyRecord, kalshiRecord)
	if !v.Same() || expensiveLLM.calls != 1 {
		t.Fatalf("expensive tier should run its own call: %+v calls=%d", v, expensiveLLM.calls)
	}
}

func TestNewServiceRequiresLLM(t *testing.T) {
	if _, err := NewService(Config{Tier: matches.TierCheap}); err == nil {
		t.Fatal("expected error without llm")
	}
}

func TestParseAnswer(t *testing.T) {
	for raw, want := range map[string]bool{"YES": true, " no\n": false, "\"yes\"": true, "**No**": false} {
		got, err := parseAnswer(raw)
		if err != nil || got != want {
			t.Errorf("parseAnswer(%q) = %t, %v", raw, got, err)
		}
	}
	if _, err := parseAnswer(""); err == nil {
		t.Error("empty answer should fail")
	}
}
