package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/hetulpatel/arbmatch/internal/collectors"
	"github.com/hetulpatel/arbmatch/internal/matches"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func sampleMatch(t *testing.T) matches.MatchRecord {
	t.Helper()
	rec, err := matches.NewRecord(
		collectors.MarketRecord{ID: "K1", Title: "K.", Descriptor: "K. rules", Venue: collectors.VenueKalshi},
		collectors.MarketRecord{ID: "P1", Title: "P?", Descriptor: "P? body", Venue: collectors.VenuePolymarket},
		0.9, matches.TierExpensive, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	)
	if err != nil {
		t.Fatalf("NewRecord: %v", err)
	}
	return rec
}

func TestPublishWritesKeyedMessage(t *testing.T) {
	w := &fakeWriter{}
	p := NewMatchPublisher(w)
	rec := sampleMatch(t)

	if err := p.Publish(context.Background(), rec); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(w.msgs))
	}
	if string(w.msgs[0].Key) != rec.PairID {
		t.Fatalf("key = %s", w.msgs[0].Key)
	}

	got, err := DecodeMatch(w.msgs[0])
	if err != nil {
		t.Fatalf("DecodeMatch: %v", err)
	}
	if got.Polymarket.ID != "P1" || got.Kalshi.ID != "K1" || got.Tier != matches.TierExpensive {
		t.Fatalf("unexpected decoded match %+v", got)
	}

	if err := p.Close(); err != nil || !w.closed {
		t.Fatalf("Close: %v closed=%t", err, w.closed)
	}
}

func TestPublishPropagatesWriterError(t *testing.T) {
	p := NewMatchPublisher(&fakeWriter{err: errors.New("broker down")})
	if err := p.Publish(context.Background(), sampleMatch(t)); err == nil {
		t.Fatal("expected error")
	}
}

func TestDecodeMatchRejectsGarbage(t *testing.T) {
	if _, err := DecodeMatch(kafka.Message{Value: []byte("{")}); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := DecodeMatch(kafka.Message{Value: []byte(`{"similarity":1}`)}); err == nil {
		t.Fatal("expected missing pair_id error")
	}
}
