package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/hetulpatel/arbmatch/internal/matches"
)

// MessageWriter is the subset of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// MatchPublisher fans confirmed matches out to a kafka topic.
type MatchPublisher struct {
	writer MessageWriter
}

func NewMatchPublisher(writer MessageWriter) *MatchPublisher {
	return &MatchPublisher{writer: writer}
}

func (p *MatchPublisher) Publish(ctx context.Context, rec matches.MatchRecord) error {
	if p == nil || p.writer == nil {
		return nil
	}
	msg, err := EncodeMatch(rec)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *MatchPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// EncodeMatch keys the message by pair id.
func EncodeMatch(rec matches.MatchRecord) (kafka.Message, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal match %s: %w", rec.PairID, err)
	}
	return kafka.Message{
		Key:   []byte(rec.PairID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "verification_tier", Value: []byte(rec.Tier)},
		},
	}, nil
}

func DecodeMatch(msg kafka.Message) (matches.MatchRecord, error) {
	var rec matches.MatchRecord
	if err := json.Unmarshal(msg.Value, &rec); err != nil {
		return matches.MatchRecord{}, fmt.Errorf("decode match at offset %d: %w", msg.Offset, err)
	}
	if rec.PairID == "" {
		return matches.MatchRecord{}, fmt.Errorf("decode match at offset %d: missing pair_id", msg.Offset)
	}
	return rec, nil
}
