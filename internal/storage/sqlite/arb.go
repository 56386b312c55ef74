package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hetulpatel/arbmatch/internal/matches"
)

// InsertMatch stores a confirmed match. A pair already stored is left as is.
func (s *Store) InsertMatch(ctx context.Context, rec matches.MatchRecord) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlite store not initialized")
	}
	rawJSON, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal match: %w", err)
	}

	query := `
INSERT OR IGNORE INTO arb_matches (
	pair_id, polymarket_id, polymarket_title, kalshi_id, kalshi_title,
	similarity, verification_tier, observed_at, raw_json
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`
	_, err = s.db.ExecContext(
		ctx,
		query,
		rec.PairID,
		rec.Polymarket.ID,
		rec.Polymarket.Title,
		rec.Kalshi.ID,
		rec.Kalshi.Title,
		rec.Similarity,
		string(rec.Tier),
		formatTime(rec.ObservedAt),
		string(rawJSON),
	)
	return err
}

// Publish lets the store act as a match sink.
func (s *Store) Publish(ctx context.Context, rec matches.MatchRecord) error {
	return s.InsertMatch(ctx, rec)
}

// ListMatches returns stored matches, newest first. limit <= 0 returns all.
func (s *Store) ListMatches(ctx context.Context, limit int) ([]matches.MatchRecord, error) {
	query := `SELECT raw_json FROM arb_matches ORDER BY observed_at DESC, pair_id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []matches.MatchRecord
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var rec matches.MatchRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decode stored match: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
