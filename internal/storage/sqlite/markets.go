package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hetulpatel/arbmatch/internal/collectors"
)

// UpsertMarkets records newly listed markets. A market that reappears after
// closing is reopened with its new text.
func (s *Store) UpsertMarkets(ctx context.Context, records []collectors.MarketRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, upsertMarketSQL)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	now := formatTime(s.now())
	for _, m := range records {
		if _, err := stmt.ExecContext(ctx, string(m.Venue), m.ID, m.Title, m.Descriptor, m.Category, now); err != nil {
			tx.Rollback()
			return fmt.Errorf("upsert %s %s: %w", m.Venue, m.ID, err)
		}
	}
	return tx.Commit()
}

const upsertMarketSQL = `
INSERT INTO markets (venue, market_id, title, descriptor, category, first_seen_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(venue, market_id) DO UPDATE SET
	title=excluded.title,
	descriptor=excluded.descriptor,
	category=excluded.category,
	closed_at=NULL;
`

// MarkClosed stamps closed_at on the given markets. Unknown ids are ignored.
func (s *Store) MarkClosed(ctx context.Context, venue collectors.Venue, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `UPDATE markets SET closed_at = ? WHERE venue = ? AND market_id = ? AND closed_at IS NULL`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	now := formatTime(s.now())
	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, now, string(venue), id); err != nil {
			tx.Rollback()
			return fmt.Errorf("close %s %s: %w", venue, id, err)
		}
	}
	return tx.Commit()
}

// CatalogStats counts markets per venue and state.
type CatalogStats struct {
	Open   map[collectors.Venue]int
	Closed map[collectors.Venue]int
}

func (s *Store) CatalogStats(ctx context.Context) (CatalogStats, error) {
	stats := CatalogStats{Open: map[collectors.Venue]int{}, Closed: map[collectors.Venue]int{}}
	rows, err := s.db.QueryContext(ctx, `SELECT venue, closed_at IS NOT NULL, COUNT(*) FROM markets GROUP BY venue, closed_at IS NOT NULL`)
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			venue  string
			closed bool
			count  int
		)
		if err := rows.Scan(&venue, &closed, &count); err != nil {
			return stats, err
		}
		if closed {
			stats.Closed[collectors.Venue(venue)] = count
		} else {
			stats.Open[collectors.Venue(venue)] = count
		}
	}
	return stats, rows.Err()
}

// LookupMarket returns a catalog row, or ok=false when unknown.
func (s *Store) LookupMarket(ctx context.Context, venue collectors.Venue, id string) (collectors.MarketRecord, bool, error) {
	var (
		rec      = collectors.MarketRecord{ID: id, Venue: venue}
		category sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT title, descriptor, category FROM markets WHERE venue = ? AND market_id = ?`,
		string(venue), id,
	).Scan(&rec.Title, &rec.Descriptor, &category)
	if err == sql.ErrNoRows {
		return collectors.MarketRecord{}, false, nil
	}
	if err != nil {
		return collectors.MarketRecord{}, false, err
	}
	rec.Category = category.String
	return rec, true, nil
}
