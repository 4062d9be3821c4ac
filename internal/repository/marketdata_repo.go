package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/trms/treasury-mock/internal/domain"
)

// MarketDataRepo keeps the latest delivery state of each market data venue.
type MarketDataRepo struct {
	db *sql.DB
}

func NewMarketDataRepo(db *sql.DB) *MarketDataRepo {
	return &MarketDataRepo{db: db}
}

// Upsert records the latest delivery for a venue. Freshness is not stored;
// it is judged against the clock when the feeds are read.
func (r *MarketDataRepo) Upsert(f *domain.FeedStatus) error {
	_, err := r.db.Exec(
		`INSERT INTO market_data_feeds (venue, provider, expected, received, missing_items, last_update)
		VALUES (?,?,?,?,?,?)
		ON CONFLICT(venue) DO UPDATE SET
			provider = excluded.provider,
			expected = excluded.expected,
			received = excluded.received,
			missing_items = excluded.missing_items,
			last_update = excluded.last_update`,
		f.Venue, f.Provider, f.Expected, f.Received,
		strings.Join(f.MissingItems, ","), formatTime(f.LastUpdate),
	)
	if err != nil {
		return fmt.Errorf("upsert feed %s: %w", f.Venue, err)
	}
	return nil
}

func (r *MarketDataRepo) List() ([]domain.FeedStatus, error) {
	rows, err := r.db.Query(
		"SELECT venue, provider, expected, received, missing_items, last_update FROM market_data_feeds ORDER BY venue",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	feeds := make([]domain.FeedStatus, 0)
	for rows.Next() {
		var f domain.FeedStatus
		var items, lastUpdate string
		if err := rows.Scan(&f.Venue, &f.Provider, &f.Expected, &f.Received, &items, &lastUpdate); err != nil {
			return nil, err
		}
		f.LastUpdate = parseTime(lastUpdate)
		f.MissingItems = make([]string, 0)
		if items != "" {
			f.MissingItems = strings.Split(items, ",")
		}
		if f.Expected > f.Received {
			f.Missing = f.Expected - f.Received
		}
		feeds = append(feeds, f)
	}
	return feeds, rows.Err()
}
