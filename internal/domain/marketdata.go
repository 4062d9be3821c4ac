package domain

import "time"

type FeedHealth string

const (
	FeedHealthy    FeedHealth = "HEALTHY"
	FeedDelayed    FeedHealth = "DELAYED"
	FeedIncomplete FeedHealth = "INCOMPLETE"
	FeedFailed     FeedHealth = "FAILED"
	FeedUnknown    FeedHealth = "UNKNOWN"
)

// FeedStatus is the freshness of one market-data venue.
type FeedStatus struct {
	Venue        string     `json:"venue"`
	Provider     string     `json:"provider"`
	Expected     int        `json:"expected"`
	Received     int        `json:"received"`
	Missing      int        `json:"missing"`
	UpToDate     bool       `json:"upToDate"`
	Status       FeedHealth `json:"status"`
	LastUpdate   time.Time  `json:"lastUpdate"`
	MissingItems []string   `json:"missingItems"`
}

// MarketDataStatus is the market-data readiness signal across venues.
type MarketDataStatus struct {
	Feeds     []FeedStatus `json:"feeds"`
	Expected  int          `json:"expected"`
	Received  int          `json:"received"`
	Missing   int          `json:"missing"`
	Complete  bool         `json:"complete"`
	CheckedAt time.Time    `json:"checkedAt"`
}

// StaleVenues lists venues whose data was not refreshed, in feed order.
func (m MarketDataStatus) StaleVenues() []string {
	venues := make([]string, 0)
	for _, f := range m.Feeds {
		if !f.UpToDate {
			venues = append(venues, f.Venue)
		}
	}
	return venues
}
