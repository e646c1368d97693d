package domain

import "time"

const (
	// DefaultDateFormat is the Go layout applied to date fields when a
	// sensor does not configure its own.
	DefaultDateFormat = "Mon, Jan 02 03:04 PM"
	// DefaultTopN effectively means "all entries".
	DefaultTopN = 9999
)

// Sensor is one configured feed sensor. Display options may be replaced
// wholesale via an options update, which reloads the sensor and discards
// its snapshot.
type Sensor struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	FeedURL            string    `json:"feed_url"`
	DateFormat         string    `json:"date_format"`
	ShowTopN           int       `json:"show_topn"`
	LocalTime          bool      `json:"local_time"`
	RemoveSummaryImage bool      `json:"remove_summary_image"`
	Inclusions         []string  `json:"inclusions"`
	Exclusions         []string  `json:"exclusions"`
	ScanInterval       int       `json:"scan_interval"` // seconds, 0 = service default
	AddedAt            time.Time `json:"added_at"`
	IsActive           bool      `json:"is_active"`
}

// ApplyDefaults fills unset display options
func (s *Sensor) ApplyDefaults() {
	if s.DateFormat == "" {
		s.DateFormat = DefaultDateFormat
	}
	if s.ShowTopN <= 0 {
		s.ShowTopN = DefaultTopN
	}
}

// EntryRecord is one shaped feed entry: scalar values keyed by the surviving
// feed entry keys plus the derived image/audio/link keys.
type EntryRecord = map[string]any

// Snapshot is the transient result of one poll. It is rebuilt wholesale on
// every poll and never persisted; a failed poll leaves the previous snapshot
// in place.
type Snapshot struct {
	// State is the number of surfaced entries, capped at show_topn. Nil
	// means the last parse produced no feed-level data at all.
	State     *int           `json:"state"`
	Channel   map[string]any `json:"channel"`
	Entries   []EntryRecord  `json:"entries"`
	FetchedAt time.Time      `json:"fetched_at"`
}

// View pairs a sensor with its latest snapshot and status for the transport
// layer.
type View struct {
	Sensor   *Sensor
	Snapshot *Snapshot
	Status   SensorStatus
}
