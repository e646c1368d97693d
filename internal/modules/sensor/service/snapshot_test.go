package service

import (
	"testing"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedsensor/internal/modules/feed/shape"
	"feedsensor/internal/modules/sensor/domain"
)

func defaultShapeOptions() shape.Options {
	return shape.Options{DateFormat: domain.DefaultDateFormat}
}

func TestBuildSnapshotNoChannelData(t *testing.T) {
	// Entry generation is skipped entirely when the parse yielded no
	// feed-level metadata, even if items are present.
	feed := &gofeed.Feed{
		Items: []*gofeed.Item{{Title: "Orphan"}},
	}

	snapshot := buildSnapshot(feed, defaultShapeOptions(), domain.DefaultTopN)

	assert.Nil(t, snapshot.State)
	assert.Empty(t, snapshot.Entries)
	assert.Empty(t, snapshot.Channel)
}

func TestBuildSnapshotNoEntries(t *testing.T) {
	feed := &gofeed.Feed{Title: "Just a channel"}

	snapshot := buildSnapshot(feed, defaultShapeOptions(), domain.DefaultTopN)

	require.NotNil(t, snapshot.State)
	assert.Equal(t, 0, *snapshot.State)
	assert.Empty(t, snapshot.Entries)
	assert.Equal(t, "Just a channel", snapshot.Channel["title"])
}

func TestBuildSnapshotCapsAtTopN(t *testing.T) {
	feed := &gofeed.Feed{
		Title: "Capped",
		Items: []*gofeed.Item{{Title: "a"}, {Title: "b"}, {Title: "c"}},
	}

	snapshot := buildSnapshot(feed, defaultShapeOptions(), 2)

	require.NotNil(t, snapshot.State)
	assert.Equal(t, 2, *snapshot.State)
	assert.Len(t, snapshot.Entries, 2)
}
