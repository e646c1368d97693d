package shape_test

import (
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedsensor/internal/modules/feed/shape"
)

func TestEntryMap(t *testing.T) {
	published := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	item := &gofeed.Item{
		Title:           "An article",
		Link:            "https://example.com/a",
		Links:           []string{"https://example.com/a", "https://example.com/alt"},
		GUID:            "guid-1",
		Description:     "summary text",
		Content:         "full content",
		Published:       "Wed, 01 May 2024 12:00:00 +0000",
		PublishedParsed: &published,
		Author:          &gofeed.Person{Name: "Jo"},
		Categories:      []string{"tech"},
		Image:           &gofeed.Image{URL: "https://example.com/pic.png"},
		Enclosures: []*gofeed.Enclosure{
			{URL: "https://example.com/ep.mp3", Type: "audio/mpeg", Length: "123"},
		},
	}

	entry := shape.EntryMap(item)

	assert.Equal(t, "An article", entry["title"])
	assert.Equal(t, "https://example.com/a", entry["link"])
	assert.Equal(t, "guid-1", entry["id"])
	assert.Equal(t, "summary text", entry["summary"])
	assert.Equal(t, "full content", entry["content"])
	assert.Equal(t, "Jo", entry["author"])
	assert.Equal(t, published, entry["published_parsed"])

	links, ok := entry["links"].([]any)
	require.True(t, ok)
	require.Len(t, links, 2)
	assert.Equal(t, map[string]any{"href": "https://example.com/a"}, links[0])

	image, ok := entry["image"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "https://example.com/pic.png", image["href"])

	enclosures, ok := entry["enclosures"].([]any)
	require.True(t, ok)
	require.Len(t, enclosures, 1)
	enclosure, ok := enclosures[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "https://example.com/ep.mp3", enclosure["href"])
	assert.Equal(t, "audio/mpeg", enclosure["type"])
}

func TestEntryMapMediaExtensions(t *testing.T) {
	item := &gofeed.Item{
		Title: "With media",
		Extensions: ext.Extensions{
			"media": {
				"content": []ext.Extension{
					{Name: "content", Attrs: map[string]string{"url": "a.jpg", "medium": "image"}},
				},
				"thumbnail": []ext.Extension{
					{Name: "thumbnail", Attrs: map[string]string{"url": "thumb.jpg"}},
				},
			},
		},
	}

	entry := shape.EntryMap(item)

	content, ok := entry["media_content"].([]any)
	require.True(t, ok)
	require.Len(t, content, 1)
	assert.Equal(t, map[string]any{"url": "a.jpg", "medium": "image"}, content[0])

	thumbnails, ok := entry["media_thumbnail"].([]any)
	require.True(t, ok)
	require.Len(t, thumbnails, 1)
}

func TestEntryMapOmitsEmptyFields(t *testing.T) {
	entry := shape.EntryMap(&gofeed.Item{Title: "bare"})

	assert.Equal(t, map[string]any{"title": "bare"}, entry)
}

func TestChannelMap(t *testing.T) {
	feed := &gofeed.Feed{
		Title:       "My Feed",
		Description: "About things",
		Link:        "https://example.com",
		Language:    "en",
		Updated:     "Wed, 01 May 2024 12:00:00 +0000",
		Copyright:   "CC0",
		Image:       &gofeed.Image{URL: "https://example.com/logo.png", Title: "logo"},
	}

	info := shape.ChannelMap(feed)

	assert.Equal(t, "My Feed", info["title"])
	assert.Equal(t, "About things", info["subtitle"])
	assert.Equal(t, "https://example.com", info["link"])
	assert.Equal(t, "en", info["language"])
	assert.Equal(t, "CC0", info["rights"])

	image, ok := info["image"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "https://example.com/logo.png", image["href"])
}

func TestEntryMapThenEntryShapesMedia(t *testing.T) {
	item := &gofeed.Item{
		Title: "Shaped",
		Extensions: ext.Extensions{
			"media": {
				"content": []ext.Extension{
					{Name: "content", Attrs: map[string]string{"url": "a.jpg", "medium": "image"}},
				},
			},
		},
	}

	record := shape.Entry(shape.EntryMap(item), shape.Options{DateFormat: "Mon"})

	assert.Equal(t, "a.jpg", record["image"])
	assert.NotContains(t, record, "media_content")
}
