package shape_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedsensor/internal/modules/feed/shape"
)

func defaultOptions() shape.Options {
	return shape.Options{DateFormat: "Mon, Jan 02 03:04 PM"}
}

func TestEntryKeyFilter(t *testing.T) {
	tests := []struct {
		name     string
		entry    map[string]any
		opts     shape.Options
		want     []string
		dontWant []string
	}{
		{
			name:     "parsed keys are always dropped",
			entry:    map[string]any{"title": "a", "published_parsed": time.Now(), "parsed": "x"},
			opts:     defaultOptions(),
			want:     []string{"title"},
			dontWant: []string{"published_parsed", "parsed"},
		},
		{
			name:     "detail keys are always dropped",
			entry:    map[string]any{"title": "a", "title_detail": "b", "detail": "c"},
			opts:     defaultOptions(),
			want:     []string{"title"},
			dontWant: []string{"title_detail", "detail"},
		},
		{
			name:     "exclusions drop keys",
			entry:    map[string]any{"title": "a", "summary": "b"},
			opts:     shape.Options{DateFormat: "Mon", Exclusions: []string{"summary"}},
			want:     []string{"title"},
			dontWant: []string{"summary"},
		},
		{
			name:     "non-empty inclusions keep only listed keys",
			entry:    map[string]any{"title": "a", "summary": "b", "author": "c"},
			opts:     shape.Options{DateFormat: "Mon", Inclusions: []string{"title"}},
			want:     []string{"title"},
			dontWant: []string{"summary", "author"},
		},
		{
			name:     "exclusion wins over inclusion",
			entry:    map[string]any{"title": "a", "summary": "b"},
			opts:     shape.Options{DateFormat: "Mon", Inclusions: []string{"title", "summary"}, Exclusions: []string{"summary"}},
			want:     []string{"title"},
			dontWant: []string{"summary"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := shape.Entry(tt.entry, tt.opts)
			for _, key := range tt.want {
				assert.Contains(t, record, key)
			}
			for _, key := range tt.dontWant {
				assert.NotContains(t, record, key)
			}
		})
	}
}

func TestEntryDropsStructuredValues(t *testing.T) {
	entry := map[string]any{
		"title":   "hello",
		"count":   3,
		"ratio":   1.5,
		"flag":    true,
		"authors": []any{map[string]any{"name": "x"}},
	}
	record := shape.Entry(entry, shape.Options{DateFormat: "Mon", Exclusions: []string{"link", "image", "audio"}})

	assert.Equal(t, "hello", record["title"])
	assert.Equal(t, 3, record["count"])
	assert.Equal(t, 1.5, record["ratio"])
	assert.Equal(t, true, record["flag"])
	assert.NotContains(t, record, "authors")
}

func TestEntryDateFormatting(t *testing.T) {
	entry := map[string]any{"published": "Mon, 02 Jan 2006 15:04:05 +0000"}
	record := shape.Entry(entry, shape.Options{DateFormat: "2006-01-02"})

	assert.Equal(t, "2006-01-02", record["published"])
}

func TestEntryUnparsableDateFallsBackToNow(t *testing.T) {
	entry := map[string]any{"published": "not a date at all"}
	// Formatting just the year keeps the assertion stable
	record := shape.Entry(entry, shape.Options{DateFormat: "2006"})

	assert.Equal(t, time.Now().UTC().Format("2006"), record["published"])
}

func TestEntryImageStructureCollapsesToHref(t *testing.T) {
	entry := map[string]any{
		"image": map[string]any{"href": "https://example.com/pic.png", "title": "pic"},
	}
	record := shape.Entry(entry, defaultOptions())

	assert.Equal(t, "https://example.com/pic.png", record["image"])
}

func TestEntryImageDerivation(t *testing.T) {
	tests := []struct {
		name  string
		entry map[string]any
		want  string
	}{
		{
			name: "media content tagged image",
			entry: map[string]any{
				"media_content": []any{map[string]any{"url": "a.jpg", "medium": "image"}},
			},
			want: "a.jpg",
		},
		{
			name: "media content with image mime type",
			entry: map[string]any{
				"media_content": []any{map[string]any{"url": "b.png", "type": "image/png"}},
			},
			want: "b.png",
		},
		{
			name: "media thumbnail",
			entry: map[string]any{
				"media_thumbnail": []any{map[string]any{"url": "thumb.jpg"}},
			},
			want: "thumb.jpg",
		},
		{
			name: "image enclosure",
			entry: map[string]any{
				"enclosures": []any{map[string]any{"href": "enc.gif", "type": "image/gif"}},
			},
			want: "enc.gif",
		},
		{
			name: "non-image enclosure is ignored",
			entry: map[string]any{
				"enclosures": []any{map[string]any{"href": "episode.mp3", "type": "audio/mpeg"}},
			},
			want: "",
		},
		{
			name: "img tag in summary",
			entry: map[string]any{
				"summary": `before <img class="x" src="inline.png" alt="y"> after`,
			},
			want: "inline.png",
		},
		{
			name: "minimal img tag in summary",
			entry: map[string]any{
				"summary": `<img src="bare.png">`,
			},
			want: "bare.png",
		},
		{
			name: "media content wins over summary",
			entry: map[string]any{
				"media_content": []any{map[string]any{"url": "a.jpg", "medium": "image"}},
				"summary":       `<img src="inline.png" alt="y">`,
			},
			want: "a.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := shape.Entry(tt.entry, defaultOptions())
			if tt.want == "" {
				assert.NotContains(t, record, "image")
			} else {
				assert.Equal(t, tt.want, record["image"])
			}
		})
	}
}

func TestEntryImageDerivationSkippedWhenExcluded(t *testing.T) {
	entry := map[string]any{
		"media_content": []any{map[string]any{"url": "a.jpg", "medium": "image"}},
	}
	record := shape.Entry(entry, shape.Options{DateFormat: "Mon", Exclusions: []string{"image"}})

	assert.NotContains(t, record, "image")
}

func TestEntryAudioDerivation(t *testing.T) {
	tests := []struct {
		name  string
		entry map[string]any
		want  string
	}{
		{
			name: "media content audio",
			entry: map[string]any{
				"media_content": []any{map[string]any{"url": "ep.mp3", "type": "audio/mpeg"}},
			},
			want: "ep.mp3",
		},
		{
			name: "audio enclosure",
			entry: map[string]any{
				"enclosures": []any{map[string]any{"href": "ep.ogg", "type": "audio/ogg"}},
			},
			want: "ep.ogg",
		},
		{
			name:  "nothing to derive",
			entry: map[string]any{"title": "no media"},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := shape.Entry(tt.entry, defaultOptions())
			if tt.want == "" {
				assert.NotContains(t, record, "audio")
			} else {
				assert.Equal(t, tt.want, record["audio"])
			}
		})
	}
}

func TestEntryLinkDerivation(t *testing.T) {
	entry := map[string]any{
		"links": []any{
			map[string]any{"href": "https://example.com/first"},
			map[string]any{"href": "https://example.com/second"},
		},
	}
	record := shape.Entry(entry, defaultOptions())

	assert.Equal(t, "https://example.com/first", record["link"])
}

func TestEntryLinkAbsent(t *testing.T) {
	record := shape.Entry(map[string]any{"title": "no links"}, defaultOptions())

	assert.NotContains(t, record, "link")
}

func TestEntryRemoveSummaryImage(t *testing.T) {
	tests := []struct {
		name    string
		summary string
	}{
		{name: "minimal tag", summary: `text <img src="x.png"> more text`},
		{name: "tag with attributes", summary: `text <img class="a" src="x.png" alt="b" /> more text`},
		{name: "multiple tags", summary: `text <img src="x.png"> mid <img src="y.png"> more text`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := defaultOptions()
			opts.RemoveSummaryImage = true
			record := shape.Entry(map[string]any{"summary": tt.summary}, opts)

			summary, ok := record["summary"].(string)
			require.True(t, ok)
			assert.NotContains(t, summary, "<img")
			assert.Contains(t, summary, "text")
		})
	}
}

func TestChannelInfo(t *testing.T) {
	info := map[string]any{
		"title":          "My Feed",
		"subtitle":       "About things",
		"updated_parsed": time.Now(),
		"title_detail":   map[string]any{"type": "text/plain"},
		"image":          map[string]any{"href": "https://example.com/logo.png"},
	}
	channel := shape.ChannelInfo(info, defaultOptions())

	assert.Equal(t, "My Feed", channel["title"])
	assert.Equal(t, "About things", channel["subtitle"])
	assert.NotContains(t, channel, "updated_parsed")
	assert.NotContains(t, channel, "title_detail")
	// image never passes the generic filter; it is derived
	assert.Equal(t, "https://example.com/logo.png", channel["image"])
}

func TestChannelInfoImageFallbacks(t *testing.T) {
	tests := []struct {
		name string
		info map[string]any
		opts shape.Options
		want string
	}{
		{
			name: "href preferred",
			info: map[string]any{"image": map[string]any{"href": "h.png", "url": "u.png"}},
			opts: defaultOptions(),
			want: "h.png",
		},
		{
			name: "url when href missing",
			info: map[string]any{"image": map[string]any{"url": "u.png"}},
			opts: defaultOptions(),
			want: "u.png",
		},
		{
			name: "logo when image missing",
			info: map[string]any{"logo": "l.png"},
			opts: defaultOptions(),
			want: "l.png",
		},
		{
			name: "nothing when excluded",
			info: map[string]any{"image": map[string]any{"href": "h.png"}},
			opts: shape.Options{DateFormat: "Mon", Exclusions: []string{"image"}},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			channel := shape.ChannelInfo(tt.info, tt.opts)
			if tt.want == "" {
				assert.NotContains(t, channel, "image")
			} else {
				assert.Equal(t, tt.want, channel["image"])
			}
		})
	}
}

func TestChannelInfoDateFormatting(t *testing.T) {
	info := map[string]any{"updated": "Tue, 03 Jan 2006 10:00:00 +0000"}
	channel := shape.ChannelInfo(info, shape.Options{DateFormat: "2006-01-02"})

	assert.Equal(t, "2006-01-03", channel["updated"])
}

func TestEntryNoKeySlipsThroughFilter(t *testing.T) {
	entry := map[string]any{
		"title":            "a",
		"summary":          "b",
		"published_parsed": time.Now(),
		"summary_detail":   map[string]any{},
		"secret":           "c",
	}
	opts := shape.Options{DateFormat: "Mon", Exclusions: []string{"secret"}}
	record := shape.Entry(entry, opts)

	for key := range record {
		assert.False(t, strings.Contains(key, "parsed"), "key %q contains parsed", key)
		assert.False(t, strings.HasSuffix(key, "_detail"), "key %q is a detail key", key)
		assert.NotEqual(t, "secret", key)
	}
}
