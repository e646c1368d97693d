// Package shape turns parsed feed data into the flat records a sensor
// exposes: keys are filtered through inclusion/exclusion lists, date fields
// are reformatted and image/audio/link values are derived from enclosure-like
// substructures.
package shape

import (
	"regexp"
	"strings"

	"github.com/samber/lo"
)

// Options control one shaping pass. They mirror the per-sensor display
// options.
type Options struct {
	DateFormat         string
	Inclusions         []string
	Exclusions         []string
	LocalTime          bool
	RemoveSummaryImage bool
}

// dateFields are the entry/channel keys holding date strings.
var dateFields = []string{"published", "updated", "created", "expired"}

// imagePattern matches <img> tags with any attribute layout around src,
// including minimal tags like <img src="x.png">.
const imagePattern = `<img[^>]*?src="(.+?)"[^>]*>`

var (
	// imageRegexp strips <img> tags from summaries.
	imageRegexp = regexp.MustCompile(imagePattern)
	// imageFindRegexp extracts the first image URL from a summary. Dot
	// matches newlines here so URLs spanning lines are still captured.
	imageFindRegexp = regexp.MustCompile(`(?s)` + imagePattern)
)

// Entry shapes one parsed feed entry into a flat record.
//
// A key survives only if: the inclusion list is empty or contains it, it does
// not contain "parsed", it is not a detail key, and it is not excluded.
// Exclusion always wins. Date fields are reformatted per Options, an image
// substructure collapses to its href, and any other non-scalar value is
// dropped silently. Image, audio and link are then derived from known
// substructures when absent and not excluded.
func Entry(entry map[string]any, opts Options) map[string]any {
	record := make(map[string]any)

	for key, value := range entry {
		if skipKey(key, opts) {
			continue
		}
		switch {
		case lo.Contains(dateFields, key):
			raw, _ := value.(string)
			record[key] = FormatDate(raw, opts)
		case key == "image":
			if structure, ok := value.(map[string]any); ok {
				record["image"] = stringValue(structure["href"])
			}
		default:
			if isScalar(value) {
				record[key] = value
			}
		}
	}

	if _, present := record["image"]; !present && !excluded("image", opts) {
		if image := entryImage(entry); image != "" {
			record["image"] = image
		}
	}
	if _, present := record["audio"]; !present && !excluded("audio", opts) {
		if audio := entryAudio(entry); audio != "" {
			record["audio"] = audio
		}
	}
	if _, present := record["link"]; !present && !excluded("link", opts) {
		if link := entryLink(entry); link != "" {
			record["link"] = link
		}
	}

	if opts.RemoveSummaryImage {
		if summary, ok := record["summary"].(string); ok {
			record["summary"] = imageRegexp.ReplaceAllString(summary, "")
		}
	}

	return record
}

// ChannelInfo shapes feed-level metadata. The generic pass always skips the
// image key; the channel image is derived from the image href/url field or a
// logo field instead, and only when image is not excluded.
func ChannelInfo(info map[string]any, opts Options) map[string]any {
	channel := make(map[string]any)

	for key, value := range info {
		if key == "image" || skipKey(key, opts) {
			continue
		}
		switch {
		case lo.Contains(dateFields, key):
			raw, _ := value.(string)
			channel[key] = FormatDate(raw, opts)
		default:
			if isScalar(value) {
				channel[key] = value
			}
		}
	}

	if !excluded("image", opts) {
		imageURL := ""
		if image, ok := info["image"].(map[string]any); ok {
			imageURL = stringValue(image["href"])
			if imageURL == "" {
				imageURL = stringValue(image["url"])
			}
		}
		if imageURL == "" {
			imageURL = stringValue(info["logo"])
		}
		if imageURL != "" {
			channel["image"] = imageURL
		}
	}

	return channel
}

// skipKey applies the single-pass key filter. Exclusion wins over inclusion
// for the same key.
func skipKey(key string, opts Options) bool {
	if len(opts.Inclusions) > 0 && !lo.Contains(opts.Inclusions, key) {
		return true
	}
	if strings.Contains(key, "parsed") {
		return true
	}
	if strings.HasSuffix(key, "_detail") || key == "detail" {
		return true
	}
	return lo.Contains(opts.Exclusions, key)
}

func excluded(key string, opts Options) bool {
	return lo.Contains(opts.Exclusions, key)
}

func isScalar(value any) bool {
	switch value.(type) {
	case string, bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	default:
		return false
	}
}

// entryImage probes for an image URL: media content tagged as image, then
// media thumbnails, then image enclosures, then the first <img> in the
// summary markup.
func entryImage(entry map[string]any) string {
	for _, item := range structureList(entry["media_content"]) {
		url := stringValue(item["url"])
		if url != "" && (stringValue(item["medium"]) == "image" ||
			strings.HasPrefix(stringValue(item["type"]), "image/")) {
			return url
		}
	}
	for _, item := range structureList(entry["media_thumbnail"]) {
		if url := stringValue(item["url"]); url != "" {
			return url
		}
	}
	for _, enclosure := range structureList(entry["enclosures"]) {
		url := stringValue(enclosure["href"])
		if url == "" {
			url = stringValue(enclosure["url"])
		}
		if url != "" && strings.HasPrefix(stringValue(enclosure["type"]), "image/") {
			return url
		}
	}
	if summary, ok := entry["summary"].(string); ok {
		if match := imageFindRegexp.FindStringSubmatch(summary); match != nil {
			return match[1]
		}
	}
	return ""
}

// entryAudio probes media content, then enclosures, for an audio/* URL.
func entryAudio(entry map[string]any) string {
	for _, item := range structureList(entry["media_content"]) {
		url := stringValue(item["url"])
		if url != "" && strings.HasPrefix(stringValue(item["type"]), "audio/") {
			return url
		}
	}
	for _, enclosure := range structureList(entry["enclosures"]) {
		url := stringValue(enclosure["href"])
		if url == "" {
			url = stringValue(enclosure["url"])
		}
		if url != "" && strings.HasPrefix(stringValue(enclosure["type"]), "audio/") {
			return url
		}
	}
	return ""
}

// entryLink returns the first href from the links sequence, or "".
func entryLink(entry map[string]any) string {
	links := structureList(entry["links"])
	if len(links) == 0 {
		return ""
	}
	return stringValue(links[0]["href"])
}

// structureList coerces a value into a list of string-keyed structures,
// tolerating absent or differently shaped input.
func structureList(value any) []map[string]any {
	items, ok := value.([]any)
	if !ok {
		if typed, ok := value.([]map[string]any); ok {
			return typed
		}
		return nil
	}
	return lo.FilterMap(items, func(item any, _ int) (map[string]any, bool) {
		structure, ok := item.(map[string]any)
		return structure, ok
	})
}

func stringValue(value any) string {
	s, _ := value.(string)
	return s
}
