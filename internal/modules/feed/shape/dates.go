package shape

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/araddon/dateparse"
)

// rfc822Layouts cover the RFC-822/RFC-1123 date variants feeds actually use,
// with and without day-of-week, numeric and named zones.
var rfc822Layouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 2 Jan 2006 15:04 -0700",
	"2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 MST",
	time.RFC822Z,
	time.RFC822,
}

// ParseDate parses a feed date string. RFC-822-style layouts are tried
// first, then a flexible parser; if both fail the current time is used, so
// a malformed pubDate never propagates as an error. Values without timezone
// information are assumed UTC, zones without a name get a fixed-offset name,
// and the result is converted to local time or UTC per the flag.
func ParseDate(raw string, localTime bool) time.Time {
	parsed, ok := parseRFC822(raw)
	if !ok {
		var err error
		parsed, err = dateparse.ParseAny(raw)
		if err != nil {
			slog.Warn("Unable to parse date, using current time as fallback", "date", raw, "error", err)
			parsed = time.Now().UTC()
		}
	}

	// time.Parse yields UTC for zone-less layouts, which matches the
	// assume-UTC rule. Normalize unnamed zones to a fixed-offset zone.
	if name, offset := parsed.Zone(); name == "" {
		parsed = parsed.In(time.FixedZone(offsetZoneName(offset), offset))
	}

	if localTime {
		return parsed.Local()
	}
	return parsed.UTC()
}

// FormatDate parses raw and renders it with the configured layout.
func FormatDate(raw string, opts Options) string {
	return ParseDate(raw, opts.LocalTime).Format(opts.DateFormat)
}

func parseRFC822(raw string) (time.Time, bool) {
	for _, layout := range rfc822Layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func offsetZoneName(offset int) string {
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	return fmt.Sprintf("UTC%s%02d:%02d", sign, offset/3600, (offset%3600)/60)
}
