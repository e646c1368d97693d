package shape

import (
	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
	"github.com/samber/lo"
)

// EntryMap flattens a gofeed item into the generic mapping Entry consumes.
// Key names follow the conventional feed vocabulary (summary, links,
// enclosures, media_content, ...); *_parsed keys carry the library's parsed
// times and are filtered out again by the shaping pass.
func EntryMap(item *gofeed.Item) map[string]any {
	entry := make(map[string]any)

	setString(entry, "title", item.Title)
	setString(entry, "link", item.Link)
	setString(entry, "id", item.GUID)
	setString(entry, "summary", item.Description)
	setString(entry, "content", item.Content)
	setString(entry, "published", item.Published)
	setString(entry, "updated", item.Updated)
	if item.Author != nil {
		setString(entry, "author", item.Author.Name)
	}
	if item.PublishedParsed != nil {
		entry["published_parsed"] = *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		entry["updated_parsed"] = *item.UpdatedParsed
	}

	if len(item.Links) > 0 {
		entry["links"] = lo.Map(item.Links, func(link string, _ int) any {
			return map[string]any{"href": link}
		})
	}
	if item.Image != nil && item.Image.URL != "" {
		entry["image"] = map[string]any{"href": item.Image.URL}
	}
	if len(item.Enclosures) > 0 {
		entry["enclosures"] = lo.Map(item.Enclosures, func(enclosure *gofeed.Enclosure, _ int) any {
			return map[string]any{
				"href":   enclosure.URL,
				"type":   enclosure.Type,
				"length": enclosure.Length,
			}
		})
	}
	if len(item.Categories) > 0 {
		entry["tags"] = lo.Map(item.Categories, func(category string, _ int) any {
			return map[string]any{"term": category}
		})
	}

	if media, ok := item.Extensions["media"]; ok {
		if content := mediaItems(media["content"]); len(content) > 0 {
			entry["media_content"] = content
		}
		if thumbnails := mediaItems(media["thumbnail"]); len(thumbnails) > 0 {
			entry["media_thumbnail"] = thumbnails
		}
	}

	for key, value := range item.Custom {
		if _, exists := entry[key]; !exists {
			entry[key] = value
		}
	}

	return entry
}

// ChannelMap flattens gofeed feed-level metadata for ChannelInfo.
func ChannelMap(feed *gofeed.Feed) map[string]any {
	info := make(map[string]any)

	setString(info, "title", feed.Title)
	setString(info, "subtitle", feed.Description)
	setString(info, "link", feed.Link)
	setString(info, "language", feed.Language)
	setString(info, "published", feed.Published)
	setString(info, "updated", feed.Updated)
	setString(info, "generator", feed.Generator)
	setString(info, "rights", feed.Copyright)
	if feed.Author != nil {
		setString(info, "author", feed.Author.Name)
	}
	if feed.PublishedParsed != nil {
		info["published_parsed"] = *feed.PublishedParsed
	}
	if feed.UpdatedParsed != nil {
		info["updated_parsed"] = *feed.UpdatedParsed
	}

	if len(feed.Links) > 0 {
		info["links"] = lo.Map(feed.Links, func(link string, _ int) any {
			return map[string]any{"href": link}
		})
	}
	if feed.Image != nil && feed.Image.URL != "" {
		info["image"] = map[string]any{"href": feed.Image.URL, "title": feed.Image.Title}
	}

	for key, value := range feed.Custom {
		if _, exists := info[key]; !exists {
			info[key] = value
		}
	}

	return info
}

func mediaItems(extensions []ext.Extension) []any {
	return lo.FilterMap(extensions, func(extension ext.Extension, _ int) (any, bool) {
		item := make(map[string]any)
		for _, attr := range []string{"url", "medium", "type", "width", "height"} {
			if value, ok := extension.Attrs[attr]; ok && value != "" {
				item[attr] = value
			}
		}
		return item, len(item) > 0
	})
}

func setString(target map[string]any, key, value string) {
	if value != "" {
		target[key] = value
	}
}
