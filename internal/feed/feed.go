package feed

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
)

// Entry is one feed item with its description reduced to plain text.
type Entry struct {
	Title       string
	Link        string
	Description string
	Publisher   string
	Published   time.Time
}

type Fetcher interface {
	Fetch(ctx context.Context, url string, since time.Time) ([]Entry, error)
}

type RSSFetcher struct {
	parser *gofeed.Parser
	strict *bluemonday.Policy
	now    func() time.Time
}

func NewRSSFetcher(timeout time.Duration) *RSSFetcher {
	p := gofeed.NewParser()
	p.Client = &http.Client{Timeout: timeout}
	return &RSSFetcher{parser: p, strict: bluemonday.StrictPolicy(), now: time.Now}
}

// Fetch parses the feed at url. Entries published before since are skipped;
// a zero since keeps everything. Entries without a date count as fresh.
func (f *RSSFetcher) Fetch(ctx context.Context, url string, since time.Time) ([]Entry, error) {
	parsed, err := f.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}

	now := f.now()
	entries := make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		pub := now
		if item.PublishedParsed != nil {
			pub = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			pub = *item.UpdatedParsed
		}
		if !since.IsZero() && pub.Before(since) {
			continue
		}

		raw := item.Description
		if raw == "" {
			raw = item.Content
		}
		title := strings.TrimSpace(item.Title)
		publisher := publisherOf(raw, title)
		desc := f.stripHTML(raw)
		// Aggregator descriptions only repeat the headline and publisher
		if desc != "" && strings.HasPrefix(desc, trimPublisher(title, publisher)) {
			desc = ""
		}

		entries = append(entries, Entry{
			Title:       title,
			Link:        item.Link,
			Description: Truncate(desc, 500),
			Publisher:   publisher,
			Published:   pub,
		})
	}
	return entries, nil
}

func (f *RSSFetcher) stripHTML(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(f.strict.Sanitize(s))), " ")
}

// publisherOf reads the publisher from a Google News style description
// (<font>Publisher</font>), then from a trailing " - Publisher" in the title.
func publisherOf(description, title string) string {
	if strings.Contains(description, "<") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(description))
		if err == nil {
			if name := strings.TrimSpace(doc.Find("font").Last().Text()); name != "" {
				return name
			}
		}
	}
	if i := strings.LastIndex(title, " - "); i > 0 {
		return strings.TrimSpace(title[i+3:])
	}
	return ""
}

// trimPublisher drops a trailing " - Publisher" from an aggregator title.
func trimPublisher(title, publisher string) string {
	if publisher == "" {
		return title
	}
	return strings.TrimSpace(strings.TrimSuffix(title, " - "+publisher))
}

// Headline derives a single-line display title of at most 40 characters.
func Headline(title, publisher string) string {
	line := title
	if i := strings.IndexAny(line, "\r\n"); i >= 0 {
		line = line[:i]
	}
	return Truncate(trimPublisher(strings.TrimSpace(line), publisher), 40)
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
