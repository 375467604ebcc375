// Package news collects candidate articles from NewsAPI with a Google News
// RSS fallback.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aucus/proactive-ai-bot/internal/classify"
	"github.com/aucus/proactive-ai-bot/internal/domain"
	"github.com/aucus/proactive-ai-bot/internal/feed"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const (
	defaultBaseURL = "https://newsapi.org"
	perTopicAPI    = 3
	perTopicRSS    = 2
	recentWindow   = 24 * time.Hour
)

// apiQueries and GoogleNewsFeeds are keyed by category; topicOrder is the
// order they are tried in.
var (
	topicOrder = []domain.Category{domain.CategoryAI, domain.CategoryTech, domain.CategoryEdTech}

	apiQueries = map[domain.Category]string{
		domain.CategoryAI:     "AI",
		domain.CategoryTech:   "technology",
		domain.CategoryEdTech: "edtech",
	}

	GoogleNewsFeeds = map[domain.Category]string{
		domain.CategoryAI:     "https://news.google.com/rss/search?q=artificial+intelligence+machine+learning&hl=ko&gl=KR&ceid=KR:ko",
		domain.CategoryTech:   "https://news.google.com/rss/search?q=technology+tech+industry&hl=ko&gl=KR&ceid=KR:ko",
		domain.CategoryEdTech: "https://news.google.com/rss/search?q=edtech+education+technology&hl=ko&gl=KR&ceid=KR:ko",
	}
)

type Options struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	RSS     feed.Fetcher
	Feeds   map[domain.Category]string
	Now     func() time.Time
	Logger  zerolog.Logger
}

type Source struct {
	client *resty.Client
	apiKey string
	rss    feed.Fetcher
	feeds  map[domain.Category]string
	now    func() time.Time
	log    zerolog.Logger
}

func New(opts Options) *Source {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RSS == nil {
		opts.RSS = feed.NewRSSFetcher(opts.Timeout)
	}
	if opts.Feeds == nil {
		opts.Feeds = GoogleNewsFeeds
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	c := resty.New().
		SetBaseURL(opts.BaseURL).
		SetHeader("Accept", "application/json").
		SetTimeout(opts.Timeout)
	return &Source{
		client: c,
		apiKey: opts.APIKey,
		rss:    opts.RSS,
		feeds:  opts.Feeds,
		now:    opts.Now,
		log:    opts.Logger,
	}
}

// Fetch returns unique candidate items for the requested categories, trying
// the API first and stopping once want items were collected. An empty
// category list means every topic. Never fails; problems are logged.
func (s *Source) Fetch(ctx context.Context, categories []domain.Category, want int) []domain.NewsItem {
	topics := selectTopics(categories)

	var all []domain.NewsItem
	if s.apiKey != "" {
		for _, topic := range topics {
			items, err := s.fromAPI(ctx, apiQueries[topic], perTopicAPI)
			if err != nil {
				s.log.Warn().Err(err).Str("topic", string(topic)).Msg("news api unavailable")
				continue
			}
			all = append(all, items...)
			if len(all) >= want {
				break
			}
		}
	} else {
		s.log.Debug().Msg("news api key not set, using rss")
	}

	if len(all) == 0 {
		all = s.fromRSS(ctx, topics, s.now().Add(-recentWindow), want)
	}
	if len(all) == 0 {
		all = s.fromRSS(ctx, topics, time.Time{}, want)
	}

	items := dedupByTitle(all)
	s.log.Info().Int("fetched", len(all)).Int("unique", len(items)).Msg("news collected")
	return items
}

func selectTopics(categories []domain.Category) []domain.Category {
	if len(categories) == 0 {
		return topicOrder
	}
	wanted := make(map[domain.Category]bool, len(categories))
	for _, c := range categories {
		wanted[c] = true
	}
	var out []domain.Category
	for _, t := range topicOrder {
		if wanted[t] {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return topicOrder
	}
	return out
}

type apiResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

func (s *Source) fromAPI(ctx context.Context, query string, limit int) ([]domain.NewsItem, error) {
	from := s.now().Add(-recentWindow).Format("2006-01-02")
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":        query,
			"apiKey":   s.apiKey,
			"language": "ko",
			"sortBy":   "publishedAt",
			"from":     from,
			"pageSize": fmt.Sprint(limit),
		}).
		Get("/v2/everything")
	if err != nil {
		return nil, fmt.Errorf("news api request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("news api status %d: %s", resp.StatusCode(), feed.Truncate(resp.String(), 200))
	}

	var ar apiResponse
	if err := json.Unmarshal(resp.Body(), &ar); err != nil {
		return nil, fmt.Errorf("decode news api response: %w", err)
	}
	if ar.Status != "" && ar.Status != "ok" {
		return nil, fmt.Errorf("news api: %s", ar.Message)
	}

	items := make([]domain.NewsItem, 0, limit)
	for i, a := range ar.Articles {
		if i >= limit {
			break
		}
		source := a.Source.Name
		if source == "" {
			source = "Unknown"
		}
		published, _ := time.Parse(time.RFC3339, a.PublishedAt)
		items = append(items, newItem(a.Title, a.Description, a.URL, source, published))
	}
	return items, nil
}

func (s *Source) fromRSS(ctx context.Context, topics []domain.Category, since time.Time, want int) []domain.NewsItem {
	var out []domain.NewsItem
	for _, topic := range topics {
		url, ok := s.feeds[topic]
		if !ok {
			continue
		}
		entries, err := s.rss.Fetch(ctx, url, since)
		if err != nil {
			s.log.Warn().Err(err).Str("topic", string(topic)).Msg("rss feed unavailable")
			continue
		}
		for i, e := range entries {
			if i >= perTopicRSS {
				break
			}
			source := e.Publisher
			if source == "" {
				source = "Google News"
			}
			out = append(out, newItem(e.Title, e.Description, e.Link, source, e.Published))
		}
		if len(out) >= want {
			break
		}
	}
	return out
}

func newItem(title, description, url, source string, published time.Time) domain.NewsItem {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	return domain.NewsItem{
		Title:       title,
		Headline:    feed.Headline(title, source),
		Description: description,
		URL:         url,
		Source:      source,
		PublishedAt: published,
		Category:    classify.Classify(title, description),
	}
}

// dedupByTitle keeps the first item per case-insensitive title and drops
// titles of ten characters or fewer.
func dedupByTitle(items []domain.NewsItem) []domain.NewsItem {
	seen := make(map[string]bool, len(items))
	out := make([]domain.NewsItem, 0, len(items))
	for _, it := range items {
		key := strings.ToLower(it.Title)
		if len([]rune(key)) <= 10 || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, it)
	}
	return out
}
