// Package briefing assembles one notification message per kind: it fetches
// facts from the source adapters, filters already delivered news, asks the
// generator for a friendlier wording when one is configured, and falls back
// to the deterministic formatters otherwise.
package briefing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aucus/proactive-ai-bot/internal/ai"
	"github.com/aucus/proactive-ai-bot/internal/domain"
	"github.com/aucus/proactive-ai-bot/internal/state"
	"github.com/rs/zerolog"
)

// Kind is a notification kind.
type Kind string

const (
	KindWeather  Kind = "weather"
	KindCommute  Kind = "commute"
	KindNews     Kind = "news"
	KindSchedule Kind = "schedule"
	KindEvening  Kind = "evening"
	KindNight    Kind = "night"
	KindHealth   Kind = "health"
)

var kindLabels = map[Kind]string{
	KindWeather:  "날씨",
	KindCommute:  "출근",
	KindNews:     "뉴스",
	KindSchedule: "일정",
	KindEvening:  "퇴근",
	KindNight:    "프로젝트",
	KindHealth:   "헬스체크",
}

// Kinds lists every kind in trigger order.
func Kinds() []Kind {
	return []Kind{KindWeather, KindCommute, KindNews, KindSchedule, KindEvening, KindNight, KindHealth}
}

// ParseKind accepts a kind name; "project" is an alias for night.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "project" {
		return KindNight, nil
	}
	k := Kind(s)
	if _, ok := kindLabels[k]; !ok {
		return "", fmt.Errorf("unknown notification kind %q", s)
	}
	return k, nil
}

// Label is the Korean name used in user facing text.
func (k Kind) Label() string {
	if l, ok := kindLabels[k]; ok {
		return l
	}
	return string(k)
}

type WeatherSource interface {
	Current(ctx context.Context, loc domain.Location) *domain.WeatherFact
	Commute(ctx context.Context, home, office domain.Location) domain.CommuteWeather
}

type NewsSource interface {
	Fetch(ctx context.Context, categories []domain.Category, want int) []domain.NewsItem
}

type CalendarSource interface {
	Configured() bool
	Upcoming(ctx context.Context) []domain.CalendarEvent
	Evening(ctx context.Context) domain.EveningBriefing
}

type ProjectSource interface {
	Reminders(ctx context.Context) domain.ProjectReminders
}

// SeenStore is the dedup store for delivered news URLs.
type SeenStore interface {
	Load(ctx context.Context) (state.SeenSet, error)
	Record(ctx context.Context, urls []string) error
}

// Sink delivers one message.
type Sink interface {
	Send(ctx context.Context, text string) error
}

type Options struct {
	Weather  WeatherSource
	News     NewsSource
	Calendar CalendarSource
	Projects ProjectSource
	Seen     SeenStore
	Sink     Sink
	// Generator is optional; nil disables enrichment.
	Generator ai.Generator
	Health    func(ctx context.Context) HealthReport

	Location   domain.Location
	Home       domain.Location
	Office     domain.Location
	Categories []domain.Category
	BriefSize  int

	Now    func() time.Time
	Logger zerolog.Logger
}

// Briefing is one composed message.
type Briefing struct {
	Kind     Kind
	Text     string
	Enriched bool
	// URLs are the news links shown in Text.
	URLs []string
	// Stale is set when every fetched article had been delivered before.
	Stale bool
}

type Pipeline struct {
	opts Options
	log  zerolog.Logger
}

func New(opts Options) *Pipeline {
	// News never shows more than maxNewsItems, so selecting more would record
	// URLs that were not delivered.
	if opts.BriefSize <= 0 || opts.BriefSize > maxNewsItems {
		opts.BriefSize = maxNewsItems
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{opts: opts, log: opts.Logger}
}

// Compose builds the message for kind. It never fails: a panic anywhere in
// the fetch or format steps yields the apology text.
func (p *Pipeline) Compose(ctx context.Context, kind Kind) (b Briefing) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Str("kind", string(kind)).Interface("panic", r).Msg("composing briefing failed")
			b = Briefing{Kind: kind, Text: Apology(kind)}
		}
	}()

	switch kind {
	case KindWeather:
		return p.weather(ctx)
	case KindCommute:
		return p.commute(ctx)
	case KindNews:
		return p.ComposeNews(ctx, p.opts.Categories)
	case KindSchedule:
		return p.schedule(ctx)
	case KindEvening:
		return p.evening(ctx)
	case KindNight:
		return p.night(ctx)
	case KindHealth:
		return p.health(ctx)
	}
	panic(fmt.Sprintf("unhandled kind %q", kind))
}

// Run composes kind and delivers it exactly once. Delivered news URLs are
// recorded only after the sink accepted the message.
func (p *Pipeline) Run(ctx context.Context, kind Kind) (Briefing, error) {
	b := p.Compose(ctx, kind)
	if p.opts.Sink == nil {
		return b, fmt.Errorf("no delivery sink configured")
	}
	if err := p.opts.Sink.Send(ctx, b.Text); err != nil {
		p.log.Error().Err(err).Str("kind", string(kind)).Msg("delivery failed")
		return b, fmt.Errorf("delivering %s: %w", kind, err)
	}
	p.RecordDelivered(ctx, b)
	return b, nil
}

// RecordDelivered adds the news URLs of a delivered briefing to the dedup
// store. Failures are logged only.
func (p *Pipeline) RecordDelivered(ctx context.Context, b Briefing) {
	if b.Kind != KindNews || len(b.URLs) == 0 || p.opts.Seen == nil {
		return
	}
	if err := p.opts.Seen.Record(ctx, b.URLs); err != nil {
		p.log.Warn().Err(err).Int("urls", len(b.URLs)).Msg("recording delivered news failed")
	}
}

func (p *Pipeline) weather(ctx context.Context) Briefing {
	var fact *domain.WeatherFact
	if p.opts.Weather != nil {
		fact = p.opts.Weather.Current(ctx, p.opts.Location)
	}
	b := Briefing{Kind: KindWeather, Text: Weather(fact, p.opts.Location)}
	if fact == nil {
		return b
	}
	if text, ok := p.enrich(ctx, KindWeather, ai.WeatherPrompt(*fact)); ok {
		b.Text, b.Enriched = text, true
	}
	return b
}

func (p *Pipeline) commute(ctx context.Context) Briefing {
	c := domain.CommuteWeather{HomeLocation: p.opts.Home, OfficeLocation: p.opts.Office}
	if p.opts.Weather != nil {
		c = p.opts.Weather.Commute(ctx, p.opts.Home, p.opts.Office)
	}
	b := Briefing{Kind: KindCommute, Text: Commute(c)}
	if c.Home == nil && c.Office == nil {
		return b
	}
	if text, ok := p.enrich(ctx, KindCommute, ai.CommutePrompt(c)); ok {
		b.Text, b.Enriched = text, true
	}
	return b
}

// ComposeNews builds a news briefing for the given categories.
func (p *Pipeline) ComposeNews(ctx context.Context, categories []domain.Category) Briefing {
	want := p.opts.BriefSize
	var pool []domain.NewsItem
	if p.opts.News != nil {
		// over-fetch so there is something left after dropping seen items
		pool = p.opts.News.Fetch(ctx, categories, want*3)
	}

	items, stale := p.filterSeen(ctx, pool, want)
	b := Briefing{Kind: KindNews, Stale: stale}
	for i := range items {
		summary, enriched := p.summarize(ctx, items[i])
		items[i].Summary = summary
		b.Enriched = b.Enriched || enriched
		if items[i].URL != "" {
			b.URLs = append(b.URLs, items[i].URL)
		}
	}
	b.Text = News(items, stale)
	p.log.Info().Int("fetched", len(pool)).Int("selected", len(items)).Bool("stale", stale).Msg("news filtered")
	return b
}

// filterSeen drops delivered URLs and duplicate titles, keeping at most want
// items. When nothing new is left but the pool was not empty, already seen
// items are returned and stale is set.
func (p *Pipeline) filterSeen(ctx context.Context, pool []domain.NewsItem, want int) (items []domain.NewsItem, stale bool) {
	if len(pool) == 0 {
		return nil, false
	}

	var seen state.SeenSet
	if p.opts.Seen != nil {
		s, err := p.opts.Seen.Load(ctx)
		if err != nil {
			p.log.Warn().Err(err).Msg("loading seen urls failed, nothing filtered")
		}
		seen = s
	}

	items = pick(pool, want, func(it domain.NewsItem) bool { return !seen.Contains(it.URL) })
	if len(items) > 0 {
		return items, false
	}
	return pick(pool, want, func(domain.NewsItem) bool { return true }), true
}

func pick(pool []domain.NewsItem, want int, keep func(domain.NewsItem) bool) []domain.NewsItem {
	titles := make(map[string]bool, len(pool))
	var out []domain.NewsItem
	for _, it := range pool {
		if len(out) == want {
			break
		}
		key := normalizeTitle(it.Title)
		if titles[key] || !keep(it) {
			continue
		}
		titles[key] = true
		out = append(out, it)
	}
	return out
}

func normalizeTitle(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// summarize returns the item summary: generated from the description when
// possible, else an excerpt of it, else the title.
func (p *Pipeline) summarize(ctx context.Context, it domain.NewsItem) (string, bool) {
	if it.Summary != "" {
		return it.Summary, false
	}
	if it.Description == "" {
		return it.Title, false
	}
	if text, ok := p.enrich(ctx, KindNews, ai.SummarizePrompt(it.Description)); ok {
		return text, true
	}
	return excerpt(it.Description), false
}

// excerpt cuts a description to the summary length.
func excerpt(desc string) string {
	runes := []rune(desc)
	if len(runes) > maxSummaryRunes {
		return string(runes[:maxSummaryRunes]) + "..."
	}
	return desc
}

func (p *Pipeline) schedule(ctx context.Context) Briefing {
	var events []domain.CalendarEvent
	if p.opts.Calendar != nil {
		events = p.opts.Calendar.Upcoming(ctx)
	}
	b := Briefing{Kind: KindSchedule, Text: Schedule(events)}
	if !hasImportant(events) {
		return b
	}
	if text, ok := p.enrich(ctx, KindSchedule, ai.SchedulePrompt(events)); ok {
		b.Text, b.Enriched = text, true
	}
	return b
}

func hasImportant(events []domain.CalendarEvent) bool {
	for _, e := range events {
		if e.Important {
			return true
		}
	}
	return false
}

func (p *Pipeline) evening(ctx context.Context) Briefing {
	var eb domain.EveningBriefing
	if p.opts.Calendar != nil {
		eb = p.opts.Calendar.Evening(ctx)
	}
	eb.Recommendations = DefaultRecommendations()
	b := Briefing{Kind: KindEvening, Text: Evening(eb)}
	if !eb.HasPlans() {
		return b
	}
	if text, ok := p.enrich(ctx, KindEvening, ai.EveningPrompt(eb)); ok {
		b.Text, b.Enriched = withTail(text, b.Text)
	}
	return b
}

func (p *Pipeline) night(ctx context.Context) Briefing {
	var r domain.ProjectReminders
	if p.opts.Projects != nil {
		r = p.opts.Projects.Reminders(ctx)
	}
	b := Briefing{Kind: KindNight, Text: Project(r)}
	if !r.HasProjects() {
		return b
	}
	if text, ok := p.enrich(ctx, KindNight, ai.ProjectPrompt(r)); ok {
		b.Text, b.Enriched = withTail(text, b.Text)
	}
	return b
}

// withTail prefixes the deterministic body (everything after its header
// block) with the generated text. Without a blank line to split on the
// deterministic text is kept as is.
func withTail(generated, deterministic string) (string, bool) {
	i := strings.Index(deterministic, "\n\n")
	if i < 0 {
		return deterministic, false
	}
	return generated + "\n\n" + deterministic[i+2:], true
}

func (p *Pipeline) health(ctx context.Context) Briefing {
	r := HealthReport{At: p.opts.Now()}
	if p.opts.Health != nil {
		r = p.opts.Health(ctx)
	}
	return Briefing{Kind: KindHealth, Text: Health(r)}
}

// enrich asks the generator once. Any failure falls through to the
// deterministic text.
func (p *Pipeline) enrich(ctx context.Context, kind Kind, prompt string) (string, bool) {
	if p.opts.Generator == nil {
		return "", false
	}
	text, err := p.opts.Generator.Generate(ctx, prompt)
	if err != nil {
		p.log.Warn().Err(err).Str("kind", string(kind)).Msg("enrichment failed, using fallback format")
		return "", false
	}
	text = strings.TrimSpace(text)
	return text, text != ""
}
