// Package calendar reads the user's Google Calendar and normalizes events
// into KST-based records.
package calendar

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aucus/proactive-ai-bot/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const (
	defaultTokenURL = "https://oauth2.googleapis.com/token"
	maxResults      = 20
	eveningHour     = 18
	tomorrowCap     = 3
)

var importantKeywords = []string{
	"회의", "미팅", "meeting", "conference",
	"데드라인", "deadline", "due",
	"프레젠테이션", "presentation",
	"리뷰", "review",
}

// EventLister returns raw events in [timeMin, timeMax).
type EventLister interface {
	List(ctx context.Context, timeMin, timeMax time.Time) ([]*gcal.Event, error)
}

type Options struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	CalendarID   string

	// TokenURL and Endpoint override the Google endpoints.
	TokenURL string
	Endpoint string

	Timeout  time.Duration
	Location *time.Location
	Now      func() time.Time
	Logger   zerolog.Logger

	// Lister replaces the Google client entirely.
	Lister EventLister
}

type Source struct {
	lister  EventLister
	loc     *time.Location
	now     func() time.Time
	timeout time.Duration
	log     zerolog.Logger
}

// New builds the calendar source. Without all three OAuth credentials the
// source is unconfigured and every call returns no events without touching
// the network.
func New(ctx context.Context, opts Options) *Source {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	s := &Source{loc: opts.Location, now: opts.Now, timeout: opts.Timeout, log: opts.Logger}

	switch {
	case opts.Lister != nil:
		s.lister = opts.Lister
	case opts.ClientID != "" && opts.ClientSecret != "" && opts.RefreshToken != "":
		l, err := newGoogleLister(ctx, opts)
		if err != nil {
			s.log.Warn().Err(err).Msg("calendar client unavailable")
			break
		}
		s.lister = l
	default:
		s.log.Debug().Msg("google oauth credentials not configured")
	}
	return s
}

func (s *Source) Configured() bool {
	return s.lister != nil
}

// Today returns every event of the current KST day.
func (s *Source) Today(ctx context.Context) []domain.CalendarEvent {
	start := midnight(s.now().In(s.loc))
	return s.events(ctx, start, start.AddDate(0, 0, 1))
}

// Tomorrow returns every event of the next KST day.
func (s *Source) Tomorrow(ctx context.Context) []domain.CalendarEvent {
	start := midnight(s.now().In(s.loc)).AddDate(0, 0, 1)
	return s.events(ctx, start, start.AddDate(0, 0, 1))
}

// Upcoming returns today's events that start no earlier than an hour ago.
// All-day events, events without a start and events whose start cannot be
// parsed are kept.
func (s *Source) Upcoming(ctx context.Context) []domain.CalendarEvent {
	cutoff := s.now().In(s.loc).Add(-time.Hour)
	var out []domain.CalendarEvent
	for _, ev := range s.Today(ctx) {
		if !ev.At.IsZero() && ev.At.Before(cutoff) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// Evening returns today's events from 18:00 on (plus all-day events) and up
// to three important events of tomorrow.
func (s *Source) Evening(ctx context.Context) domain.EveningBriefing {
	evening := midnight(s.now().In(s.loc)).Add(eveningHour * time.Hour)

	var b domain.EveningBriefing
	for _, ev := range s.Today(ctx) {
		switch {
		case ev.AllDay:
			b.EveningEvents = append(b.EveningEvents, ev)
		case !ev.At.IsZero() && !ev.At.Before(evening):
			b.EveningEvents = append(b.EveningEvents, ev)
		}
	}
	for _, ev := range s.Tomorrow(ctx) {
		if ev.Important && len(b.TomorrowPreview) < tomorrowCap {
			b.TomorrowPreview = append(b.TomorrowPreview, ev)
		}
	}
	return b
}

func (s *Source) events(ctx context.Context, from, to time.Time) []domain.CalendarEvent {
	if s.lister == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.lister.List(ctx, from, to)
	if err != nil {
		s.log.Warn().Err(err).Time("from", from).Msg("calendar unavailable")
		return nil
	}
	out := make([]domain.CalendarEvent, 0, len(raw))
	for _, ev := range raw {
		if ev == nil {
			continue
		}
		out = append(out, Normalize(ev, s.loc))
	}
	s.log.Info().Int("events", len(out)).Time("from", from).Msg("calendar events retrieved")
	return out
}

// Normalize converts a Google event. Timed events get an HH:MM label in loc,
// date-only events "하루 종일", events without a start "시간 미정"; a start
// that cannot be parsed is shown as-is.
func Normalize(ev *gcal.Event, loc *time.Location) domain.CalendarEvent {
	out := domain.CalendarEvent{
		Title:       ev.Summary,
		Location:    ev.Location,
		Description: ev.Description,
		Important:   isImportant(ev.Summary, ev.Description),
	}
	if out.Title == "" {
		out.Title = "제목 없음"
	}

	if ev.Start != nil {
		if ev.Start.DateTime != "" {
			out.Start = ev.Start.DateTime
		} else if ev.Start.Date != "" {
			out.Start = ev.Start.Date
			out.AllDay = true
		}
	}
	if ev.End != nil {
		out.End = ev.End.DateTime
		if out.End == "" {
			out.End = ev.End.Date
		}
	}

	switch {
	case out.Start == "":
		out.TimeLabel = "시간 미정"
	case out.AllDay:
		out.TimeLabel = "하루 종일"
	default:
		t, err := time.Parse(time.RFC3339, out.Start)
		if err != nil {
			out.TimeLabel = out.Start
			break
		}
		out.At = t.In(loc)
		out.TimeLabel = out.At.Format("15:04")
	}
	return out
}

func isImportant(title, description string) bool {
	text := strings.ToLower(title + " " + description)
	for _, kw := range importantKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

type googleLister struct {
	svc        *gcal.Service
	calendarID string
}

func newGoogleLister(ctx context.Context, opts Options) (*googleLister, error) {
	tokenURL := opts.TokenURL
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}
	conf := &oauth2.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   "https://accounts.google.com/o/oauth2/auth",
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		Scopes: []string{gcal.CalendarReadonlyScope},
	}
	// The refresh exchange runs on its own client so it honours the timeout.
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: opts.Timeout})
	ts := conf.TokenSource(tokenCtx, &oauth2.Token{RefreshToken: opts.RefreshToken})

	clientOpts := []option.ClientOption{option.WithTokenSource(ts)}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}
	svc, err := gcal.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating calendar service: %w", err)
	}

	id := opts.CalendarID
	if id == "" {
		id = "primary"
	}
	return &googleLister{svc: svc, calendarID: id}, nil
}

func (g *googleLister) List(ctx context.Context, timeMin, timeMax time.Time) ([]*gcal.Event, error) {
	res, err := g.svc.Events.List(g.calendarID).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return res.Items, nil
}
