package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gcal "google.golang.org/api/calendar/v3"
)

var kst = time.FixedZone("KST", 9*60*60)

type fakeLister struct {
	byDay map[string][]*gcal.Event
	err   error
	calls int
}

func (f *fakeLister) List(_ context.Context, timeMin, _ time.Time) ([]*gcal.Event, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.byDay[timeMin.Format("2006-01-02")], nil
}

func timed(title, start string) *gcal.Event {
	return &gcal.Event{Summary: title, Start: &gcal.EventDateTime{DateTime: start}}
}

func allDay(title, date string) *gcal.Event {
	return &gcal.Event{Summary: title, Start: &gcal.EventDateTime{Date: date}}
}

func newSource(l EventLister, now time.Time) *Source {
	return New(context.Background(), Options{
		Lister:   l,
		Location: kst,
		Now:      func() time.Time { return now },
		Logger:   zerolog.Nop(),
	})
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		ev        *gcal.Event
		label     string
		allDay    bool
		important bool
	}{
		{"timed utc converted", timed("팀 회의", "2026-03-02T01:30:00Z"), "10:30", false, true},
		{"timed with offset", timed("Lunch", "2026-03-02T12:00:00+09:00"), "12:00", false, false},
		{"all day", allDay("휴가", "2026-03-02"), "하루 종일", true, false},
		{"no start", &gcal.Event{Summary: "Someday"}, "시간 미정", false, false},
		{"unparsable", timed("Odd", "tomorrow-ish"), "tomorrow-ish", false, false},
		{"keyword in description", &gcal.Event{Summary: "Sync", Description: "Quarterly REVIEW", Start: &gcal.EventDateTime{DateTime: "2026-03-02T09:00:00+09:00"}}, "09:00", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.ev, kst)
			assert.Equal(t, tt.label, got.TimeLabel)
			assert.Equal(t, tt.allDay, got.AllDay)
			assert.Equal(t, tt.important, got.Important)
		})
	}
}

func TestNormalizeUntitled(t *testing.T) {
	got := Normalize(&gcal.Event{End: &gcal.EventDateTime{Date: "2026-03-03"}}, kst)
	assert.Equal(t, "제목 없음", got.Title)
	assert.Equal(t, "2026-03-03", got.End)
}

func TestUpcoming(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, kst)
	l := &fakeLister{byDay: map[string][]*gcal.Event{
		"2026-03-02": {
			timed("early standup", "2026-03-02T08:30:00+09:00"),
			timed("just started", "2026-03-02T09:00:00+09:00"),
			timed("later", "2026-03-02T14:00:00+09:00"),
			allDay("holiday", "2026-03-02"),
			timed("weird", "not a time"),
		},
	}}

	events := newSource(l, now).Upcoming(context.Background())

	var titles []string
	for _, ev := range events {
		titles = append(titles, ev.Title)
	}
	assert.Equal(t, []string{"just started", "later", "holiday", "weird"}, titles)
}

func TestEvening(t *testing.T) {
	now := time.Date(2026, 3, 2, 21, 0, 0, 0, kst)
	l := &fakeLister{byDay: map[string][]*gcal.Event{
		"2026-03-02": {
			timed("afternoon", "2026-03-02T17:59:00+09:00"),
			timed("dinner", "2026-03-02T18:00:00+09:00"),
			allDay("anniversary", "2026-03-02"),
			timed("weird", "not a time"),
		},
		"2026-03-03": {
			timed("design review", "2026-03-03T10:00:00+09:00"),
			timed("coffee", "2026-03-03T11:00:00+09:00"),
			timed("client meeting", "2026-03-03T13:00:00+09:00"),
			timed("deadline day", "2026-03-03T15:00:00+09:00"),
			timed("another conference", "2026-03-03T16:00:00+09:00"),
		},
	}}

	b := newSource(l, now).Evening(context.Background())

	require.Len(t, b.EveningEvents, 2)
	assert.Equal(t, "dinner", b.EveningEvents[0].Title)
	assert.Equal(t, "anniversary", b.EveningEvents[1].Title)
	require.Len(t, b.TomorrowPreview, 3)
	assert.Equal(t, "design review", b.TomorrowPreview[0].Title)
	assert.Equal(t, "deadline day", b.TomorrowPreview[2].Title)
}

func TestTodayWindowUsesLocalDay(t *testing.T) {
	// 23:30 UTC on the 1st is already the 2nd in Seoul
	now := time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)
	l := &fakeLister{byDay: map[string][]*gcal.Event{
		"2026-03-02": {timed("morning", "2026-03-02T09:00:00+09:00")},
	}}
	assert.Len(t, newSource(l, now).Today(context.Background()), 1)
}

func TestListerErrorYieldsNoEvents(t *testing.T) {
	l := &fakeLister{err: errors.New("403 forbidden")}
	s := newSource(l, time.Now())
	assert.Empty(t, s.Upcoming(context.Background()))
	assert.False(t, s.Evening(context.Background()).HasPlans())
}

func TestUnconfiguredSourceSkipsNetwork(t *testing.T) {
	s := New(context.Background(), Options{ClientID: "id", Logger: zerolog.Nop()})
	assert.False(t, s.Configured())
	assert.Empty(t, s.Upcoming(context.Background()))
	assert.Empty(t, s.Evening(context.Background()).TomorrowPreview)
}

func TestGoogleListerRefreshesToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "refresh", r.PostForm.Get("refresh_token"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"access","token_type":"Bearer","expires_in":3600}`)
	})
	mux.HandleFunc("/calendar/v3/calendars/primary/events", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer access", r.Header.Get("Authorization"))
		assert.Equal(t, "true", r.URL.Query().Get("singleEvents"))
		assert.Equal(t, "startTime", r.URL.Query().Get("orderBy"))
		assert.Equal(t, "20", r.URL.Query().Get("maxResults"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"items":[{"summary":"1:1 meeting","start":{"dateTime":"2026-03-02T11:00:00+09:00"}}]}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := New(context.Background(), Options{
		ClientID:     "id",
		ClientSecret: "secret",
		RefreshToken: "refresh",
		TokenURL:     srv.URL + "/token",
		Endpoint:     srv.URL + "/calendar/v3/",
		Location:     kst,
		Now:          func() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, kst) },
		Logger:       zerolog.Nop(),
	})
	require.True(t, s.Configured())

	events := s.Today(context.Background())
	require.Len(t, events, 1)
	assert.Equal(t, "11:00", events[0].TimeLabel)
	assert.True(t, events[0].Important)
}
