package state

import (
	"context"
	"errors"
	"testing"

	"github.com/aucus/proactive-ai-bot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsDefaultsWhenMissing(t *testing.T) {
	s, err := NewSettingsStore(newMemStore()).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)
	assert.True(t, s.Notifications.Enabled("weather"))
	assert.Equal(t, "07:00", s.NotificationTimes.Weather)
}

func TestSettingsMergeOverDefaults(t *testing.T) {
	store := newMemStore()
	store.blobs[SettingsHandle] = []byte(`{"notifications": {"news": false}, "location": {"city": "Busan"}}`)

	s, err := NewSettingsStore(store).Load(context.Background())
	require.NoError(t, err)

	assert.False(t, s.Notifications.News)
	assert.True(t, s.Notifications.Weather, "unset keys keep their default")
	assert.True(t, s.Notifications.Night)
	assert.Equal(t, "Busan", s.Location.City)
	assert.Equal(t, "KR", s.Location.CountryCode)
	assert.Equal(t, "Busan", s.Location.Label(), "default display name must not leak onto another city")
	assert.Equal(t, []domain.Category{domain.CategoryAI, domain.CategoryTech, domain.CategoryEdTech}, s.NewsCategories)
	assert.Equal(t, "21:00", s.NotificationTimes.Night)
}

func TestSettingsLoadErrorReturnsDefaults(t *testing.T) {
	store := newMemStore()
	store.loadErr = errors.New("timeout")

	s, err := NewSettingsStore(store).Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, DefaultSettings(), s)
}

func TestSettingsCorruptReturnsDefaults(t *testing.T) {
	store := newMemStore()
	store.blobs[SettingsHandle] = []byte(`{"notifications": {"news": fals`)

	s, err := NewSettingsStore(store).Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, DefaultSettings(), s)
}

func TestSettingsSaveRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewSettingsStore(newMemStore())

	want := DefaultSettings()
	want.Notifications.Evening = false
	want.NewsCategories = []domain.Category{domain.CategoryAI}
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestNotificationsEnabled(t *testing.T) {
	n := Notifications{Night: false, Weather: true}
	assert.False(t, n.Enabled("project"))
	assert.False(t, n.Enabled("night"))
	assert.True(t, n.Enabled("weather"))
	assert.False(t, n.Enabled("commute"))
	assert.True(t, n.Enabled("health"))
}
