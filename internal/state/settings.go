package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aucus/proactive-ai-bot/internal/domain"
)

// SettingsHandle names the settings blob.
const SettingsHandle = "settings.json"

type Notifications struct {
	Weather  bool `json:"weather"`
	News     bool `json:"news"`
	Schedule bool `json:"schedule"`
	Evening  bool `json:"evening"`
	Night    bool `json:"night"`
	Commute  bool `json:"commute"`
}

// Enabled reports whether the named kind may be sent. Unknown kinds are
// always enabled.
func (n Notifications) Enabled(kind string) bool {
	switch kind {
	case "weather":
		return n.Weather
	case "news":
		return n.News
	case "schedule":
		return n.Schedule
	case "evening":
		return n.Evening
	case "night", "project":
		return n.Night
	case "commute":
		return n.Commute
	default:
		return true
	}
}

type NotificationTimes struct {
	Weather  string `json:"weather"`
	News     string `json:"news"`
	Schedule string `json:"schedule"`
	Evening  string `json:"evening"`
	Night    string `json:"night"`
}

type Settings struct {
	Notifications     Notifications     `json:"notifications"`
	NewsCategories    []domain.Category `json:"news_categories"`
	Location          domain.Location   `json:"location"`
	NotificationTimes NotificationTimes `json:"notification_times"`
}

func DefaultSettings() Settings {
	return Settings{
		Notifications: Notifications{
			Weather: true, News: true, Schedule: true, Evening: true, Night: true, Commute: true,
		},
		NewsCategories: []domain.Category{domain.CategoryAI, domain.CategoryTech, domain.CategoryEdTech},
		Location:       domain.Location{City: "Seoul", CountryCode: "KR", DisplayName: "서울"},
		NotificationTimes: NotificationTimes{
			Weather: "07:00", News: "08:00", Schedule: "09:30", Evening: "18:00", Night: "21:00",
		},
	}
}

// SettingsStore reads the settings blob over the defaults, so keys missing
// from the stored document keep their default value.
type SettingsStore struct {
	store  Store
	handle string
}

func NewSettingsStore(store Store) *SettingsStore {
	return &SettingsStore{store: store, handle: SettingsHandle}
}

// Load always returns usable settings; the error reports why the defaults
// (or part of them) were used.
func (s *SettingsStore) Load(ctx context.Context) (Settings, error) {
	settings := DefaultSettings()
	if s == nil || s.store == nil {
		return settings, nil
	}

	data, err := s.store.Load(ctx, s.handle)
	if errors.Is(err, ErrNotFound) {
		return settings, nil
	}
	if err != nil {
		return settings, fmt.Errorf("loading settings: %w", err)
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		return DefaultSettings(), fmt.Errorf("decoding settings: %w", err)
	}

	// A stored city without its own display name must not inherit the
	// default city's label.
	var stored struct {
		Location *struct {
			City        *string `json:"city"`
			DisplayName *string `json:"display_name"`
		} `json:"location"`
	}
	if json.Unmarshal(data, &stored) == nil && stored.Location != nil &&
		stored.Location.City != nil && stored.Location.DisplayName == nil {
		settings.Location.DisplayName = ""
	}
	return settings, nil
}

func (s *SettingsStore) Save(ctx context.Context, settings Settings) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := s.store.Save(ctx, s.handle, data); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	return nil
}
