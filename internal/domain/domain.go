// Package domain holds the normalized fact records produced by the source
// adapters and consumed by the briefing formatters.
package domain

import "time"

// Location is a named place the weather adapter can resolve.
type Location struct {
	City        string `yaml:"city" json:"city"`
	CountryCode string `yaml:"country_code" json:"country_code"`
	DisplayName string `yaml:"display_name,omitempty" json:"display_name,omitempty"`
}

// Label returns the display name, falling back to the city.
func (l Location) Label() string {
	if l.DisplayName != "" {
		return l.DisplayName
	}
	return l.City
}

// WeatherFact is one normalized observation. Temperatures are whole degrees
// Celsius, RainProbability is 0..100.
type WeatherFact struct {
	Temperature     int
	FeelsLike       int
	TempMin         int
	TempMax         int
	Humidity        int
	Description     string
	RainProbability int
	WindSpeed       float64 // m/s
	LocationLabel   string
	Provider        string
}

// CommuteWeather pairs the home and office observations. Either side may be
// nil when its fetch failed.
type CommuteWeather struct {
	Home           *WeatherFact
	Office         *WeatherFact
	HomeLocation   Location
	OfficeLocation Location
}

// MaxRainProbability returns the larger rain probability of the two sides.
func (c CommuteWeather) MaxRainProbability() int {
	p := 0
	if c.Home != nil {
		p = c.Home.RainProbability
	}
	if c.Office != nil && c.Office.RainProbability > p {
		p = c.Office.RainProbability
	}
	return p
}

// Category is a news classification.
type Category string

const (
	CategoryAI     Category = "AI"
	CategoryTech   Category = "Tech"
	CategoryEdTech Category = "EdTech"
	CategoryNews   Category = "News"
)

// NewsItem is one article. URL is the dedup key.
type NewsItem struct {
	Title       string
	Headline    string
	Description string
	Summary     string
	URL         string
	Source      string
	PublishedAt time.Time
	Category    Category
}

// CalendarEvent is a normalized calendar entry. Start and End keep the raw
// provider strings; At is set only for timed events that parsed.
type CalendarEvent struct {
	Title       string
	TimeLabel   string
	Start       string
	End         string
	At          time.Time
	AllDay      bool
	Location    string
	Description string
	Important   bool
}

// Recommendation is an evening content suggestion.
type Recommendation struct {
	Type        string // "article" or "video"
	Title       string
	Description string
	Source      string
}

// EveningBriefing bundles the evening schedule and suggestions.
type EveningBriefing struct {
	EveningEvents   []CalendarEvent
	TomorrowPreview []CalendarEvent
	Recommendations []Recommendation
}

// HasPlans reports whether any part of the evening schedule has content.
func (e EveningBriefing) HasPlans() bool {
	return len(e.EveningEvents) > 0 || len(e.TomorrowPreview) > 0
}

const (
	ProjectSourceVectorStore = "vector-store"
	ProjectSourceNotesVault  = "notes-vault"
)

// ProjectRecord is an in-flight project with its next actions.
type ProjectRecord struct {
	Title       string
	Status      string
	NextActions []string
	Source      string
	Tier        int
	Path        string
}

// ProjectReminders is the night reminder input.
type ProjectReminders struct {
	Projects []ProjectRecord
}

// HasProjects reports whether any project is in flight.
func (r ProjectReminders) HasProjects() bool {
	return len(r.Projects) > 0
}
