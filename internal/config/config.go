package config

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/aucus/proactive-ai-bot/internal/domain"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

//go:embed default_profile.yaml
var defaultProfileFS embed.FS

const appName = "proactive-ai-bot"

// KST is the fixed +09:00 zone every date computation runs in.
var KST = time.FixedZone("KST", 9*60*60)

// Secrets are read from the environment. Only the chat token, chat id and the
// generative-model key are required; everything else gates its own feature.
type Secrets struct {
	TelegramToken  string `envconfig:"TELEGRAM_TOKEN"`
	TelegramChatID string `envconfig:"TELEGRAM_CHAT_ID"`
	// TelegramAPIURL points at a self-hosted Bot API server.
	TelegramAPIURL string `envconfig:"TELEGRAM_API_URL"`

	LLMProvider     string `envconfig:"LLM_PROVIDER" default:"gemini"`
	LLMModel        string `envconfig:"LLM_MODEL"`
	GeminiAPIKey    string `envconfig:"GEMINI_API_KEY"`
	AnthropicAPIKey string `envconfig:"ANTHROPIC_API_KEY"`
	OpenAIAPIKey    string `envconfig:"OPENAI_API_KEY"`

	OpenWeatherAPIKey string `envconfig:"OPENWEATHER_API_KEY"`
	NewsAPIKey        string `envconfig:"NEWS_API_KEY"`

	GoogleClientID     string `envconfig:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `envconfig:"GOOGLE_CLIENT_SECRET"`
	GoogleRefreshToken string `envconfig:"GOOGLE_REFRESH_TOKEN"`
	GoogleCalendarID   string `envconfig:"GOOGLE_CALENDAR_ID" default:"primary"`

	VectorStoreURL    string `envconfig:"VECTOR_STORE_URL"`
	VectorStoreAPIKey string `envconfig:"VECTOR_STORE_API_KEY"`
	VectorStoreClass  string `envconfig:"VECTOR_STORE_CLASS" default:"Project"`

	GistToken      string `envconfig:"GIST_TOKEN"`
	StateGistID    string `envconfig:"STATE_GIST_ID"`
	SettingsGistID string `envconfig:"SETTINGS_GIST_ID"`
	RedisURL       string `envconfig:"REDIS_URL"`

	ObsidianVaultPath string `envconfig:"OBSIDIAN_VAULT_PATH"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

type Locations struct {
	Home   domain.Location `yaml:"home"`
	Office domain.Location `yaml:"office"`
}

// Profile is the on-disk user profile.
type Profile struct {
	UserName    string    `yaml:"user_name"`
	Timezone    string    `yaml:"timezone"`
	BriefSize   int       `yaml:"brief_size,omitempty"`
	HTTPTimeout string    `yaml:"http_timeout,omitempty"`
	Locations   Locations `yaml:"locations"`
}

// Config is built once at process start and passed to every component.
type Config struct {
	Secrets
	Profile     Profile
	ProfilePath string
}

type LoadOptions struct {
	ProfilePath string
	EnvFile     string
}

// Load reads the optional .env file, the process environment and the user
// profile.
func Load(opts LoadOptions) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading env file %s: %w", envFile, err)
	}

	secrets, err := LoadSecrets()
	if err != nil {
		return nil, err
	}

	path := opts.ProfilePath
	if path == "" {
		path = DefaultProfilePath()
	}
	profile, err := LoadProfile(path)
	if err != nil {
		return nil, err
	}

	return &Config{Secrets: *secrets, Profile: *profile, ProfilePath: path}, nil
}

func LoadSecrets() (*Secrets, error) {
	var s Secrets
	if err := envconfig.Process("", &s); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	s.LLMProvider = strings.ToLower(strings.TrimSpace(s.LLMProvider))
	return &s, nil
}

// AIKey returns the key for the configured generative-model provider.
func (s *Secrets) AIKey() string {
	switch s.LLMProvider {
	case "claude":
		return s.AnthropicAPIKey
	case "openai":
		return s.OpenAIAPIKey
	default:
		return s.GeminiAPIKey
	}
}

func (s *Secrets) AIEnabled() bool {
	return s.AIKey() != ""
}

// MissingRequired lists the required secrets that are unset.
func (s *Secrets) MissingRequired() []string {
	var missing []string
	if s.TelegramToken == "" {
		missing = append(missing, "TELEGRAM_TOKEN")
	}
	if s.TelegramChatID == "" {
		missing = append(missing, "TELEGRAM_CHAT_ID")
	}
	if !s.AIEnabled() {
		switch s.LLMProvider {
		case "claude":
			missing = append(missing, "ANTHROPIC_API_KEY")
		case "openai":
			missing = append(missing, "OPENAI_API_KEY")
		default:
			missing = append(missing, "GEMINI_API_KEY")
		}
	}
	return missing
}

func (s *Secrets) Healthy() bool {
	return len(s.MissingRequired()) == 0
}

func (s *Secrets) CalendarConfigured() bool {
	return s.GoogleClientID != "" && s.GoogleClientSecret != "" && s.GoogleRefreshToken != ""
}

func (s *Secrets) VectorStoreConfigured() bool {
	return s.VectorStoreURL != ""
}

// HTTPTimeout is the per-call budget for external requests, 10s by default.
func (c *Config) HTTPTimeout() time.Duration {
	d, err := time.ParseDuration(c.Profile.HTTPTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// MaxBriefSize is the most news items one message shows.
const MaxBriefSize = 5

// BriefSize returns the news item count, defaulting to 5.
func (c *Config) BriefSize() int {
	if c.Profile.BriefSize <= 0 {
		return 5
	}
	return c.Profile.BriefSize
}

func DefaultProfilePath() string {
	return filepath.Join(xdg.ConfigHome, appName, "profile.yaml")
}

func StatePath() string {
	return filepath.Join(xdg.StateHome, appName, "state.db")
}

func loadDefaults() (*Profile, error) {
	data, err := defaultProfileFS.ReadFile("default_profile.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded profile: %w", err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing embedded profile: %w", err)
	}
	return &p, nil
}

// LoadProfile reads the profile at path, seeding it from the embedded
// default on first run.
func LoadProfile(path string) (*Profile, error) {
	defaults, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Non-fatal: the embedded defaults still apply
			_ = writeDefaults(path)
			return defaults, nil
		}
		return nil, fmt.Errorf("reading profile: %w", err)
	}

	p := *defaults
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing profile %s: %w", path, err)
	}
	dropInheritedLabels(data, &p)

	if err := validate(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// dropInheritedLabels clears the default display name of a location whose
// city the profile sets without giving a display name of its own.
func dropInheritedLabels(data []byte, p *Profile) {
	type rawLocation struct {
		City        *string `yaml:"city"`
		DisplayName *string `yaml:"display_name"`
	}
	var raw struct {
		Locations struct {
			Home   *rawLocation `yaml:"home"`
			Office *rawLocation `yaml:"office"`
		} `yaml:"locations"`
	}
	if yaml.Unmarshal(data, &raw) != nil {
		return
	}
	if l := raw.Locations.Home; l != nil && l.City != nil && l.DisplayName == nil {
		p.Locations.Home.DisplayName = ""
	}
	if l := raw.Locations.Office; l != nil && l.City != nil && l.DisplayName == nil {
		p.Locations.Office.DisplayName = ""
	}
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultProfileFS.ReadFile("default_profile.yaml")
	return os.WriteFile(path, data, 0o644)
}

func validate(p *Profile) error {
	for name, loc := range map[string]domain.Location{"home": p.Locations.Home, "office": p.Locations.Office} {
		if loc.City == "" {
			return fmt.Errorf("location %q: city is required", name)
		}
		if len(loc.CountryCode) != 2 {
			return fmt.Errorf("location %q: country_code must be a two-letter code, got %q", name, loc.CountryCode)
		}
	}
	if p.HTTPTimeout != "" {
		if _, err := time.ParseDuration(p.HTTPTimeout); err != nil {
			return fmt.Errorf("invalid http_timeout %q: %w", p.HTTPTimeout, err)
		}
	}
	if p.BriefSize < 1 || p.BriefSize > MaxBriefSize {
		return fmt.Errorf("brief_size must be between 1 and %d, got %d", MaxBriefSize, p.BriefSize)
	}
	return nil
}
