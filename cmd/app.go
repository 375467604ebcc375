package cmd

import (
	"context"
	"os"
	"time"

	"github.com/aucus/proactive-ai-bot/internal/ai"
	"github.com/aucus/proactive-ai-bot/internal/briefing"
	"github.com/aucus/proactive-ai-bot/internal/calendar"
	"github.com/aucus/proactive-ai-bot/internal/config"
	"github.com/aucus/proactive-ai-bot/internal/domain"
	"github.com/aucus/proactive-ai-bot/internal/feed"
	"github.com/aucus/proactive-ai-bot/internal/followup"
	"github.com/aucus/proactive-ai-bot/internal/logger"
	"github.com/aucus/proactive-ai-bot/internal/news"
	"github.com/aucus/proactive-ai-bot/internal/projects"
	"github.com/aucus/proactive-ai-bot/internal/state"
	"github.com/aucus/proactive-ai-bot/internal/telegram"
	"github.com/aucus/proactive-ai-bot/internal/weather"
	"github.com/rs/zerolog"
)

// followupBound caps how long a command waits for re-index tasks after the
// message went out.
const followupBound = 30 * time.Second

// app is everything one invocation needs, built once from the config.
type app struct {
	cfg       *config.Config
	log       zerolog.Logger
	telegram  *telegram.Client
	calendar  *calendar.Source
	pipeline  *briefing.Pipeline
	settings  *state.SettingsStore
	current   state.Settings
	followups *followup.Group
	stores    *stores
	stateErr  error
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(config.LoadOptions{ProfilePath: flagConfig, EnvFile: flagEnvFile})
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	log := logger.New(level, os.Stderr)
	timeout := cfg.HTTPTimeout()

	a := &app{cfg: cfg, log: log}
	a.followups = followup.New(logger.Component(log, "followup"), 2)
	a.telegram = telegram.New(telegram.Options{
		Token:   cfg.TelegramToken,
		ChatID:  cfg.TelegramChatID,
		BaseURL: cfg.TelegramAPIURL,
		Timeout: timeout,
		Logger:  logger.Component(log, "telegram"),
	})
	a.calendar = calendar.New(ctx, calendar.Options{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RefreshToken: cfg.GoogleRefreshToken,
		CalendarID:   cfg.GoogleCalendarID,
		Timeout:      timeout,
		Location:     config.KST,
		Logger:       logger.Component(log, "calendar"),
	})

	opts := briefing.Options{
		Weather: weather.New(weather.Options{
			APIKey:  cfg.OpenWeatherAPIKey,
			Timeout: timeout,
			Logger:  logger.Component(log, "weather"),
		}),
		News: news.New(news.Options{
			APIKey:  cfg.NewsAPIKey,
			Timeout: timeout,
			RSS:     feed.NewRSSFetcher(timeout),
			Logger:  logger.Component(log, "news"),
		}),
		Calendar: a.calendar,
		Projects: projects.New(projects.Options{
			Store:     a.vectorStore(),
			VaultPath: cfg.ObsidianVaultPath,
			Followups: a.followups,
			Timeout:   timeout,
			Logger:    logger.Component(log, "projects"),
		}),
		Health:    a.healthReport,
		Home:      cfg.Profile.Locations.Home,
		Office:    cfg.Profile.Locations.Office,
		BriefSize: cfg.BriefSize(),
		Now:       func() time.Time { return time.Now().In(config.KST) },
		Logger:    logger.Component(log, "briefing"),
	}

	if g, err := ai.New(ai.Options{
		Provider: cfg.LLMProvider,
		Model:    cfg.LLMModel,
		APIKey:   cfg.AIKey(),
		Timeout:  3 * timeout,
	}); err != nil {
		log.Warn().Err(err).Msg("enrichment disabled")
	} else {
		opts.Generator = g
	}

	a.stores, a.stateErr = openStores(cfg, timeout)
	if a.stateErr != nil {
		log.Warn().Err(a.stateErr).Msg("state store unavailable, news will not be deduplicated")
	} else {
		opts.Seen = state.NewSeenStore(a.stores.seen, config.KST, nil)
		a.settings = state.NewSettingsStore(a.stores.settings)
	}

	a.current, err = a.settings.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("loading settings failed, using defaults")
	}
	opts.Location = a.weatherLocation()
	opts.Categories = a.current.NewsCategories

	if flagDryRun {
		opts.Sink = previewSink{w: os.Stdout}
	} else {
		opts.Sink = a.telegram
	}
	a.pipeline = briefing.New(opts)
	return a, nil
}

// vectorStore returns nil when the store is not configured or unreachable,
// so the projects source goes straight to the vault.
func (a *app) vectorStore() projects.VectorStore {
	if !a.cfg.VectorStoreConfigured() {
		return nil
	}
	s, err := projects.NewWeaviateStore(a.cfg.VectorStoreURL, a.cfg.VectorStoreAPIKey, a.cfg.VectorStoreClass)
	if err != nil {
		a.log.Warn().Err(err).Msg("vector store unavailable")
		return nil
	}
	return s
}

// weatherLocation prefers the stored settings over the profile's home.
func (a *app) weatherLocation() domain.Location {
	if a.current.Location.City != "" {
		return a.current.Location
	}
	return a.cfg.Profile.Locations.Home
}

func (a *app) healthReport(context.Context) briefing.HealthReport {
	c := a.cfg
	provider := c.LLMProvider
	if provider == "" {
		provider = "gemini"
	}
	return briefing.HealthReport{
		Checks: []briefing.HealthCheck{
			{Name: "telegram", OK: c.TelegramToken != "" && c.TelegramChatID != ""},
			{Name: provider, OK: c.AIEnabled()},
			{Name: "weather", OK: c.OpenWeatherAPIKey != ""},
			{Name: "news", OK: c.NewsAPIKey != ""},
			{Name: "calendar", OK: a.calendar.Configured()},
			{Name: "vector store", OK: c.VectorStoreConfigured()},
			{Name: "state store", OK: a.stateErr == nil},
		},
		At: time.Now().In(config.KST),
	}
}

// close waits, bounded, for follow-up tasks and releases the stores.
func (a *app) close() {
	if !a.followups.Wait(followupBound) {
		a.log.Warn().Msg("follow-up tasks abandoned")
	}
	if n := a.followups.Failed(); n > 0 {
		a.log.Warn().Int("failed", n).Msg("follow-up tasks failed")
	}
	if a.stores != nil {
		a.stores.Close()
	}
}
