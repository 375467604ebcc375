// Package projects finds in-flight projects in the vector store, falling back
// to a local notes vault that is then re-indexed into the store.
package projects

import (
	"context"
	"strings"
	"time"

	"github.com/aucus/proactive-ai-bot/internal/domain"
	"github.com/aucus/proactive-ai-bot/internal/followup"
	"github.com/rs/zerolog"
)

const (
	maxProjects    = 5
	maxNextActions = 3
)

// VectorStore is the primary project index.
type VectorStore interface {
	ActiveProjects(ctx context.Context, limit int) ([]domain.ProjectRecord, error)
	Upsert(ctx context.Context, rec domain.ProjectRecord) error
}

type Options struct {
	Store     VectorStore
	VaultPath string
	Followups followup.Scheduler
	Timeout   time.Duration
	Logger    zerolog.Logger
}

type Source struct {
	store     VectorStore
	vault     string
	followups followup.Scheduler
	timeout   time.Duration
	log       zerolog.Logger
}

func New(opts Options) *Source {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Source{
		store:     opts.Store,
		vault:     opts.VaultPath,
		followups: opts.Followups,
		timeout:   opts.Timeout,
		log:       opts.Logger,
	}
}

// Reminders returns up to five active projects. Vault hits are handed to the
// follow-up scheduler for re-indexing; the returned value never waits on it.
func (s *Source) Reminders(ctx context.Context) domain.ProjectReminders {
	records := s.fromStore(ctx)

	if len(records) == 0 {
		records = s.fromVault()
		if len(records) > 0 {
			s.scheduleReindex(records)
		}
	}

	var active []domain.ProjectRecord
	for _, r := range records {
		switch strings.ToLower(r.Status) {
		case "active", "진행중", "":
			active = append(active, r)
		}
		if len(active) == maxProjects {
			break
		}
	}
	if len(active) == 0 {
		s.log.Info().Msg("no active projects found")
	}
	return domain.ProjectReminders{Projects: active}
}

func (s *Source) fromStore(ctx context.Context) []domain.ProjectRecord {
	if s.store == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	records, err := s.store.ActiveProjects(ctx, maxProjects)
	if err != nil {
		s.log.Warn().Err(err).Msg("vector store unavailable")
		return nil
	}
	s.log.Info().Int("projects", len(records)).Msg("projects from vector store")
	return records
}

func (s *Source) fromVault() []domain.ProjectRecord {
	if s.vault == "" {
		s.log.Debug().Msg("notes vault not configured")
		return nil
	}
	records, err := ScanVault(s.vault)
	if err != nil {
		s.log.Warn().Err(err).Str("vault", s.vault).Msg("notes vault unavailable")
		return nil
	}
	s.log.Info().Int("projects", len(records)).Msg("projects from notes vault")
	return records
}

func (s *Source) scheduleReindex(records []domain.ProjectRecord) {
	if s.store == nil || s.followups == nil {
		return
	}
	batch := append([]domain.ProjectRecord(nil), records...)
	s.followups.Go("reindex-projects", func(ctx context.Context) error {
		return Reindex(ctx, s.store, batch, s.log)
	})
}

// Reindex pushes vault records into the store, continuing past individual
// failures and returning the first one.
func Reindex(ctx context.Context, store VectorStore, records []domain.ProjectRecord, log zerolog.Logger) error {
	var first error
	indexed := 0
	for _, r := range records {
		if err := store.Upsert(ctx, r); err != nil {
			log.Warn().Err(err).Str("project", r.Title).Msg("re-index failed")
			if first == nil {
				first = err
			}
			continue
		}
		indexed++
	}
	log.Info().Int("indexed", indexed).Int("total", len(records)).Msg("projects re-indexed")
	return first
}
