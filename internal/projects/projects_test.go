package projects

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aucus/proactive-ai-bot/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu        sync.Mutex
	records   []domain.ProjectRecord
	err       error
	upserted  []string
	upsertErr error
}

func (f *fakeStore) ActiveProjects(_ context.Context, limit int) ([]domain.ProjectRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.records) > limit {
		return f.records[:limit], nil
	}
	return f.records, nil
}

func (f *fakeStore) Upsert(_ context.Context, rec domain.ProjectRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserted = append(f.upserted, rec.Title)
	return f.upsertErr
}

// inlineScheduler runs tasks after the read returns, on Flush.
type inlineScheduler struct {
	tasks []func(ctx context.Context) error
}

func (s *inlineScheduler) Go(_ string, fn func(ctx context.Context) error) {
	s.tasks = append(s.tasks, fn)
}

func (s *inlineScheduler) Flush() []error {
	var errs []error
	for _, fn := range s.tasks {
		errs = append(errs, fn(context.Background()))
	}
	return errs
}

func writeNote(t *testing.T, root, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, dir, name), []byte(content), 0o644))
}

func TestParseNote(t *testing.T) {
	tests := []struct {
		name    string
		content string
		ok      bool
		actions []string
	}{
		{"no front matter", "# plan\n- [ ] write intro\n- [x] pick title\n", true, []string{"write intro", "pick title"}},
		{"active", "---\nstatus: Active\n---\n- [ ] ship\n", true, []string{"ship"}},
		{"korean status", "---\nstatus: 진행중\n---\n", true, nil},
		{"archived", "---\nstatus: archived\n---\n- [ ] never shown\n", false, nil},
		{"inactive", "---\nstatus: inactive\n---\n", false, nil},
		{"missing status", "---\ntags: [x]\n---\n", true, nil},
		{"malformed yaml", "---\nstatus: active\n  : broken: [\n---\n", true, nil},
		{"malformed yaml archived", "---\nStatus: archived\n  : broken: [\n---\n", false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, ok := ParseNote("Side Project.md", tt.content)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, "Side Project", rec.Title)
			assert.Equal(t, "active", rec.Status)
			assert.Equal(t, domain.ProjectSourceNotesVault, rec.Source)
			assert.Equal(t, tt.actions, rec.NextActions)
		})
	}
}

func TestNextActionsCapAndTruncate(t *testing.T) {
	long := strings.Repeat("가", 150)
	content := "- [ ] " + long + "\n- [ ]   \n- [x] two\n- [ ] three\n- [ ] four\n"

	got := nextActions(content)

	require.Len(t, got, 3)
	assert.Len(t, []rune(got[0]), 99)
	assert.Equal(t, "two", got[1])
	assert.Equal(t, "three", got[2])
}

func TestScanVault(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "Projects", "alpha.md", "---\nstatus: active\ntier: 2\n---\n- [ ] a1\n")
	writeNote(t, root, "Projects", "beta.md", "---\nstatus: done\n---\n")
	writeNote(t, root, "Projects", "notes.txt", "ignored")
	writeNote(t, root, "Active Projects", "gamma.md", "- [ ] g1\n")

	recs, err := ScanVault(root)
	require.NoError(t, err)

	var titles []string
	for _, r := range recs {
		titles = append(titles, r.Title)
	}
	assert.ElementsMatch(t, []string{"alpha", "gamma"}, titles)
	for _, r := range recs {
		if r.Title == "alpha" {
			assert.Equal(t, 2, r.Tier)
			assert.Equal(t, filepath.Join(root, "Projects", "alpha.md"), r.Path)
		}
	}
}

func TestScanVaultMissingRoot(t *testing.T) {
	_, err := ScanVault(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestRemindersPreferStore(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "Projects", "local.md", "- [ ] x\n")
	store := &fakeStore{records: []domain.ProjectRecord{
		{Title: "indexed", Status: "active", Source: domain.ProjectSourceVectorStore},
	}}
	sched := &inlineScheduler{}

	s := New(Options{Store: store, VaultPath: root, Followups: sched, Logger: zerolog.Nop()})
	r := s.Reminders(context.Background())

	require.Len(t, r.Projects, 1)
	assert.Equal(t, "indexed", r.Projects[0].Title)
	assert.Empty(t, sched.tasks, "nothing to re-index when the store answered")
}

func TestRemindersFallBackToVaultAndReindex(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "Projects", "local.md", "- [ ] x\n")
	store := &fakeStore{err: errors.New("connection refused")}
	sched := &inlineScheduler{}

	s := New(Options{Store: store, VaultPath: root, Followups: sched, Logger: zerolog.Nop()})
	r := s.Reminders(context.Background())

	require.True(t, r.HasProjects())
	assert.Equal(t, "local", r.Projects[0].Title)
	assert.Empty(t, store.upserted, "re-index must not run on the read path")

	require.Len(t, sched.tasks, 1)
	sched.Flush()
	assert.Equal(t, []string{"local"}, store.upserted)
}

func TestReindexFailureDoesNotChangeResult(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "projects", "one.md", "")
	store := &fakeStore{upsertErr: errors.New("401")}
	sched := &inlineScheduler{}

	s := New(Options{Store: store, VaultPath: root, Followups: sched, Logger: zerolog.Nop()})
	r := s.Reminders(context.Background())

	require.Len(t, r.Projects, 1)
	errs := sched.Flush()
	require.Len(t, errs, 1)
	assert.Error(t, errs[0])
}

func TestRemindersStatusFilter(t *testing.T) {
	recs := []domain.ProjectRecord{
		{Title: "paused", Status: "paused"},
		{Title: "shipping", Status: "Active"},
		{Title: "korean", Status: "진행중"},
		{Title: "blank"},
	}
	s := New(Options{Store: &fakeStore{records: recs}, Logger: zerolog.Nop()})

	r := s.Reminders(context.Background())

	var titles []string
	for _, p := range r.Projects {
		titles = append(titles, p.Title)
	}
	assert.Equal(t, []string{"shipping", "korean", "blank"}, titles)
}

func TestRemindersCapVaultAtFive(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		writeNote(t, root, "Projects", name+".md", "")
	}
	s := New(Options{VaultPath: root, Logger: zerolog.Nop()})

	r := s.Reminders(context.Background())
	assert.Len(t, r.Projects, 5)
}

func TestRemindersNothingConfigured(t *testing.T) {
	s := New(Options{Logger: zerolog.Nop()})
	assert.False(t, s.Reminders(context.Background()).HasProjects())
}

func TestDecodeProjects(t *testing.T) {
	section := map[string]any{
		"Project": []any{
			map[string]any{"title": "Blog", "status": "active", "tier": float64(1), "nextActions": []any{"draft", "edit", "publish", "promote"}},
			map[string]any{"title": "", "status": "active"},
			"garbage",
		},
	}
	recs := decodeProjects(section, "Project")
	require.Len(t, recs, 1)
	assert.Equal(t, 1, recs[0].Tier)
	assert.Equal(t, []string{"draft", "edit", "publish"}, recs[0].NextActions)
	assert.Equal(t, domain.ProjectSourceVectorStore, recs[0].Source)

	assert.Nil(t, decodeProjects(nil, "Project"))
	assert.Nil(t, decodeProjects(map[string]any{"Other": []any{}}, "Project"))
}

func TestProjectIDStable(t *testing.T) {
	assert.Equal(t, ProjectID("Blog"), ProjectID("Blog"))
	assert.NotEqual(t, ProjectID("Blog"), ProjectID("blog"))
}
