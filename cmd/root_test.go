package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aucus/proactive-ai-bot/internal/briefing"
	"github.com/aucus/proactive-ai-bot/internal/config"
	"github.com/aucus/proactive-ai-bot/internal/state"
)

func TestParseSince(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
		err   bool
	}{
		{"7d", 7 * 24 * time.Hour, false},
		{"1d", 24 * time.Hour, false},
		{"24h", 24 * time.Hour, false},
		{"30m", 30 * time.Minute, false},
		{"2h30m", 2*time.Hour + 30*time.Minute, false},
		{"invalid", 0, true},
		{"", 0, true},
		{"d", 0, true},
	}

	for _, tt := range tests {
		got, err := parseSince(tt.input)
		if tt.err {
			if err == nil {
				t.Errorf("parseSince(%q): expected error, got %v", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseSince(%q): unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseSince(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestFormatHelpers(t *testing.T) {
	if got := formatDuration(7 * 24 * time.Hour); got != "7d" {
		t.Errorf("formatDuration = %q", got)
	}
	if got := formatDuration(5 * time.Hour); got != "5h" {
		t.Errorf("formatDuration = %q", got)
	}
	if got := formatBytes(2048); got != "2.0 KB" {
		t.Errorf("formatBytes = %q", got)
	}
}

func TestKindCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range kindCommands() {
		names[c.Name()] = true
		if c.Name() == "night" && (len(c.Aliases) != 1 || c.Aliases[0] != "project") {
			t.Errorf("night aliases = %v", c.Aliases)
		}
	}
	for _, k := range briefing.Kinds() {
		if !names[string(k)] {
			t.Errorf("missing command for %s", k)
		}
	}
}

func TestOpenStoresPrefersGist(t *testing.T) {
	cfg := &config.Config{Secrets: config.Secrets{GistToken: "t", StateGistID: "seen1", SettingsGistID: "set1"}}
	st, err := openStores(cfg, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	if st.seen.Name() != "gist:seen1" || st.settings.Name() != "gist:set1" {
		t.Errorf("stores = %s, %s", st.seen.Name(), st.settings.Name())
	}
	if st.local != nil {
		t.Error("local store opened although both blobs live in gists")
	}
}

func TestOpenStoresSharesRedis(t *testing.T) {
	cfg := &config.Config{Secrets: config.Secrets{RedisURL: "redis://localhost:6379/0", GistToken: "t", SettingsGistID: "set1"}}
	st, err := openStores(cfg, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	if _, ok := st.seen.(*state.RedisStore); !ok {
		t.Errorf("seen store = %T, want redis", st.seen)
	}
	if st.settings.Name() != "gist:set1" {
		t.Errorf("settings store = %s", st.settings.Name())
	}
}

func TestPreviewSink(t *testing.T) {
	var buf bytes.Buffer
	if err := (previewSink{w: &buf}).Send(context.Background(), "📅 오늘 일정 브리핑"); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "오늘 일정 브리핑") || !strings.Contains(out, "not sent") {
		t.Errorf("unexpected preview:\n%s", out)
	}
}
