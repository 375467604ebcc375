package projects

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/aucus/proactive-ai-bot/internal/domain"
	"gopkg.in/yaml.v3"
)

// vaultDirs are searched in order, relative to the vault root.
var vaultDirs = []string{"Projects", "projects", "Active Projects"}

const maxActionRunes = 99

type frontMatter struct {
	Status string `yaml:"status"`
	Tier   int    `yaml:"tier"`
}

// ScanVault reads every markdown note in the project folders of root and
// returns the ones marked active. Notes that cannot be read are skipped.
func ScanVault(root string) ([]domain.ProjectRecord, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("opening vault: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault %s is not a directory", root)
	}

	var out []domain.ProjectRecord
	var seen []os.FileInfo
	for _, dir := range vaultDirs {
		entries, err := os.ReadDir(filepath.Join(root, dir))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", dir, err)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
				continue
			}
			path := filepath.Join(root, dir, e.Name())
			// case-insensitive filesystems list Projects and projects twice
			if fi, err := os.Stat(path); err == nil {
				if sameAsAny(fi, seen) {
					continue
				}
				seen = append(seen, fi)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				continue
			}
			if rec, ok := ParseNote(e.Name(), string(data)); ok {
				rec.Path = path
				out = append(out, rec)
			}
		}
	}
	return out, nil
}

func sameAsAny(fi os.FileInfo, seen []os.FileInfo) bool {
	for _, s := range seen {
		if os.SameFile(fi, s) {
			return true
		}
	}
	return false
}

// ParseNote extracts a project from a markdown note. Notes without front
// matter count as active; notes whose status is not active are rejected.
func ParseNote(filename, content string) (domain.ProjectRecord, bool) {
	rec := domain.ProjectRecord{
		Title:  strings.TrimSpace(strings.TrimSuffix(filename, ".md")),
		Status: "active",
		Source: domain.ProjectSourceNotesVault,
	}

	if fm, ok := splitFrontMatter(content); ok {
		status, tier := parseFrontMatter(fm)
		if !isActive(status) {
			return domain.ProjectRecord{}, false
		}
		rec.Tier = tier
	}

	rec.NextActions = nextActions(content)
	return rec, true
}

func splitFrontMatter(content string) (string, bool) {
	if !strings.HasPrefix(content, "---") {
		return "", false
	}
	parts := strings.SplitN(content, "---", 3)
	if len(parts) < 3 {
		return "", false
	}
	return parts[1], true
}

// parseFrontMatter reads status and tier. Malformed YAML falls back to a
// line scan for the status key.
func parseFrontMatter(fm string) (string, int) {
	var meta frontMatter
	if err := yaml.Unmarshal([]byte(fm), &meta); err == nil {
		if meta.Status == "" {
			return "active", meta.Tier
		}
		return strings.ToLower(strings.TrimSpace(meta.Status)), meta.Tier
	}

	sc := bufio.NewScanner(strings.NewReader(fm))
	for sc.Scan() {
		line := sc.Text()
		if !strings.Contains(strings.ToLower(line), "status:") {
			continue
		}
		i := strings.LastIndex(line, ":")
		return strings.ToLower(strings.TrimSpace(line[i+1:])), 0
	}
	return "active", 0
}

func isActive(status string) bool {
	if strings.Contains(status, "진행중") {
		return true
	}
	return strings.Contains(status, "active") && !strings.Contains(status, "inactive")
}

// nextActions returns the first three checklist items, checked or not.
func nextActions(content string) []string {
	var out []string
	sc := bufio.NewScanner(strings.NewReader(content))
	for sc.Scan() {
		line := sc.Text()
		if !strings.Contains(line, "- [ ]") && !strings.Contains(line, "- [x]") {
			continue
		}
		action := strings.ReplaceAll(line, "- [ ]", "")
		action = strings.TrimSpace(strings.ReplaceAll(action, "- [x]", ""))
		if action == "" {
			continue
		}
		if r := []rune(action); len(r) > maxActionRunes {
			action = string(r[:maxActionRunes])
		}
		out = append(out, action)
		if len(out) == maxNextActions {
			break
		}
	}
	return out
}
