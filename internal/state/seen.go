package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"
)

const (
	// SeenHandle names the dedup blob.
	SeenHandle = "seen_urls.json"
	// SeenRetention is how long a delivered URL stays suppressed.
	SeenRetention = 7 * 24 * time.Hour
)

// SeenSet maps a delivered URL to when it was first delivered.
type SeenSet map[string]time.Time

func (s SeenSet) Contains(url string) bool {
	_, ok := s[url]
	return ok
}

// URLs returns the set's URLs oldest first.
func (s SeenSet) URLs() []string {
	urls := make([]string, 0, len(s))
	for u := range s {
		urls = append(urls, u)
	}
	sort.Slice(urls, func(i, j int) bool {
		ti, tj := s[urls[i]], s[urls[j]]
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return urls[i] < urls[j]
	})
	return urls
}

// On disk: {"seen_urls": [[url, iso], ...], "last_updated": iso}
type seenDocument struct {
	SeenURLs    [][]string `json:"seen_urls"`
	LastUpdated string     `json:"last_updated"`
}

var errCorrupt = errors.New("state: corrupt seen blob")

// SeenStore is the dedup store for delivered news URLs.
type SeenStore struct {
	store     Store
	handle    string
	loc       *time.Location
	now       func() time.Time
	retention time.Duration
}

func NewSeenStore(store Store, loc *time.Location, now func() time.Time) *SeenStore {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &SeenStore{store: store, handle: SeenHandle, loc: loc, now: now, retention: SeenRetention}
}

// Load returns the URLs delivered within the retention window. A missing
// blob is an empty set.
func (s *SeenStore) Load(ctx context.Context) (SeenSet, error) {
	set, err := s.read(ctx)
	if err != nil {
		return SeenSet{}, err
	}
	s.prune(set, s.retention)
	return set, nil
}

// Record adds urls with the current time, keeping the earliest timestamp
// for URLs already present, drops expired entries and writes the result.
// A corrupt blob is replaced; any other read failure aborts the write so a
// transient error never erases history.
func (s *SeenStore) Record(ctx context.Context, urls []string) error {
	set, err := s.read(ctx)
	if err != nil && !errors.Is(err, errCorrupt) {
		return err
	}
	if set == nil {
		set = SeenSet{}
	}

	now := s.now().In(s.loc)
	for _, u := range urls {
		if u == "" {
			continue
		}
		if _, ok := set[u]; !ok {
			set[u] = now
		}
	}
	s.prune(set, s.retention)
	return s.write(ctx, set)
}

// Prune rewrites the blob without entries older than olderThan and returns
// how many were removed.
func (s *SeenStore) Prune(ctx context.Context, olderThan time.Duration) (int, error) {
	set, err := s.read(ctx)
	if err != nil {
		return 0, err
	}
	before := len(set)
	s.prune(set, olderThan)
	if err := s.write(ctx, set); err != nil {
		return 0, err
	}
	return before - len(set), nil
}

func (s *SeenStore) read(ctx context.Context) (SeenSet, error) {
	data, err := s.store.Load(ctx, s.handle)
	if errors.Is(err, ErrNotFound) {
		return SeenSet{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading seen urls: %w", err)
	}

	var doc seenDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return SeenSet{}, fmt.Errorf("%w: %v", errCorrupt, err)
	}

	set := make(SeenSet, len(doc.SeenURLs))
	for _, entry := range doc.SeenURLs {
		if len(entry) < 2 || entry[0] == "" {
			continue
		}
		ts, ok := parseTimestamp(entry[1], s.loc)
		if !ok {
			continue
		}
		if prev, exists := set[entry[0]]; !exists || ts.Before(prev) {
			set[entry[0]] = ts
		}
	}
	return set, nil
}

func (s *SeenStore) prune(set SeenSet, olderThan time.Duration) {
	cutoff := s.now().In(s.loc).Add(-olderThan)
	for u, ts := range set {
		if ts.Before(cutoff) {
			delete(set, u)
		}
	}
}

func (s *SeenStore) write(ctx context.Context, set SeenSet) error {
	doc := seenDocument{
		SeenURLs:    make([][]string, 0, len(set)),
		LastUpdated: s.now().In(s.loc).Format(time.RFC3339),
	}
	for _, u := range set.URLs() {
		doc.SeenURLs = append(doc.SeenURLs, []string{u, set[u].In(s.loc).Format(time.RFC3339)})
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding seen urls: %w", err)
	}
	if err := s.store.Save(ctx, s.handle, data); err != nil {
		return fmt.Errorf("saving seen urls: %w", err)
	}
	return nil
}

// parseTimestamp accepts RFC 3339 and offset-less ISO timestamps, reading
// the latter in loc.
func parseTimestamp(v string, loc *time.Location) (time.Time, bool) {
	if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return ts, true
	}
	for _, layout := range []string{"2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05", "2006-01-02"} {
		if ts, err := time.ParseInLocation(layout, v, loc); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
