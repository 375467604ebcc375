package projects

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aucus/proactive-ai-bot/internal/domain"
	"github.com/google/uuid"
	weaviate "github.com/weaviate/weaviate-go-client/v5/weaviate"
	filters "github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	gql "github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
)

const DefaultClass = "Project"

// WeaviateStore keeps project records in one Weaviate class with the
// properties title, status, nextActions, source, tier and path.
type WeaviateStore struct {
	client *weaviate.Client
	class  string
}

// NewWeaviateStore connects to rawURL ("https://host:port" or "host:port").
func NewWeaviateStore(rawURL, apiKey, class string) (*WeaviateStore, error) {
	scheme, host := "http", rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		scheme, host = u.Scheme, u.Host
	}
	if host == "" {
		return nil, fmt.Errorf("weaviate url is empty")
	}
	cfg := weaviate.Config{Scheme: scheme, Host: host}
	if apiKey != "" {
		cfg.Headers = map[string]string{"Authorization": "Bearer " + apiKey}
	}
	cl, err := weaviate.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating weaviate client: %w", err)
	}
	if class == "" {
		class = DefaultClass
	}
	return &WeaviateStore{client: cl, class: class}, nil
}

func (w *WeaviateStore) ActiveProjects(ctx context.Context, limit int) ([]domain.ProjectRecord, error) {
	where := filters.Where().WithPath([]string{"status"}).WithOperator(filters.Equal).WithValueText("active")

	resp, err := w.client.GraphQL().Get().
		WithClassName(w.class).
		WithWhere(where).
		WithSort(gql.Sort{Path: []string{"tier"}, Order: gql.Asc}).
		WithLimit(limit).
		WithFields(
			gql.Field{Name: "title"},
			gql.Field{Name: "status"},
			gql.Field{Name: "nextActions"},
			gql.Field{Name: "source"},
			gql.Field{Name: "tier"},
			gql.Field{Name: "path"},
		).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("weaviate query: %w", err)
	}
	if len(resp.Errors) > 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			if e != nil {
				msgs = append(msgs, e.Message)
			}
		}
		return nil, fmt.Errorf("weaviate graphql: %s", strings.Join(msgs, "; "))
	}
	return decodeProjects(resp.Data["Get"], w.class), nil
}

// decodeProjects reads the class array from the Get section of a GraphQL
// payload. Unexpected shapes yield no records.
func decodeProjects(section any, class string) []domain.ProjectRecord {
	get, ok := section.(map[string]any)
	if !ok {
		return nil
	}
	raw, ok := get[class].([]any)
	if !ok {
		return nil
	}

	str := func(v any) string {
		s, _ := v.(string)
		return s
	}
	out := make([]domain.ProjectRecord, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		rec := domain.ProjectRecord{
			Title:  str(m["title"]),
			Status: str(m["status"]),
			Source: domain.ProjectSourceVectorStore,
			Path:   str(m["path"]),
		}
		if rec.Title == "" {
			continue
		}
		if tier, ok := m["tier"].(float64); ok {
			rec.Tier = int(tier)
		}
		if actions, ok := m["nextActions"].([]any); ok {
			for _, a := range actions {
				if s := str(a); s != "" && len(rec.NextActions) < maxNextActions {
					rec.NextActions = append(rec.NextActions, s)
				}
			}
		}
		out = append(out, rec)
	}
	return out
}

// Upsert creates the object under a title-derived ID, merging into the
// existing object when creation is refused.
func (w *WeaviateStore) Upsert(ctx context.Context, rec domain.ProjectRecord) error {
	id := ProjectID(rec.Title)
	props := map[string]any{
		"title":       rec.Title,
		"status":      rec.Status,
		"nextActions": rec.NextActions,
		"source":      rec.Source,
		"tier":        rec.Tier,
		"path":        rec.Path,
	}

	_, err := w.client.Data().Creator().
		WithClassName(w.class).
		WithID(id).
		WithProperties(props).
		Do(ctx)
	if err == nil {
		return nil
	}

	uerr := w.client.Data().Updater().
		WithClassName(w.class).
		WithID(id).
		WithProperties(props).
		WithMerge().
		Do(ctx)
	if uerr != nil {
		return fmt.Errorf("upserting project %q: create: %v; update: %w", rec.Title, err, uerr)
	}
	return nil
}

// ProjectID is stable for a title so repeated re-indexing updates in place.
func ProjectID(title string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("proactive-ai-bot/project/"+title)).String()
}
