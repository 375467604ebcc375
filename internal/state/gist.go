package state

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultGitHubAPI = "https://api.github.com"

// GistStore keeps each blob as a file inside one GitHub gist. The handle is
// the file name; other files in the gist are left untouched.
type GistStore struct {
	client *resty.Client
	gistID string
}

type GistOptions struct {
	Token   string
	GistID  string
	BaseURL string
	Timeout time.Duration
}

func NewGistStore(opts GistOptions) *GistStore {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultGitHubAPI
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	c := resty.New().
		SetBaseURL(opts.BaseURL).
		SetAuthToken(opts.Token).
		SetHeader("Accept", "application/vnd.github+json").
		SetHeader("X-GitHub-Api-Version", "2022-11-28").
		SetTimeout(opts.Timeout)
	return &GistStore{client: c, gistID: opts.GistID}
}

func (s *GistStore) Name() string { return "gist:" + s.gistID }

type gistFile struct {
	Content   string `json:"content"`
	Truncated bool   `json:"truncated,omitempty"`
	RawURL    string `json:"raw_url,omitempty"`
}

type gistDocument struct {
	Files map[string]*gistFile `json:"files"`
}

func (s *GistStore) Load(ctx context.Context, handle string) ([]byte, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParam("id", s.gistID).
		Get("/gists/{id}")
	if err != nil {
		return nil, fmt.Errorf("loading gist %s: %w", s.gistID, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("loading gist %s: status %d", s.gistID, resp.StatusCode())
	}

	var doc gistDocument
	if err := json.Unmarshal(resp.Body(), &doc); err != nil {
		return nil, fmt.Errorf("decoding gist %s: %w", s.gistID, err)
	}
	f, ok := doc.Files[handle]
	if !ok || f == nil {
		return nil, ErrNotFound
	}
	if !f.Truncated {
		return []byte(f.Content), nil
	}

	raw, err := s.client.R().SetContext(ctx).Get(f.RawURL)
	if err != nil {
		return nil, fmt.Errorf("loading raw %s: %w", handle, err)
	}
	if raw.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("loading raw %s: status %d", handle, raw.StatusCode())
	}
	return raw.Body(), nil
}

func (s *GistStore) Save(ctx context.Context, handle string, data []byte) error {
	body := gistDocument{Files: map[string]*gistFile{handle: {Content: string(data)}}}
	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParam("id", s.gistID).
		SetBody(body).
		Patch("/gists/{id}")
	if err != nil {
		return fmt.Errorf("saving gist %s: %w", s.gistID, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("saving gist %s: status %d", s.gistID, resp.StatusCode())
	}
	return nil
}
