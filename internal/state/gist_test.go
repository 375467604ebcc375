package state

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGistLoad(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gists/abc123", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"files": {
			"settings.json": {"content": "{\"notifications\":{}}"},
			"seen_urls.json": {"content": "{\"seen_urls\":[]}"}
		}}`)
	}))
	defer srv.Close()

	store := NewGistStore(GistOptions{Token: "tok", GistID: "abc123", BaseURL: srv.URL})
	got, err := store.Load(context.Background(), SeenHandle)
	require.NoError(t, err)
	assert.Equal(t, `{"seen_urls":[]}`, string(got))

	_, err = store.Load(context.Background(), "other.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGistLoadTruncatedFollowsRawURL(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/raw/seen_urls.json" {
			fmt.Fprint(w, `{"seen_urls":[["https://a","2026-03-02T08:00:00+09:00"]]}`)
			return
		}
		fmt.Fprintf(w, `{"files": {"seen_urls.json": {"content": "{\"seen", "truncated": true, "raw_url": "%s/raw/seen_urls.json"}}}`, srv.URL)
	}))
	defer srv.Close()

	store := NewGistStore(GistOptions{Token: "tok", GistID: "abc123", BaseURL: srv.URL})
	got, err := store.Load(context.Background(), SeenHandle)
	require.NoError(t, err)
	assert.Contains(t, string(got), "https://a")
}

func TestGistSavePatchesOnlyItsFile(t *testing.T) {
	var body map[string]map[string]map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/gists/abc123", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &body))
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	store := NewGistStore(GistOptions{Token: "tok", GistID: "abc123", BaseURL: srv.URL})
	require.NoError(t, store.Save(context.Background(), SettingsHandle, []byte(`{"a":1}`)))

	require.Len(t, body["files"], 1)
	assert.Equal(t, `{"a":1}`, body["files"][SettingsHandle]["content"])
}

func TestGistErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	store := NewGistStore(GistOptions{Token: "bad", GistID: "gone", BaseURL: srv.URL})
	_, err := store.Load(context.Background(), SeenHandle)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Error(t, store.Save(context.Background(), SeenHandle, []byte("{}")))
}
