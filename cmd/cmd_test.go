package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/docspace/internal/models"
)

// fakeSidecar answers /embed and /embed_batch with one-hot vectors of the
// configured default dimension, one axis per topic word.
func fakeSidecar(t *testing.T) *httptest.Server {
	t.Helper()
	vector := func(text string) []float32 {
		v := make([]float32, 384)
		switch {
		case strings.Contains(strings.ToLower(text), "cat"):
			v[0] = 1
		case strings.Contains(strings.ToLower(text), "rocket"):
			v[1] = 1
		default:
			v[2] = 1
		}
		return v
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /embed", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Text string }
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		json.NewEncoder(w).Encode(map[string]any{"embedding": vector(req.Text)})
	})
	mux.HandleFunc("POST /embed_batch", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Texts []string }
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		out := make([][]float32, len(req.Texts))
		for i, text := range req.Texts {
			out[i] = vector(text)
		}
		json.NewEncoder(w).Encode(map[string]any{"embeddings": out})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func setupEnv(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DOCSPACE_DB_DRIVER", "sqlite")
	t.Setenv("DOCSPACE_DB_PATH", filepath.Join(dir, "docspace.db"))
	t.Setenv("EMBEDDING_PROVIDER", "sidecar")
	t.Setenv("EMBEDDING_BASE_URL", fakeSidecar(t).URL)
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"serve", "mcp", "add", "import", "list", "show", "rm", "rechunk", "search"} {
		assert.Contains(t, names, want)
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
	assert.NotNil(t, root.PersistentFlags().Lookup("verbose"))
}

func TestAddListSearchRemove(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No documents.")

	out, err = run(t, "The cat sat on the mat.", "add", "-", "--name", "cats.txt")
	require.NoError(t, err, out)
	assert.Contains(t, out, "cats.txt")

	_, err = run(t, "The rocket lifts off.", "add", "-", "--name", "rockets.txt")
	require.NoError(t, err)

	out, err = run(t, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "cats.txt")
	assert.Contains(t, out, "rockets.txt")

	out, err = run(t, "", "search", "--json", "cat")
	require.NoError(t, err, out)
	var results []models.SearchResult
	require.NoError(t, json.Unmarshal([]byte(out), &results), out)
	require.Len(t, results, 1)
	assert.Equal(t, "cats.txt", results[0].FileName)
	assert.InDelta(t, 1.0, results[0].Score, 1e-5)

	out, err = run(t, "", "search", "--keyword", "lifts")
	require.NoError(t, err)
	assert.Contains(t, out, "rockets.txt")

	out, err = run(t, "", "show", results[0].DocumentID)
	require.NoError(t, err)
	assert.Contains(t, out, "The cat sat on the mat.")

	out, err = run(t, "", "rm", results[0].DocumentID)
	require.NoError(t, err, out)

	_, err = run(t, "", "show", results[0].DocumentID)
	assert.Error(t, err)

	_, err = run(t, "", "search", "--limit", "-1", "cat")
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdef...", truncate("abcdefghijkl", 9))
	assert.Equal(t, "ün", truncate("ünïcode", 2))
}

func TestFormatTime(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "just now", formatTime(now.Add(-10*time.Second), now))
	assert.Equal(t, "5m ago", formatTime(now.Add(-5*time.Minute), now))
	assert.Equal(t, "3h ago", formatTime(now.Add(-3*time.Hour), now))
	assert.Equal(t, "2d ago", formatTime(now.Add(-48*time.Hour), now))
	assert.Equal(t, "2024-04-01", formatTime(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), now))
}

func TestWriteResults(t *testing.T) {
	var buf bytes.Buffer
	writeResults(&buf, "cat", nil, false)
	assert.Equal(t, "No documents found for query: cat\n", buf.String())

	buf.Reset()
	writeResults(&buf, "cat", []models.SearchResult{{
		DocumentID: "doc-1",
		FileName:   "cats.txt",
		Score:      6,
		Snippet:    "line one\nline two",
	}}, true)
	assert.Contains(t, buf.String(), "1. cats.txt  (score 6)")
	assert.Contains(t, buf.String(), "line one line two")
}
