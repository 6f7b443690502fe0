package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryosukesatoh/paper-digest/internal/config"
)

func deadURL(t *testing.T) string {
	t.Helper()
	ts := httptest.NewServer(http.NotFoundHandler())
	u := ts.URL
	ts.Close()
	return u
}

func feedServer(t *testing.T, ids ...string) *httptest.Server {
	t.Helper()
	docHost := deadURL(t)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom"><title>arXiv Query</title>`)
		for _, id := range ids {
			fmt.Fprintf(w, `<entry>
  <id>%[1]s</id>
  <title>Paper %[1]s</title>
  <summary>Abstract of %[1]s</summary>
  <link href="%[2]s/abs/%[1]s" rel="alternate" type="text/html"/>
  <published>2025-01-15T00:00:00Z</published>
</entry>`, id, docHost)
		}
		fmt.Fprint(w, `</feed>`)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func writeConfig(t *testing.T, feedURL string) (configPath, storePath string) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "")
	dir := t.TempDir()
	storePath = filepath.Join(dir, "seen_papers.json")
	configPath = filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`
max_results: 5
notify_interval: 1ms
log_level: error
dedup:
  path: %s
fetcher:
  base_url: %s
extractor:
  timeout: 2s
publisher:
  type: stdout
`, storePath, feedURL)
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))
	return configPath, storePath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func readStore(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var ids []string
	require.NoError(t, json.Unmarshal(data, &ids))
	return ids
}

func TestOnceRecordsProcessedPapers(t *testing.T) {
	feed := feedServer(t, "2401.00001", "2401.00002")
	configPath, storePath := writeConfig(t, feed.URL)

	_, err := execute(t, "--config", configPath, "once")
	require.NoError(t, err)
	assert.Equal(t, []string{"2401.00001", "2401.00002"}, readStore(t, storePath))

	info, err := os.Stat(storePath)
	require.NoError(t, err)
	modified := info.ModTime()

	// Nothing new the second time, so the store is left untouched.
	_, err = execute(t, "--config", configPath, "once")
	require.NoError(t, err)
	info, err = os.Stat(storePath)
	require.NoError(t, err)
	assert.Equal(t, modified, info.ModTime())
}

func TestSummarizeCommand(t *testing.T) {
	feed := feedServer(t)
	configPath, _ := writeConfig(t, feed.URL)
	link := deadURL(t) + "/abs/2401.00003"

	out, err := execute(t, "--config", configPath, "summarize", link)
	require.NoError(t, err)
	assert.Contains(t, out, "*On-Demand Request*")
	assert.Contains(t, out, link)
	assert.Contains(t, out, "Error: No API Key configured.")
}

func TestSummarizeRequiresURL(t *testing.T) {
	_, err := execute(t, "summarize")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestMissingConfig(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "once")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read")
}

func TestBuildAppRejectsUnknownPublisher(t *testing.T) {
	cfg := &config.Config{
		Dedup:      config.DedupConfig{Path: filepath.Join(t.TempDir(), "seen.json")},
		Summarizer: config.SummarizerConfig{Type: "openai"},
		Publisher:  config.PublisherConfig{Type: "email"},
	}
	_, err := buildApp(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported publisher type")
}

func TestBuildAppClosesGeminiBackend(t *testing.T) {
	cfg := &config.Config{
		Dedup:      config.DedupConfig{Path: filepath.Join(t.TempDir(), "seen.json")},
		Summarizer: config.SummarizerConfig{Type: "gemini", APIKey: "test-key", Model: "gemini-1.5-flash"},
		Publisher:  config.PublisherConfig{Type: "stdout"},
	}
	a, err := buildApp(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, a.closer)
	assert.NoError(t, a.Close())
}
