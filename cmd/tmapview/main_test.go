package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recera/tmapview/cmd/tmapview/internal/config"
	"github.com/recera/tmapview/internal/storage"
	"github.com/recera/tmapview/pkg/viewer"
)

const sampleYAML = `
title: sample
series:
  - name: DATA
    x: [0, 10, 5]
    y: [0, 0, 10]
    labels: ["a__one", "b__two", "c__three"]
    variants:
      - colors: ["#ff0000", "#00ff00", "#0000ff"]
`

func newTestApp(t *testing.T) *app {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Storage.SQLitePath = filepath.Join(t.TempDir(), "bookmarks.db")
	cfg.Serve.Debounce = 20 * time.Millisecond
	return &app{cfg: cfg, log: zerolog.Nop()}
}

func writeDataset(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "points.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDatasetPath(t *testing.T) {
	a := newTestApp(t)

	_, err := a.datasetPath(nil)
	assert.Error(t, err)

	a.cfg.Dataset = "configured.yaml"
	p, err := a.datasetPath(nil)
	require.NoError(t, err)
	assert.Equal(t, "configured.yaml", p)

	p, err = a.datasetPath([]string{"arg.yaml"})
	require.NoError(t, err)
	assert.Equal(t, "arg.yaml", p)
}

func TestBoundsCommand(t *testing.T) {
	a := newTestApp(t)
	path := writeDataset(t, t.TempDir(), sampleYAML)

	out, err := execute(t, newBoundsCommand(a), path, "--series", "DATA", "--indices", "0,1")
	require.NoError(t, err)
	assert.Equal(t, "min    0 0 0\nmax    10 0 0\ncenter 5 0 0\n", out)

	out, err = execute(t, newBoundsCommand(a), path)
	require.NoError(t, err)
	assert.Contains(t, out, "max    10 10 0")

	_, err = execute(t, newBoundsCommand(a), path, "--series", "DATA", "--indices", "7")
	assert.ErrorIs(t, err, viewer.ErrVertexOutOfRange)
}

func TestSearchCommand(t *testing.T) {
	a := newTestApp(t)
	path := writeDataset(t, t.TempDir(), sampleYAML)

	out, err := execute(t, newSearchCommand(a), path, "TWO|three")
	require.NoError(t, err)
	assert.Equal(t, "DATA\t1\tb__two\nDATA\t2\tc__three\n", out)
}

func TestBookmarksCommand(t *testing.T) {
	a := newTestApp(t)

	m := storage.NewManager(a.cfg.Storage.StorageManagerConfig(), zerolog.Nop())
	require.NoError(t, m.Connect())
	b, err := storage.NewBookmark("points.yaml", "pair", "DATA", []int{0, 2}, 1.5, [3]float64{1, 2, 3})
	require.NoError(t, err)
	require.NoError(t, m.Save(b))
	require.NoError(t, m.Close())

	out, err := execute(t, newBookmarksCommand(a), "list")
	require.NoError(t, err)
	assert.Contains(t, out, "pair")
	assert.Contains(t, out, "points.yaml")

	out, err = execute(t, newBookmarksCommand(a), "show", "pair", "--dataset", "points.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "indices  0,2")
	assert.Contains(t, out, "look-at  1 2 3")

	_, err = execute(t, newBookmarksCommand(a), "delete", "pair", "--dataset", "points.yaml")
	require.NoError(t, err)

	_, err = execute(t, newBookmarksCommand(a), "show", "pair", "--dataset", "points.yaml")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestServeDatasetEndpoint(t *testing.T) {
	a := newTestApp(t)
	a.cfg.Serve.Watch = false
	path := writeDataset(t, t.TempDir(), sampleYAML)

	s, err := newServer(a, path)
	require.NoError(t, err)
	defer s.close()
	assert.Nil(t, s.watcher)
	assert.NotNil(t, s.store)

	ts := httptest.NewServer(s.handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + DatasetPath)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Title  string `json:"title"`
		Series []struct {
			Name string `json:"name"`
		} `json:"series"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "sample", body.Title)
	require.Len(t, body.Series, 1)
	assert.Equal(t, "DATA", body.Series[0].Name)
}

func TestServeReloadsChangedDataset(t *testing.T) {
	a := newTestApp(t)
	path := writeDataset(t, t.TempDir(), sampleYAML)

	s, err := newServer(a, path)
	require.NoError(t, err)
	defer s.close()
	require.NotNil(t, s.watcher)

	title := func() string {
		d, _ := s.live.Dataset()
		return d.Title
	}

	writeDataset(t, filepath.Dir(path), strings.Replace(sampleYAML, "title: sample", "title: changed", 1))
	require.Eventually(t, func() bool { return title() == "changed" }, 3*time.Second, 20*time.Millisecond)

	// a broken save keeps the last good dataset
	writeDataset(t, filepath.Dir(path), "series: [")
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, "changed", title())
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })

	_, err = execute(t, newInitCommand())
	require.NoError(t, err)

	cfg, err := config.Load(dir, "")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)

	_, err = execute(t, newInitCommand())
	assert.Error(t, err)
	_, err = execute(t, newInitCommand(), "--force")
	assert.NoError(t, err)
}
