package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.pdf"), 10)
	writeFile(t, filepath.Join(root, "a.PDF"), 10)
	writeFile(t, filepath.Join(root, "notes.txt"), 10)
	writeFile(t, filepath.Join(root, "sub", "c.pdf"), 10)
	writeFile(t, filepath.Join(root, ".cache", "d.pdf"), 10)
	writeFile(t, filepath.Join(root, "huge.pdf"), 5000)

	paths, stats, err := Scan(context.Background(), root, ScanOptions{SkipHidden: true, MaxBytes: 1000}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "a.PDF"),
		filepath.Join(root, "b.pdf"),
		filepath.Join(root, "sub", "c.pdf"),
	}, paths)
	assert.EqualValues(t, 3, stats.Matched)
	assert.EqualValues(t, 1, stats.Skipped)
	assert.Zero(t, stats.Failed)
}

func TestScan_IncludesHiddenWhenAsked(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".cache", "d.pdf"), 1)

	paths, _, err := Scan(context.Background(), root, ScanOptions{}, nil)
	require.NoError(t, err)
	assert.Len(t, paths, 1)
}

func TestScan_Errors(t *testing.T) {
	_, _, err := Scan(context.Background(), " ", ScanOptions{}, nil)
	assert.Error(t, err)

	_, _, err = Scan(context.Background(), filepath.Join(t.TempDir(), "missing"), ScanOptions{}, nil)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = Scan(ctx, t.TempDir(), ScanOptions{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsHidden(t *testing.T) {
	assert.True(t, IsHidden("/x/.git"))
	assert.False(t, IsHidden("/x/report.pdf"))
}

func receive(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case p := <-ch:
		return p
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watcher event")
		return ""
	}
}

func TestWatch(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "existing.pdf")
	writeFile(t, existing, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := Watch(ctx, WatchConfig{Roots: []string{root}, InitialScan: true, Debounce: 50 * time.Millisecond}, nil)
	require.NoError(t, err)

	assert.Equal(t, existing, receive(t, events))

	writeFile(t, filepath.Join(root, "ignored.txt"), 1)
	created := filepath.Join(root, "new.pdf")
	writeFile(t, created, 1)
	assert.Equal(t, created, receive(t, events))

	cancel()
	for range events {
	}
}

func TestWatch_NoRoots(t *testing.T) {
	_, _, err := Watch(context.Background(), WatchConfig{}, nil)
	assert.Error(t, err)
}
