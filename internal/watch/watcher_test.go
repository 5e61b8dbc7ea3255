package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestConfigWatcher_DebouncesBurst(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "queries: []\n")

	var calls atomic.Int32
	cw, err := NewConfigWatcher(path, 100*time.Millisecond, func(context.Context) { calls.Add(1) })
	require.NoError(t, err)
	require.NoError(t, cw.Start(context.Background()))
	defer cw.Stop()

	for i := 0; i < 5; i++ {
		writeFile(t, path, "queries: []\n# edit\n")
		time.Sleep(10 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 20*time.Millisecond)
	// No second trigger for the same burst
	time.Sleep(250 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	stats := cw.Stats()
	assert.GreaterOrEqual(t, stats.Events, 1)
	assert.Equal(t, 1, stats.Triggers)
}

func TestConfigWatcher_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "queries: []\n")

	var calls atomic.Int32
	cw, err := NewConfigWatcher(path, 30*time.Millisecond, func(context.Context) { calls.Add(1) })
	require.NoError(t, err)
	require.NoError(t, cw.Start(context.Background()))
	defer cw.Stop()

	writeFile(t, filepath.Join(dir, "history.db"), "x")
	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, calls.Load())
	assert.Zero(t, cw.Stats().Events)
}

func TestConfigWatcher_RenameOver(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "queries: []\n")

	changed := make(chan struct{}, 1)
	cw, err := NewConfigWatcher(path, 30*time.Millisecond, func(context.Context) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)
	require.NoError(t, cw.Start(context.Background()))
	defer cw.Stop()

	tmp := filepath.Join(dir, ".config.yaml.swp")
	writeFile(t, tmp, "queries: [{}]\n")
	require.NoError(t, os.Rename(tmp, path))

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("rename over the config did not trigger")
	}
}

func TestConfigWatcher_StopsOnContextCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "")

	ctx, cancel := context.WithCancel(context.Background())
	cw, err := NewConfigWatcher(path, 0, nil)
	require.NoError(t, err)
	require.NoError(t, cw.Start(ctx))

	cancel()
	select {
	case <-cw.Done():
	case <-time.After(time.Second):
		t.Fatal("event loop did not exit")
	}
	cw.Stop()
	cw.Stop() // idempotent
}

func TestConfigWatcher_StartFailsForMissingDir(t *testing.T) {
	cw, err := NewConfigWatcher(filepath.Join(t.TempDir(), "absent", "config.yaml"), 0, nil)
	require.NoError(t, err)
	assert.Error(t, cw.Start(context.Background()))

	// The failed Start released the fsnotify watcher; goleak checks its goroutines.
	assert.ErrorIs(t, cw.watcher.Add(t.TempDir()), fsnotify.ErrClosed)
	cw.Stop()
}
