package docsource

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func collect(t *testing.T, ch <-chan FileEvent, want FileEvent) {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev == want {
				return
			}
		case <-timeout:
			t.Fatalf("did not receive event %+v", want)
		}
	}
}

func TestWatcherReportsChangesAndRemovals(t *testing.T) {
	dir := t.TempDir()
	events := make(chan FileEvent, 16)
	w := NewWatcher(dir, 20*time.Millisecond, func(ev FileEvent) { events <- ev })
	require.NoError(t, w.Start())
	defer w.Stop()

	path := filepath.Join(dir, "client_responses.txt")
	require.NoError(t, os.WriteFile(path, []byte("first"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("second"), 0o644))
	collect(t, events, FileEvent{Type: FileChanged, Path: "client_responses.txt"})

	require.NoError(t, os.Remove(path))
	collect(t, events, FileEvent{Type: FileRemoved, Path: "client_responses.txt"})
}

func TestWatcherFollowsNewSubdirectories(t *testing.T) {
	dir := t.TempDir()
	events := make(chan FileEvent, 16)
	w := NewWatcher(dir, 20*time.Millisecond, func(ev FileEvent) { events <- ev })
	require.NoError(t, w.Start())
	defer w.Stop()

	sub := filepath.Join(dir, "proj-001")
	require.NoError(t, os.Mkdir(sub, 0o755))
	// 等待子目录被加入监听
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "sow.txt"), []byte("scope"), 0o644))

	collect(t, events, FileEvent{Type: FileChanged, Path: "proj-001/sow.txt"})
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	w := NewWatcher(filepath.Join(t.TempDir(), "missing"), 0, nil)
	require.NoError(t, w.Start())
	w.Stop()
	w.Stop()
}
