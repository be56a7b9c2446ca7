package watch

import (
	"os"
	"os/exec"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T) (root, gitDir string) {
	t.Helper()
	root = t.TempDir()
	cmd := exec.Command("git", "init", "-q")
	cmd.Dir = root
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git init: %v\n%s", err, out)
	}
	return root, filepath.Join(root, ".git")
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func startWatcher(t *testing.T, root, gitDir string, signals *atomic.Int32, opts ...Option) *Watcher {
	t.Helper()
	w := New(root, gitDir, func() { signals.Add(1) }, opts...)
	require.NoError(t, w.Start())
	t.Cleanup(w.Stop)
	// Give the event loop a beat to attach before mutating the tree.
	time.Sleep(50 * time.Millisecond)
	return w
}

func TestWatcher_SignalsOnWorktreeWrite(t *testing.T) {
	root, gitDir := initRepo(t)
	var signals atomic.Int32
	w := startWatcher(t, root, gitDir, &signals)
	require.False(t, w.Polling())

	write(t, filepath.Join(root, "file.txt"), "hello\n")
	require.Eventually(t, func() bool { return signals.Load() > 0 },
		2*time.Second, 10*time.Millisecond)
}

func TestWatcher_SignalsOnGitDirChange(t *testing.T) {
	root, gitDir := initRepo(t)
	var signals atomic.Int32
	startWatcher(t, root, gitDir, &signals)

	// A ref update, as a branch switch or commit would produce.
	write(t, filepath.Join(gitDir, "HEAD"), "ref: refs/heads/other\n")
	require.Eventually(t, func() bool { return signals.Load() > 0 },
		2*time.Second, 10*time.Millisecond)
}

func TestWatcher_SeesNewSubdirectories(t *testing.T) {
	root, gitDir := initRepo(t)
	var signals atomic.Int32
	startWatcher(t, root, gitDir, &signals)

	sub := filepath.Join(root, "pkg")
	require.NoError(t, os.Mkdir(sub, 0o755))
	require.Eventually(t, func() bool { return signals.Load() > 0 },
		2*time.Second, 10*time.Millisecond)

	// The new directory got its own watch, so writes inside it signal
	// too.
	time.Sleep(50 * time.Millisecond)
	before := signals.Load()
	write(t, filepath.Join(sub, "inner.txt"), "x\n")
	require.Eventually(t, func() bool { return signals.Load() > before },
		2*time.Second, 10*time.Millisecond)
}

func TestWatcher_IgnoresObjectAndLockChurn(t *testing.T) {
	root, gitDir := initRepo(t)
	var signals atomic.Int32
	startWatcher(t, root, gitDir, &signals)

	objDir := filepath.Join(gitDir, "objects", "ab")
	require.NoError(t, os.MkdirAll(objDir, 0o755))
	write(t, filepath.Join(objDir, "cdef1234"), "blob")
	write(t, filepath.Join(gitDir, "index.lock"), "")
	write(t, filepath.Join(root, "notes.swp"), "swap")

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(0), signals.Load(),
		"object, lock and swap churn must not signal")
}

func TestWatcher_CustomIgnores(t *testing.T) {
	root, gitDir := initRepo(t)
	var signals atomic.Int32
	startWatcher(t, root, gitDir, &signals, WithIgnores("build/**"))

	buildDir := filepath.Join(root, "build")
	require.NoError(t, os.Mkdir(buildDir, 0o755))
	// The mkdir itself signals (build/ is not under build/**); drain
	// and settle before the interesting part.
	time.Sleep(300 * time.Millisecond)
	before := signals.Load()

	write(t, filepath.Join(buildDir, "out.bin"), "artifact")
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, before, signals.Load(), "ignored pattern must not signal")

	write(t, filepath.Join(root, "source.go"), "package main\n")
	require.Eventually(t, func() bool { return signals.Load() > before },
		2*time.Second, 10*time.Millisecond)
}

func TestWatcher_PollingFallback(t *testing.T) {
	root, gitDir := initRepo(t)
	var signals atomic.Int32
	w := startWatcher(t, root, gitDir, &signals,
		WithForcePoll(true), WithPollInterval(30*time.Millisecond))
	require.True(t, w.Polling())

	// Backdate then touch HEAD so the mtime comparison fires even on
	// coarse-grained filesystems.
	head := filepath.Join(gitDir, "HEAD")
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(head, past, past))
	time.Sleep(100 * time.Millisecond)
	signals.Store(0)
	write(t, head, "ref: refs/heads/main\n")

	require.Eventually(t, func() bool { return signals.Load() > 0 },
		2*time.Second, 10*time.Millisecond)
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	root, gitDir := initRepo(t)
	var signals atomic.Int32
	w := New(root, gitDir, func() { signals.Add(1) })
	require.NoError(t, w.Start())
	require.NoError(t, w.Start()) // second start is a no-op

	w.Stop()
	w.Stop()

	write(t, filepath.Join(root, "late.txt"), "x\n")
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), signals.Load())
}

func TestIgnored_PatternMatching(t *testing.T) {
	root, gitDir := initRepo(t)
	w := New(root, gitDir, func() {})

	assert.True(t, w.ignored(filepath.Join(gitDir, "objects", "ab", "cdef")))
	assert.True(t, w.ignored(filepath.Join(gitDir, "index.lock")))
	assert.True(t, w.ignored(filepath.Join(root, "deep", "dir", "file.swp")))
	assert.False(t, w.ignored(filepath.Join(root, "main.go")))
	assert.False(t, w.ignored(filepath.Join(gitDir, "HEAD")))
}
