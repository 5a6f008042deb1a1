package watch

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const waitFor = 5 * time.Second

type run struct {
	changed []string
}

func startWatcher(t *testing.T, cfg Config) (calls <-chan run, stop func()) {
	t.Helper()
	ch := make(chan run, 16)
	user := cfg.OnChange
	cfg.OnChange = func(ctx context.Context, changed []string) error {
		ch <- run{changed: changed}
		if user != nil {
			return user(ctx, changed)
		}
		return nil
	}
	if cfg.Debounce == 0 {
		cfg.Debounce = 50 * time.Millisecond
	}
	cfg.Logger = log.New(io.Discard)

	w, err := New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	return ch, func() {
		cancel()
		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(waitFor):
			t.Fatal("Run did not return")
		}
	}
}

func write(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func next(t *testing.T, calls <-chan run) run {
	t.Helper()
	select {
	case r := <-calls:
		return r
	case <-time.After(waitFor):
		t.Fatal("no rebuild")
		return run{}
	}
}

func TestDebounceCoalesces(t *testing.T) {
	dir := t.TempDir()
	calls, stop := startWatcher(t, Config{BaseDir: dir, Patterns: []string{"**/*.go"}, Debounce: 200 * time.Millisecond})
	defer stop()

	write(t, filepath.Join(dir, "b.go"), "package p")
	write(t, filepath.Join(dir, "a.go"), "package p")

	r := next(t, calls)
	assert.Equal(t, []string{"a.go", "b.go"}, r.changed)
}

func TestIgnoresGeneratedAndUnmatched(t *testing.T) {
	dir := t.TempDir()
	calls, stop := startWatcher(t, Config{
		BaseDir:  dir,
		Patterns: []string{"**/*.go"},
		Ignore:   []string{"*_override.go"},
	})
	defer stop()

	write(t, filepath.Join(dir, "a_override.go"), "package p")
	write(t, filepath.Join(dir, "notes.txt"), "x")
	write(t, filepath.Join(dir, "a.go"), "package p")

	r := next(t, calls)
	assert.Equal(t, []string{"a.go"}, r.changed)
}

func TestWatchesNewDirectories(t *testing.T) {
	dir := t.TempDir()
	calls, stop := startWatcher(t, Config{BaseDir: dir, Patterns: []string{"**/*.go"}})
	defer stop()

	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	// даём watcher'у подписаться на новый каталог
	time.Sleep(100 * time.Millisecond)
	write(t, filepath.Join(dir, "sub", "c.go"), "package p")

	r := next(t, calls)
	assert.Equal(t, []string{"sub/c.go"}, r.changed)
}

func TestBusyRunIsNotOverlapped(t *testing.T) {
	dir := t.TempDir()
	release := make(chan struct{})
	first := true
	calls, stop := startWatcher(t, Config{
		BaseDir:  dir,
		Patterns: []string{"*.go"},
		OnChange: func(ctx context.Context, _ []string) error {
			if first {
				first = false
				select {
				case <-release:
				case <-ctx.Done():
				}
			}
			return nil
		},
	})
	defer stop()

	write(t, filepath.Join(dir, "a.go"), "package p")
	assert.Equal(t, []string{"a.go"}, next(t, calls).changed)

	// первая сборка ещё висит, изменение должно дождаться её
	write(t, filepath.Join(dir, "b.go"), "package p")
	select {
	case r := <-calls:
		t.Fatalf("overlapping run with %v", r.changed)
	case <-time.After(300 * time.Millisecond):
	}
	close(release)
	assert.Equal(t, []string{"b.go"}, next(t, calls).changed)
}

func TestInvalidPattern(t *testing.T) {
	_, err := New(Config{BaseDir: t.TempDir(), Patterns: []string{"[a-"}})
	assert.Error(t, err)
}

func TestRunTwice(t *testing.T) {
	w, err := New(Config{BaseDir: t.TempDir(), Logger: log.New(io.Discard)})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, w.Run(ctx))
	assert.Error(t, w.Run(ctx))
}
