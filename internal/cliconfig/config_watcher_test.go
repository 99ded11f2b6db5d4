package cliconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bft-labs/modelstation/pkg/log"
)

func TestConfigWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(`poll_interval = "1s"`), 0o644); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan FileConfig, 1)
	w := NewConfigWatcher(path, log.NewNoopLogger(), func(fc FileConfig) {
		select {
		case reloaded <- fc:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte(`poll_interval = "250ms"`), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case fc := <-reloaded:
		if fc.PollInterval != "250ms" {
			t.Errorf("PollInterval = %q, want 250ms", fc.PollInterval)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("config change not observed")
	}
}

func TestConfigWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(`poll_interval = "1s"`), 0o644); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan FileConfig, 1)
	w := NewConfigWatcher(path, log.NewNoopLogger(), func(fc FileConfig) {
		select {
		case reloaded <- fc:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reloaded:
		t.Fatal("watcher reacted to an unrelated file")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestConfigWatcher_EmptyPathIsNoop(t *testing.T) {
	w := NewConfigWatcher("", log.NewNoopLogger(), func(FileConfig) {
		t.Error("callback invoked with no path")
	})

	done := make(chan struct{})
	go func() {
		w.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return immediately for an empty path")
	}
}
