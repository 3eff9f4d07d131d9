package watch_test

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/typeforge/typeforge/internal/watch"
)

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestRunsOnceThenOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.json")
	if err := os.WriteFile(path, []byte(`{"type":"object"}`), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var runs atomic.Int64
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		watch.Run(ctx, []string{dir}, watch.Options{
			Interval: 20 * time.Millisecond,
			Debounce: 20 * time.Millisecond,
		}, func(context.Context) error {
			runs.Add(1)
			return nil
		})
	}()

	waitFor(t, func() bool { return runs.Load() == 1 }, "initial pass")

	if err := os.WriteFile(path, []byte(`{"type":"string"}`), 0o644); err != nil {
		t.Fatalf("modify: %v", err)
	}
	waitFor(t, func() bool { return runs.Load() == 2 }, "re-run after change")

	cancel()
	<-done
}

func TestUnchangedInputsDoNotRerun(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.json"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var runs atomic.Int64
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		watch.Run(ctx, []string{dir}, watch.Options{
			Interval: 10 * time.Millisecond,
			Debounce: 10 * time.Millisecond,
		}, func(context.Context) error {
			runs.Add(1)
			return nil
		})
	}()

	waitFor(t, func() bool { return runs.Load() == 1 }, "initial pass")
	time.Sleep(200 * time.Millisecond)
	if got := runs.Load(); got != 1 {
		t.Fatalf("expected no re-runs, got %d passes", got)
	}

	cancel()
	<-done
}

func TestRapidEditsCoalesce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.json")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var runs atomic.Int64
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		watch.Run(ctx, []string{dir}, watch.Options{
			Interval: 10 * time.Millisecond,
			Debounce: 150 * time.Millisecond,
		}, func(context.Context) error {
			runs.Add(1)
			return nil
		})
	}()

	waitFor(t, func() bool { return runs.Load() == 1 }, "initial pass")

	// A burst of edits inside one debounce window.
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte{byte('0' + i)}, 0o644); err != nil {
			t.Fatalf("edit %d: %v", i, err)
		}
		time.Sleep(20 * time.Millisecond)
	}
	waitFor(t, func() bool { return runs.Load() >= 2 }, "coalesced re-run")
	time.Sleep(300 * time.Millisecond)
	if got := runs.Load(); got != 2 {
		t.Fatalf("burst should coalesce into one re-run, got %d passes", got)
	}

	cancel()
	<-done
}
