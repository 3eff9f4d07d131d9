// Package watch re-runs a pipeline pass when watched inputs change. It
// polls content hashes rather than subscribing to filesystem events, so
// it behaves the same on every platform and never misses an editor's
// replace-by-rename.
package watch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Runner executes one full pipeline pass.
type Runner func(ctx context.Context) error

// Options tunes the polling loop.
type Options struct {
	// Interval is the hash-poll period; zero means 500ms.
	Interval time.Duration
	// Debounce is the quiet period after the last observed change before
	// a re-run starts; zero means 300ms.
	Debounce time.Duration
	Logger   *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = 500 * time.Millisecond
	}
	if o.Debounce <= 0 {
		o.Debounce = 300 * time.Millisecond
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

// Run performs an initial pass, then re-runs on changes until the context
// is cancelled. Changes observed during a pass coalesce into exactly one
// follow-up pass; a pass in progress is never interrupted. A failed pass
// is logged and the loop keeps watching.
func Run(ctx context.Context, paths []string, opts Options, run Runner) error {
	opts = opts.withDefaults()

	if err := run(ctx); err != nil {
		opts.Logger.Error("pipeline pass failed", "error", err)
	}
	last := snapshot(paths)

	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	dirty := false
	var changedAt time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		now := snapshot(paths)
		if !equal(now, last) {
			last = now
			dirty = true
			changedAt = time.Now()
			opts.Logger.Debug("change detected", "files", len(now))
			continue
		}
		if dirty && time.Since(changedAt) >= opts.Debounce {
			dirty = false
			if err := run(ctx); err != nil {
				opts.Logger.Error("pipeline pass failed", "error", err)
			}
			// Re-snapshot so output side effects under a watched path do
			// not immediately retrigger.
			last = snapshot(paths)
		}
	}
}

// snapshot hashes every regular file reachable from paths. Unreadable
// entries hash to a removal marker so deletions count as changes.
func snapshot(paths []string) map[string]string {
	out := map[string]string{}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			out[p] = "gone"
			continue
		}
		if !info.IsDir() {
			out[p] = hashFile(p)
			continue
		}
		filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			out[path] = hashFile(path)
			return nil
		})
	}
	return out
}

func hashFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return "gone"
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func equal(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
