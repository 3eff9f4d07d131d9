// Package writer persists emitted files. Every file lands via a
// write-then-rename in its final directory, so an interrupted run never
// leaves a partially written file visible.
package writer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File is one output to persist.
type File struct {
	Path    string // slash-separated, relative to the destination root
	Content []byte
}

// Tree writes every file under root, creating directories as needed.
func Tree(root string, files []File) error {
	for _, f := range files {
		dst := filepath.Join(root, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
		if err := atomic(dst, f.Content); err != nil {
			return err
		}
	}
	return nil
}

// Blob concatenates every file into one destination file, in emission
// order. Used when the destination names a file rather than a directory.
func Blob(dst string, files []File) error {
	var b strings.Builder
	for _, f := range files {
		b.Write(f.Content)
		if len(f.Content) > 0 && f.Content[len(f.Content)-1] != '\n' {
			b.WriteByte('\n')
		}
	}
	if dir := filepath.Dir(dst); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	return atomic(dst, []byte(b.String()))
}

// atomic writes content next to dst and renames it into place.
func atomic(dst string, content []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return fmt.Errorf("stage output file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", dst, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", dst, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", dst, err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", dst, err)
	}
	return nil
}
