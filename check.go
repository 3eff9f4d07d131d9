package typeforge

import (
	"context"
	"os"
	"path/filepath"
)

// Check recomputes every output unit and compares it byte-for-byte
// against the files under outDir. transform applies the same
// post-emission formatting the write path would; nil compares raw
// emitter output. It returns the paths of units whose on-disk content
// differs (a missing file counts as differing) and writes nothing.
func Check(ctx context.Context, inputs []Input, cfg Config, outDir string, transform func(string) string) ([]string, error) {
	res, err := Run(ctx, inputs, cfg)
	if err != nil {
		return nil, err
	}
	var differing []string
	for _, u := range res.Units {
		want := u.Text
		if transform != nil {
			want = transform(want)
		}
		got, err := os.ReadFile(filepath.Join(outDir, filepath.FromSlash(u.Path)))
		if err != nil || string(got) != want {
			differing = append(differing, u.Path)
		}
	}
	return differing, nil
}
