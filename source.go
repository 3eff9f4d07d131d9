package typeforge

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/typeforge/typeforge/internal/diag"
	"github.com/typeforge/typeforge/internal/fetch"
	"github.com/typeforge/typeforge/internal/frontend"
	"github.com/typeforge/typeforge/internal/rawnode"
)

// Format tags an input document's syntax. Empty means auto-detect.
type Format = frontend.Format

// Input formats.
const (
	FormatAuto       = frontend.FormatAuto
	FormatJSONSchema = frontend.FormatJSONSchema
	FormatOpenAPI    = frontend.FormatOpenAPI
	FormatGraphQL    = frontend.FormatGraphQL
	FormatSample     = frontend.FormatSample
)

// Input names one schema source: a file path, a directory to recurse
// into, or an http(s) URL.
type Input struct {
	Ref    string
	Format Format
}

// schemaExt reports whether a directory entry looks like a schema
// document worth ingesting.
func schemaExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml", ".graphql", ".gql":
		return true
	}
	return false
}

func isURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// sourceLoader reads documents on demand: seed inputs during ingestion
// and reference targets the resolver discovers later. It owns the shared
// node set and registers every loaded document there, per the
// resolver.Loader contract. Remote fetches go through the caching fetch
// client.
type sourceLoader struct {
	client *fetch.Client
	set    *rawnode.Set
}

func newSourceLoader(opts FetchOptions) (*sourceLoader, error) {
	client, err := fetch.New(fetch.Options{
		Headers:       opts.Headers,
		QueryParams:   opts.QueryParams,
		SkipTLSVerify: opts.SkipTLSVerify,
		Timeout:       opts.Timeout,
		CacheSize:     opts.CacheSize,
	})
	if err != nil {
		return nil, err
	}
	return &sourceLoader{client: client, set: rawnode.NewSet()}, nil
}

// Load satisfies resolver.Loader for cross-document references.
func (l *sourceLoader) Load(ctx context.Context, docID string) (*rawnode.Document, error) {
	if doc, ok := l.set.Document(docID); ok {
		return doc, nil
	}
	doc, err := l.load(ctx, docID, FormatAuto)
	if err != nil {
		return nil, err
	}
	l.set.AddDocument(doc)
	return doc, nil
}

func (l *sourceLoader) load(ctx context.Context, ref string, format Format) (*rawnode.Document, error) {
	var data []byte
	if isURL(ref) {
		res, err := l.client.Fetch(ctx, ref)
		if err != nil {
			return nil, &diag.MalformedInputError{Document: ref, Cause: err}
		}
		data = res.Body
	} else {
		var err error
		data, err = os.ReadFile(ref)
		if err != nil {
			return nil, &diag.MalformedInputError{Document: ref, Cause: err}
		}
	}
	doc, err := frontend.Parse(filepath.ToSlash(ref), data, format)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ingest expands inputs (directories recurse) and parses every document
// into one raw-node set.
func (l *sourceLoader) ingest(ctx context.Context, inputs []Input) (*rawnode.Set, error) {
	count := 0
	for _, in := range inputs {
		refs, err := expand(in)
		if err != nil {
			return nil, err
		}
		for _, ref := range refs {
			doc, err := l.load(ctx, ref, in.Format)
			if err != nil {
				return nil, err
			}
			l.set.AddDocument(doc)
			count++
		}
	}
	if count == 0 {
		return nil, fmt.Errorf("no input documents")
	}
	return l.set, nil
}

// expand turns one input ref into concrete document refs, in sorted walk
// order for directories.
func expand(in Input) ([]string, error) {
	if isURL(in.Ref) {
		return []string{in.Ref}, nil
	}
	info, err := os.Stat(in.Ref)
	if err != nil {
		return nil, &diag.MalformedInputError{Document: in.Ref, Cause: err}
	}
	if !info.IsDir() {
		return []string{in.Ref}, nil
	}
	var refs []string
	err = filepath.WalkDir(in.Ref, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && schemaExt(d.Name()) {
			refs = append(refs, path)
		}
		return nil
	})
	if err != nil {
		return nil, &diag.MalformedInputError{Document: in.Ref, Cause: err}
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("directory %s holds no schema documents", in.Ref)
	}
	return refs, nil
}
