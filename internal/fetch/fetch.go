// Package fetch implements the remote-document collaborator: plain GET
// with optional headers, query parameters, TLS-verification toggle and
// timeout, plus an LRU cache keyed by absolute document identity so a
// document referenced from many places is fetched once per run.
package fetch

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultCacheSize = 256

// Result is a fetched document plus its content-type hint.
type Result struct {
	Body        []byte
	ContentType string
}

// Fetcher retrieves remote documents. Implementations must be safe for
// sequential reuse across one run; the engine never fetches concurrently
// for the same identity.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Result, error)
}

// Options mirrors the fetch section of the engine policy bag.
type Options struct {
	Headers       map[string]string
	QueryParams   map[string]string
	SkipTLSVerify bool
	Timeout       time.Duration
	CacheSize     int
}

// Client is the HTTP-backed Fetcher.
type Client struct {
	http  *http.Client
	opts  Options
	cache *lru.Cache[string, Result]
}

// New builds a Client from options. A zero timeout defaults to 30s.
func New(opts Options) (*Client, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	size := opts.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[string, Result](size)
	if err != nil {
		return nil, fmt.Errorf("fetch cache: %w", err)
	}
	transport := http.DefaultTransport
	if opts.SkipTLSVerify {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		transport = t
	}
	return &Client{
		http:  &http.Client{Timeout: timeout, Transport: transport},
		opts:  opts,
		cache: cache,
	}, nil
}

// Fetch GETs a document, applying configured headers and query parameters.
// Responses are cached by the absolute request URL.
func (c *Client) Fetch(ctx context.Context, rawURL string) (Result, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Result{}, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	if len(c.opts.QueryParams) > 0 {
		q := u.Query()
		for k, v := range c.opts.QueryParams {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	key := u.String()
	if res, ok := c.cache.Get(key); ok {
		return res, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, key, nil)
	if err != nil {
		return Result{}, fmt.Errorf("fetch %s: %w", key, err)
	}
	for k, v := range c.opts.Headers {
		req.Header.Set(k, v)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("fetch %s: %w", key, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("fetch %s: unexpected status %s", key, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("fetch %s: read body: %w", key, err)
	}
	res := Result{Body: body, ContentType: resp.Header.Get("Content-Type")}
	c.cache.Add(key, res)
	return res, nil
}
