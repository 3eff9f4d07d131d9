package fetch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/typeforge/typeforge/internal/fetch"
)

func TestFetchAppliesHeadersAndQuery(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		require.Equal(t, "token", r.Header.Get("X-Auth"))
		require.Equal(t, "1", r.URL.Query().Get("v"))
		w.Header().Set("Content-Type", "application/schema+json")
		_, _ = w.Write([]byte(`{"type":"string"}`))
	}))
	defer srv.Close()

	c, err := fetch.New(fetch.Options{
		Headers:     map[string]string{"X-Auth": "token"},
		QueryParams: map[string]string{"v": "1"},
	})
	require.NoError(t, err)

	res, err := c.Fetch(context.Background(), srv.URL+"/s.json")
	require.NoError(t, err)
	require.Equal(t, "application/schema+json", res.ContentType)
	require.JSONEq(t, `{"type":"string"}`, string(res.Body))

	// The second fetch of the same identity must come from the cache.
	_, err = c.Fetch(context.Background(), srv.URL+"/s.json")
	require.NoError(t, err)
	require.Equal(t, int32(1), hits.Load())
}

func TestFetchNon200IsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c, err := fetch.New(fetch.Options{})
	require.NoError(t, err)
	_, err = c.Fetch(context.Background(), srv.URL+"/missing.json")
	require.Error(t, err)
}
