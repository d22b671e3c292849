package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"corecatalog/coreimage"
)

func newFileServer(t *testing.T) *httptest.Server {
	t.Helper()

	modified := time.Date(2024, 1, 1, 8, 30, 0, 0, time.UTC)
	mux := http.NewServeMux()
	mux.HandleFunc("/img-a.xz", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "corecatalog-test", r.Header.Get("User-Agent"))
		w.Header().Set("Last-Modified", modified.Format(http.TimeFormat))
		if r.Method == http.MethodGet {
			w.Write([]byte("image bytes"))
		}
	})
	mux.HandleFunc("/SHA256SUMS", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("h1 *img-a.xz\nh2 *img-b.xz\n"))
	})
	mux.HandleFunc("/no-header.xz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/bad-header.xz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Last-Modified", "yesterday")
	})
	mux.HandleFunc("/big", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", maxBodySize+1)))
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPFetcher_LastModified(t *testing.T) {
	srv := newFileServer(t)
	f := NewHTTPFetcher(5*time.Second, "corecatalog-test", zaptest.NewLogger(t))
	ctx := context.Background()

	modified, err := f.LastModified(ctx, srv.URL+"/img-a.xz")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 8, 30, 0, 0, time.UTC), modified.UTC())

	_, err = f.LastModified(ctx, srv.URL+"/no-header.xz")
	assert.ErrorContains(t, err, "no Last-Modified header")

	_, err = f.LastModified(ctx, srv.URL+"/bad-header.xz")
	assert.ErrorContains(t, err, "invalid Last-Modified header")

	_, err = f.LastModified(ctx, srv.URL+"/absent.xz")
	assert.ErrorContains(t, err, "404")
}

func TestHTTPFetcher_Download(t *testing.T) {
	srv := newFileServer(t)
	f := NewHTTPFetcher(5*time.Second, "corecatalog-test", zaptest.NewLogger(t))
	ctx := context.Background()

	body, err := f.Download(ctx, srv.URL+"/SHA256SUMS")
	require.NoError(t, err)
	assert.Equal(t, "h1 *img-a.xz\nh2 *img-b.xz\n", string(body))

	_, err = f.Download(ctx, srv.URL+"/absent")
	assert.Error(t, err)

	_, err = f.Download(ctx, srv.URL+"/big")
	assert.ErrorContains(t, err, "exceeds")
}

func TestHTTPFetcher_Timeout(t *testing.T) {
	srv := newFileServer(t)
	f := NewHTTPFetcher(20*time.Millisecond, "", zaptest.NewLogger(t))

	_, err := f.Download(context.Background(), srv.URL+"/slow")
	assert.Error(t, err)
}

func TestHTTPFetcher_Freshness(t *testing.T) {
	srv := newFileServer(t)
	f := NewHTTPFetcher(5*time.Second, "corecatalog-test", zaptest.NewLogger(t))

	info, err := coreimage.FetchFreshness(context.Background(), f,
		srv.URL+"/img-a.xz", srv.URL+"/"+coreimage.HashListFile, "img-a.xz")
	require.NoError(t, err)
	assert.Equal(t, "20240101", info.LastModified)
	assert.Equal(t, "h1", info.Hash)
}
