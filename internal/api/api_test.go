package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0x0BSoD/ansaNewsBot/internal/model"
)

type fakeStorage struct {
	categories []model.Category
	ids        []int64
	err        error
}

func (s fakeStorage) Categories(context.Context) ([]model.Category, error) { return s.categories, s.err }
func (s fakeStorage) IDs(context.Context) ([]int64, error)                 { return s.ids, s.err }

func newTestServer(s fakeStorage) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(NewHandler(s, s, logger), logger)
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	rec := get(t, newTestServer(fakeStorage{}), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListDestinations(t *testing.T) {
	h := newTestServer(fakeStorage{ids: []int64{-100, 42}})

	rec := get(t, h, "/api/destinations")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[-100, 42]`, rec.Body.String())

	rec = get(t, newTestServer(fakeStorage{}), "/api/destinations")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestListCategories(t *testing.T) {
	h := newTestServer(fakeStorage{categories: []model.Category{
		{ID: 7, Name: "Lazio", FeedURL: "https://www.ansa.it/lazio/notizie/lazio_rss.xml", Watermark: 1200},
	}})

	rec := get(t, h, "/api/categories")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Lazio", got[0]["name"])
	assert.Equal(t, "https://www.ansa.it/lazio/notizie/lazio_rss.xml", got[0]["feed_url"])
	assert.EqualValues(t, 1200, got[0]["watermark"])
	assert.EqualValues(t, 7, got[0]["id"])
}

func TestStorageError(t *testing.T) {
	h := newTestServer(fakeStorage{err: errors.New("db closed")})

	assert.Equal(t, http.StatusInternalServerError, get(t, h, "/api/categories").Code)
	assert.Equal(t, http.StatusInternalServerError, get(t, h, "/api/destinations").Code)
}

func TestServeStopsOnCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, addr, newTestServer(fakeStorage{})) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}
