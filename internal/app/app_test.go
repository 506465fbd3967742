package app

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbweber/homelab/shelf/internal/config"
	"github.com/jbweber/homelab/shelf/internal/testutil"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	a, err := New(config.NewConfig(), testutil.SetupSeededDatastore(t), zerolog.Nop())
	require.NoError(t, err)
	return a
}

func TestApp_Routes(t *testing.T) {
	h := newTestApp(t).Handler()

	tests := []struct {
		path string
		want int
	}{
		{"/", http.StatusFound},
		{"/healthz", http.StatusOK},
		{"/api/products", http.StatusOK},
		{"/api/categories/1", http.StatusOK},
		{"/products", http.StatusOK},
		{"/products/details/1", http.StatusOK},
		{"/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestApp_RequestID(t *testing.T) {
	h := newTestApp(t).Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products", nil))

	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestApp_HealthUnavailable(t *testing.T) {
	ds := testutil.SetupTestDatastore(t)
	a, err := New(config.NewConfig(), ds, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, ds.DB.Close())

	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestApp_ServeAndShutdown(t *testing.T) {
	a := newTestApp(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok\n", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
