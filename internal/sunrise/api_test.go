package sunrise

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIClient_Sunrise(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "31.778", q.Get("lat"))
		assert.Equal(t, "35.235", q.Get("lng"))
		assert.Equal(t, "2025-06-01", q.Get("date"))
		assert.Equal(t, "0", q.Get("formatted"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":{"sunrise":"2025-06-01T02:33:47+00:00","sunset":"2025-06-01T16:40:12+00:00"},"status":"OK"}`))
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, Location{Lat: 31.778, Lon: 35.235}, srv.Client())
	got, err := c.Sunrise(context.Background(), time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, time.June, 1, 2, 33, 47, 0, time.UTC)), "got %s", got)
}

func TestAPIClient_StatusNotOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results":"","status":"INVALID_REQUEST"}`))
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, Location{}, srv.Client())
	_, err := c.Sunrise(context.Background(), time.Now())
	require.ErrorIs(t, err, ErrLookupFailed)
}

func TestAPIClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, Location{}, srv.Client())
	_, err := c.Sunrise(context.Background(), time.Now())
	require.ErrorIs(t, err, ErrLookupFailed)
}

func TestAPIClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewAPIClient(url, Location{}, nil)
	_, err := c.Sunrise(context.Background(), time.Now())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrLookupFailed)
}
