package komga

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerScan_RetriesOn503ThenSucceeds(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL, LibraryID: "lib1"}, nil)
	err := c.TriggerScan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestTriggerScan_AbortsImmediatelyOn401(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL, LibraryID: "lib1"}, nil)
	err := c.TriggerScan(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestListSeriesPage_ParsesPage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"id":"s1"}],"last":true}`))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL, LibraryID: "lib1"}, nil)
	page, err := c.ListSeriesPage(context.Background(), 0)
	require.NoError(t, err)
	assert.True(t, page.Last)
	assert.Len(t, page.Content, 1)
}
