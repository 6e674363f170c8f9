package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Do(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/api/users", r.URL.Path)
		assert.Equal(t, "thunderbench-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"name":"Test User"}`, string(body))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":1}`))
	}))
	defer server.Close()

	client := NewClient(
		WithTimeout(5*time.Second),
		WithHeader("User-Agent", "thunderbench-test"),
		WithBaseURL(server.URL),
	)
	defer client.Close()

	req := NewRequest("POST", "/api/users").WithBody(map[string]string{"name": "Test User"})
	prepared, err := client.Prepare(req)
	require.NoError(t, err)

	resp, err := client.Do(context.Background(), prepared)
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.True(t, resp.IsSuccess())
	assert.False(t, resp.IsError())
	assert.Equal(t, int64(len(`{"id":1}`)), resp.BytesRead)
	assert.Greater(t, resp.Timing.TotalTime, time.Duration(0))

	var out map[string]int
	require.NoError(t, resp.BodyAsJSON(&out))
	assert.Equal(t, 1, out["id"])
}

func TestClient_DiscardBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithDiscardBody(), WithMaxConnections(4))
	prepared, err := client.Prepare(NewRequest("GET", "/"))
	require.NoError(t, err)

	resp, err := client.Do(context.Background(), prepared)
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.True(t, resp.IsError())
	assert.Equal(t, int64(4), resp.BytesRead)
	assert.Nil(t, resp.Body())
}

func TestClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithTimeout(50*time.Millisecond))
	prepared, err := client.Prepare(NewRequest("GET", "/slow"))
	require.NoError(t, err)

	_, err = client.Do(context.Background(), prepared)
	assert.Error(t, err)
}

func TestClient_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClient(WithBaseURL(url), WithTimeout(time.Second))
	prepared, err := client.Prepare(NewRequest("GET", "/"))
	require.NoError(t, err)

	_, err = client.Do(context.Background(), prepared)
	assert.Error(t, err)
}

func TestClient_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	prepared, err := client.Prepare(NewRequest("GET", "/"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = client.Do(ctx, prepared)
	assert.ErrorIs(t, err, context.Canceled)
}
