package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter(t *testing.T) {
	s := &server{logger: zerolog.Nop()}
	ts := httptest.NewServer(newRouter(s))
	defer ts.Close()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"root", http.MethodGet, "/", "", http.StatusOK},
		{"health", http.MethodGet, "/health", "", http.StatusOK},
		{"list", http.MethodGet, "/api/test", "", http.StatusOK},
		{"get", http.MethodGet, "/api/test/7", "", http.StatusOK},
		{"create", http.MethodPost, "/api/test", `{"name":"x"}`, http.StatusCreated},
		{"bad body", http.MethodPost, "/api/test", `{`, http.StatusBadRequest},
		{"unknown", http.MethodGet, "/nope", "", http.StatusNotFound},
		{"wrong method", http.MethodDelete, "/api/test", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, ts.URL+tt.path, strings.NewReader(tt.body))
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestCreateAssignsIDs(t *testing.T) {
	s := &server{logger: zerolog.Nop()}
	ts := httptest.NewServer(newRouter(s))
	defer ts.Close()

	for want := 1; want <= 2; want++ {
		resp, err := http.Post(ts.URL+"/api/test", "application/json", strings.NewReader(`{"name":"x"}`))
		require.NoError(t, err)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		resp.Body.Close()
		assert.Equal(t, float64(want), body["id"])
		assert.Equal(t, "x", body["name"])
	}
}
