package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"content_harvester/internal/domain"
	"content_harvester/internal/service"
)

type fakeRunner struct {
	results []service.Result
	called  [][]string
}

func (f *fakeRunner) Run(_ context.Context, platforms []string) ([]service.Result, error) {
	f.called = append(f.called, platforms)
	for _, p := range platforms {
		if p != "Хабр" && p != "VC" {
			return nil, fmt.Errorf("%w: %q", service.ErrUnknownPlatform, p)
		}
	}
	return f.results, nil
}

func (f *fakeRunner) Platforms() []string {
	return []string{"Хабр", "VC"}
}

func newRouter(runner Runner) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewServer(runner, slog.New(slog.NewTextHandler(io.Discard, nil))).RegisterRoutes(r)
	return r
}

func post(r http.Handler, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/collect", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestCollect_AllSucceeded(t *testing.T) {
	runner := &fakeRunner{results: []service.Result{
		{Platform: "Хабр", Stats: &domain.HarvestStats{Platform: "Хабр", PostsCreated: 2}},
	}}

	w := post(newRouter(runner), `{"platforms":["Хабр"]}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, [][]string{{"Хабр"}}, runner.called)

	var body struct {
		Results []platformResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Results, 1)
	assert.Equal(t, "ok", body.Results[0].Status)
	assert.Equal(t, 2, body.Results[0].Stats.PostsCreated)
}

func TestCollect_AnyFailureIs500(t *testing.T) {
	runner := &fakeRunner{results: []service.Result{
		{Platform: "Хабр", Stats: &domain.HarvestStats{Platform: "Хабр"}},
		{Platform: "VC", Stats: &domain.HarvestStats{Platform: "VC", Error: "boom"}, Err: errors.New("boom")},
	}}

	w := post(newRouter(runner), `{"platforms":["Хабр","VC"]}`)

	require.Equal(t, http.StatusInternalServerError, w.Code)

	var body struct {
		Code    string           `json:"code"`
		Results []platformResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "harvest_failed", body.Code)
	require.Len(t, body.Results, 2)
	assert.Equal(t, "ok", body.Results[0].Status)
	assert.Equal(t, "failed", body.Results[1].Status)
	assert.Equal(t, "boom", body.Results[1].Error)
}

func TestCollect_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{name: "unknown platform", body: `{"platforms":["Reddit"]}`, code: "unknown_platform"},
		{name: "missing platforms", body: `{}`, code: "bad_request"},
		{name: "empty platforms", body: `{"platforms":[]}`, code: "bad_request"},
		{name: "malformed json", body: `{"platforms":`, code: "bad_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(newRouter(&fakeRunner{}), tt.body)

			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.code)
		})
	}
}

func TestHealth(t *testing.T) {
	w := httptest.NewRecorder()
	newRouter(&fakeRunner{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.JSONEq(t, `{"status":"ok","platforms":["Хабр","VC"]}`, w.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	w := httptest.NewRecorder()
	newRouter(&fakeRunner{}).ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/collect", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
}
