package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"travelplan/internal/api/controllers"
	"travelplan/internal/config"
	"travelplan/internal/repositories"
	"travelplan/internal/services"
	"travelplan/pkg/memcache"
)

func testRouter(t *testing.T, planner *httptest.Server) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg, err := config.FromLookup(func(key string) string {
		switch key {
		case "ITINERARY_SERVICE_URL":
			return planner.URL
		case "FETCH_INITIAL_DELAY":
			return "1ms"
		}
		return ""
	})
	require.NoError(t, err)

	logger := zap.NewNop()
	relay := services.NewPlacesRelayService(cfg, memcache.NewInMemoryCache(), logger)
	directory := services.NewPlacesRelayClient(cfg, services.NewRetryingFetcher(nil, "places_relay", logger))
	enricher := services.NewEnrichmentService(services.NewPlaceResolver(directory, logger), cfg.EnrichMaxConcurrency, logger)
	plans := services.NewPlanRetrievalService(cfg, services.NewRetryingFetcher(planner.Client(), "itinerary", logger), enricher, repositories.NewInMemoryPlanSnapshotRepository(), logger)
	t.Cleanup(plans.Shutdown)

	return ProvideRouter(cfg, logger,
		controllers.NewPlanController(plans, logger),
		controllers.NewPlacesController(relay, logger))
}

func TestRouter_EndToEndWithoutPlacesKey(t *testing.T) {
	planner := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/generate-plan/lisbon-weekend", r.URL.Path)
		w.Write([]byte(`{
			"trip_name": "Lisbon",
			"daily_plan": [{"day": 1, "city": "Lisbon", "activities": [
				{"title": "Belem Tower", "type": "landmark", "location": {"name": "Torre de Belem"}}
			]}]
		}`))
	}))
	defer planner.Close()
	r := testRouter(t, planner)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/plans/lisbon-weekend/retrieve?wait=true", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `"status":"ready"`)
	assert.Contains(t, body, `"display_name":"Plan for: Lisbon Weekend"`)
	assert.Contains(t, body, `query=Torre%20de%20Belem`)
	assert.Contains(t, body, `"category":"sightseeing"`)
	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plans/lisbon-weekend/snapshot", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/google-places", strings.NewReader(`{"operation":"findplacefromtext","query":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRouter_AsyncRetrievalAndOps(t *testing.T) {
	planner := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"trip_name": "Porto", "daily_plan": []}`))
	}))
	defer planner.Close()
	r := testRouter(t, planner)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/plans/porto/retrieve", nil))
	assert.Equal(t, http.StatusAccepted, w.Code)

	assert.Eventually(t, func() bool {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plans/porto", nil))
		return strings.Contains(w.Body.String(), `"status":"ready"`)
	}, 2*time.Second, 10*time.Millisecond)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "travelplan_plan_retrievals_total")
}
