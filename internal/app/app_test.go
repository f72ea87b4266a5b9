package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/student-tracker/internal/config"
	"github.com/riskibarqy/student-tracker/internal/domain/profile"
	"github.com/riskibarqy/student-tracker/internal/platform/logging"
)

func newFakeTracker(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.URL.Path == "/students" {
			_, _ = io.WriteString(w, `[{"_id":"s1","name":"Ada","email":"ada@example.com","phone":"1","cfHandle":"ada","currentRating":1500,"maxRating":1720}]`)
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(trackerURL string) config.Config {
	return config.Config{
		AppEnv:                       config.EnvDev,
		ServiceName:                  "student-tracker-dashboard",
		ServiceVersion:               "test",
		HTTPAddr:                     "127.0.0.1:0",
		ShutdownTimeout:              5 * time.Second,
		CORSAllowedOrigins:           []string{"*"},
		TrackerAPIBaseURL:            trackerURL,
		TrackerAPITimeout:            5 * time.Second,
		TrackerCircuitEnabled:        true,
		TrackerCircuitFailureCount:   5,
		TrackerCircuitOpenTimeout:    time.Second,
		TrackerCircuitHalfOpenMaxReq: 1,
		RosterDispatchWorkers:        2,
		ProfileDefaultWindow:         profile.DefaultWindow,
		ProfileSessionTTL:            time.Minute,
		MetricsEnabled:               true,
	}
}

func TestNew_RejectsEmptyAddr(t *testing.T) {
	cfg := testConfig("http://tracker.local")
	cfg.HTTPAddr = ""

	if _, err := New(cfg, logging.NewNop()); err == nil {
		t.Fatalf("expected error for empty http addr")
	}
}

func TestNew_RejectsInvalidTrackerURL(t *testing.T) {
	if _, err := New(testConfig("tracker.local"), logging.NewNop()); err == nil {
		t.Fatalf("expected error for relative tracker url")
	}
}

func TestApp_ServesRosterFromTracker(t *testing.T) {
	tracker := newFakeTracker(t)

	a, err := New(testConfig(tracker.URL), logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })

	refresh := httptest.NewRecorder()
	a.Handler().ServeHTTP(refresh, httptest.NewRequest(http.MethodPost, "/v1/roster/refresh", nil))
	require.Equal(t, http.StatusOK, refresh.Code, refresh.Body.String())

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/roster", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Ada"`)
	assert.Contains(t, rec.Body.String(), tracker.URL+"/students/download/csv")

	metricsRec := httptest.NewRecorder()
	a.Handler().ServeHTTP(metricsRec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, metricsRec.Code)
	assert.True(t, strings.Contains(metricsRec.Body.String(), "student_tracker_dashboard_roster_students"))
}

func TestApp_MetricsDisabledHidesEndpoint(t *testing.T) {
	cfg := testConfig(newFakeTracker(t).URL)
	cfg.MetricsEnabled = false

	a, err := New(cfg, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApp_RunLoadsRosterAndStopsOnCancel(t *testing.T) {
	cfg := testConfig(newFakeTracker(t).URL)
	cfg.RosterLoadOnStart = true

	a, err := New(cfg, logging.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(a.roster.View().Rows) == 1
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not return after cancel")
	}
}
