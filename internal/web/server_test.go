package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rangekeeper/internal/monitor"
)

type fakeStatusSource struct {
	report *monitor.CycleReport
}

func (f *fakeStatusSource) LastReport() *monitor.CycleReport {
	return f.report
}

func TestHealthEndpoint(t *testing.T) {
	ws := NewWebServer("8080", &fakeStatusSource{})

	rec := httptest.NewRecorder()
	ws.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
}

func TestStatusEndpoint(t *testing.T) {
	t.Run("before first cycle", func(t *testing.T) {
		ws := NewWebServer("8080", &fakeStatusSource{})

		rec := httptest.NewRecorder()
		ws.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), "no cycle completed yet")
	})

	t.Run("with report", func(t *testing.T) {
		source := &fakeStatusSource{report: &monitor.CycleReport{
			Cycle:      3,
			StartedAt:  time.Now(),
			Evaluated:  5,
			Rebalanced: 2,
		}}
		ws := NewWebServer("8080", source)

		rec := httptest.NewRecorder()
		ws.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

		require.Equal(t, http.StatusOK, rec.Code)

		var body monitor.CycleReport
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, 3, body.Cycle)
		require.Equal(t, 5, body.Evaluated)
		require.Equal(t, 2, body.Rebalanced)
	})
}

func TestRoutesAreMethodScoped(t *testing.T) {
	ws := NewWebServer("8080", &fakeStatusSource{})

	rec := httptest.NewRecorder()
	ws.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/status", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
