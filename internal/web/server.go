package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"rangekeeper/internal/logger"
	"rangekeeper/internal/monitor"
)

var webLogger = logger.GetForComponent("web_server")

// StatusSource exposes the monitor state the server reports.
type StatusSource interface {
	LastReport() *monitor.CycleReport
}

// WebServer serves the operational endpoints: liveness and the last cycle
// report. It is not a dashboard.
type WebServer struct {
	router *mux.Router
	port   string
	source StatusSource
}

func NewWebServer(port string, source StatusSource) *WebServer {
	ws := &WebServer{
		router: mux.NewRouter(),
		port:   port,
		source: source,
	}
	ws.setupRoutes()
	return ws
}

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")

	api := ws.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", ws.handleStatus).Methods("GET")

	ws.router.Use(ws.loggingMiddleware)
}

// Start blocks serving HTTP until the listener fails.
func (ws *WebServer) Start() error {
	server := &http.Server{
		Addr:         ":" + ws.port,
		Handler:      ws.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	webLogger.Info().Str("port", ws.port).Msg("Status server listening")
	return server.ListenAndServe()
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	ws.writeJSONResponse(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (ws *WebServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	report := ws.source.LastReport()
	if report == nil {
		ws.writeJSONResponse(w, http.StatusOK, map[string]string{"status": "no cycle completed yet"})
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, report)
}

// writeJSONResponse writes a JSON response
func (ws *WebServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		webLogger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// loggingMiddleware logs HTTP requests
func (ws *WebServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		webLogger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.statusCode).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
