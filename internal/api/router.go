package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/canslim/internal/api/handlers"
	"github.com/wonny/canslim/internal/telemetry"
	"github.com/wonny/canslim/pkg/logger"
)

// Handlers groups the endpoint handlers; Filings and Stream are optional
type Handlers struct {
	Screen  *handlers.ScreenHandler
	Filings *handlers.FilingsHandler
	Stream  *handlers.StreamHandler
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, metrics *telemetry.Metrics, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", healthCheckHandler).Methods("GET")
	r.Handle("/metrics", metrics.Handler()).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/screen", h.Screen.Screen).Methods("POST")
	api.HandleFunc("/results/{ticker}", h.Screen.GetResult).Methods("GET")
	api.HandleFunc("/universes", h.Screen.ListUniverses).Methods("GET")
	if h.Filings != nil {
		api.HandleFunc("/filings/{ticker}", h.Filings.GetFilings).Methods("GET")
	}

	if h.Stream != nil {
		r.HandleFunc("/ws/screen", h.Stream.Stream).Methods("GET")
	}

	r.Use(loggingMiddleware(log, metrics))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "canslim-api",
	})
}
