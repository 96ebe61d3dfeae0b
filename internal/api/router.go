package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/fundscope/internal/api/handlers"
	"github.com/wonny/fundscope/internal/metrics"
	"github.com/wonny/fundscope/internal/store"
	"github.com/wonny/fundscope/pkg/logger"
	"github.com/wonny/fundscope/pkg/redis"
)

// RouterDeps holds everything the router wires into handlers
type RouterDeps struct {
	Store     *store.MemoryStore
	Service   *metrics.Service
	Persister handlers.Persister // nil = 메모리 전용

	Cache       *redis.Cache       // nil/disabled = 캐시 없음
	Limiter     *redis.RateLimiter // nil/disabled = 로컬 버킷
	ProfileHash string
	CacheTTL    time.Duration

	RateLimitRPS   float64
	RateLimitBurst int
	MaxUploadBytes int64

	Logger *logger.Logger
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(d RouterDeps) http.Handler {
	log := d.Logger
	if log == nil {
		log = logger.Nop()
	}
	log = log.Component("api")

	dataHandler := handlers.NewDataHandler(d.Store, d.Persister, d.MaxUploadBytes, log)
	fundHandler := handlers.NewFundHandler(d.Store, log)
	analytics := handlers.NewAnalyticsHandler(d.Service, log)

	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(rateLimitMiddleware(d.RateLimitRPS, d.RateLimitBurst, d.Limiter, log))

	// Dataset lifecycle
	api.HandleFunc("/upload", dataHandler.Upload).Methods(http.MethodPost)
	api.HandleFunc("/data-status", dataHandler.Status).Methods(http.MethodGet)
	api.HandleFunc("/data", dataHandler.Clear).Methods(http.MethodDelete)

	// Funds (데이터 필요)
	funds := api.PathPrefix("/funds").Subrouter()
	funds.Use(dataHandler.RequireData)
	funds.HandleFunc("", fundHandler.List).Methods(http.MethodGet)
	funds.HandleFunc("/compare", fundHandler.Compare).Methods(http.MethodPost)
	funds.HandleFunc("/{id:[0-9]+}", fundHandler.Get).Methods(http.MethodGet)

	// Analytics (데이터 필요, 응답 캐시)
	calc := api.NewRoute().Subrouter()
	calc.Use(dataHandler.RequireData)
	calc.Use(responseCacheMiddleware(d.Cache, d.Store.Revision, d.ProfileHash, d.CacheTTL, log))

	calc.HandleFunc("/returns/multiple", analytics.MultipleReturns).Methods(http.MethodPost)
	calc.HandleFunc("/returns/{id:[0-9]+}", analytics.Returns).Methods(http.MethodGet)

	calc.HandleFunc("/performance/compare", analytics.Compare).Methods(http.MethodPost)
	calc.HandleFunc("/performance/rolling-returns", analytics.Rolling).Methods(http.MethodPost)
	calc.HandleFunc("/performance/{id:[0-9]+}", analytics.Performance).Methods(http.MethodGet)
	calc.HandleFunc("/performance/{id:[0-9]+}/calendar-years", analytics.CalendarYears).Methods(http.MethodGet)

	calc.HandleFunc("/risk/batch", analytics.BatchRisk).Methods(http.MethodPost)
	calc.HandleFunc("/risk/correlation-matrix", analytics.Correlation).Methods(http.MethodPost)
	calc.HandleFunc("/risk/{id:[0-9]+}", analytics.Risk).Methods(http.MethodGet)
	calc.HandleFunc("/risk/{id:[0-9]+}/drawdown", analytics.Drawdown).Methods(http.MethodGet)

	calc.HandleFunc("/report/{id:[0-9]+}", analytics.Report).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, "Route not found")
	})

	// Apply middleware (outermost first)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "fundscope-api",
	})
}
