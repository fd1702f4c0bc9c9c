package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Pinger checks a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// LanguageLister reports the languages with a cached evaluator
type LanguageLister interface {
	Languages() []string
}

// HealthServer provides HTTP health, metrics and engine endpoints
type HealthServer struct {
	port     int
	redis    Pinger
	engines  LanguageLister
	gatherer prometheus.Gatherer
	logger   *zap.Logger
	server   *http.Server
}

// NewHealthServer creates a new health server
func NewHealthServer(
	port int,
	redis Pinger,
	engines LanguageLister,
	gatherer prometheus.Gatherer,
	logger *zap.Logger,
) *HealthServer {
	return &HealthServer{
		port:     port,
		redis:    redis,
		engines:  engines,
		gatherer: gatherer,
		logger:   logger,
	}
}

// Handler returns the HTTP handler serving all endpoints
func (hs *HealthServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", hs.handleHealth)
	mux.HandleFunc("/ready", hs.handleReady)
	mux.HandleFunc("/engines", hs.handleEngines)
	if hs.gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(hs.gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

// Start starts the health check server
func (hs *HealthServer) Start() error {
	hs.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", hs.port),
		Handler:           hs.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	hs.logger.Info("starting health server", zap.Int("port", hs.port))

	go func() {
		if err := hs.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			hs.logger.Error("health server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop stops the health check server
func (hs *HealthServer) Stop(ctx context.Context) error {
	if hs.server == nil {
		return nil
	}

	hs.logger.Info("stopping health server")
	return hs.server.Shutdown(ctx)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// EnginesResponse lists the languages resolved so far
type EnginesResponse struct {
	Languages []string `json:"languages"`
}

// pingRedis reports whether Redis answers within two seconds
func (hs *HealthServer) pingRedis(r *http.Request) error {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	return hs.redis.Ping(ctx).Err()
}

func (hs *HealthServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := hs.pingRedis(r); err != nil {
		hs.respondJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "unhealthy",
			Checks: map[string]string{"redis": fmt.Sprintf("unhealthy: %v", err)},
		})
		return
	}

	hs.respondJSON(w, http.StatusOK, HealthResponse{
		Status: "healthy",
		Checks: map[string]string{"redis": "healthy"},
	})
}

func (hs *HealthServer) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := hs.pingRedis(r); err != nil {
		hs.respondJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "not ready"})
		return
	}
	hs.respondJSON(w, http.StatusOK, HealthResponse{Status: "ready"})
}

// handleEngines handles the /engines endpoint
func (hs *HealthServer) handleEngines(w http.ResponseWriter, _ *http.Request) {
	languages := []string{}
	if hs.engines != nil {
		languages = append(languages, hs.engines.Languages()...)
	}
	hs.respondJSON(w, http.StatusOK, EnginesResponse{Languages: languages})
}

// respondJSON writes a JSON response
func (hs *HealthServer) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		hs.logger.Error("failed to encode response", zap.Error(err))
	}
}
