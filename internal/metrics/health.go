package metrics

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"watchlist-systemv1/internal/model"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthStatus represents the system health.
type HealthStatus struct {
	mu sync.RWMutex

	StoreOK        bool      `json:"store_ok"`
	StoreLatencyMs float64   `json:"store_latency_ms"`
	LastTickTime   time.Time `json:"last_tick_time"`
	LastCheckAt    time.Time `json:"last_check_at"`
	StartedAt      time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{
		StartedAt: time.Now(),
	}
}

func (h *HealthStatus) SetStoreOK(v bool) {
	h.mu.Lock()
	h.StoreOK = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetLastTickTime(t time.Time) {
	h.mu.Lock()
	h.LastTickTime = t
	h.mu.Unlock()
}

// CheckStore round-trips a probe read against the KV store and records
// latency + health.
func (h *HealthStatus) CheckStore(ctx context.Context, kv model.KVStore) {
	start := time.Now()
	_, _, err := kv.Get(ctx, "healthcheck")
	latency := time.Since(start)

	h.mu.Lock()
	h.StoreOK = err == nil
	h.StoreLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, kv model.KVStore, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				h.CheckStore(probeCtx, kv)
				cancel()
			}
		}
	}()
}

// ServeHTTP renders the current health as JSON. Degraded store health
// reports 503 so orchestrators can act on it.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	status := struct {
		Status         string  `json:"status"`
		Uptime         string  `json:"uptime"`
		StoreOK        bool    `json:"store_ok"`
		StoreLatencyMs float64 `json:"store_latency_ms"`
		LastTickTime   string  `json:"last_tick_time"`
		LastCheckAt    string  `json:"last_check_at"`
	}{
		Status:         "ok",
		Uptime:         time.Since(h.StartedAt).Round(time.Second).String(),
		StoreOK:        h.StoreOK,
		StoreLatencyMs: h.StoreLatencyMs,
		LastTickTime:   h.LastTickTime.Format(time.RFC3339),
		LastCheckAt:    h.LastCheckAt.Format(time.RFC3339),
	}
	storeOK := h.StoreOK
	h.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if !storeOK {
		status.Status = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
