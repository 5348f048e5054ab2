// Package health exposes an internal-only JSON health/metrics surface
// (SPEC_FULL.md §2.1): not a dashboard, a machine-readable probe of the
// kind api-gateway's own Handler.HealthCheck exposes for its services,
// adapted here to sharpline's own dependencies (the store) and its own
// in-process counters (cycles run, signals dispatched) instead of a
// multi-handler REST API.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Pinger is the subset of contracts.Store the health check needs to prove
// the persistence layer is reachable.
type Pinger interface {
	GetDistinctFetchTimes(ctx context.Context, start, end time.Time) ([]time.Time, error)
}

// Counters tracks process-lifetime metrics the /metrics endpoint reports.
// All fields are updated via the atomic package so the scheduler's single
// goroutine and the health server's request goroutines never race.
type Counters struct {
	CyclesRun         int64
	SignalsDetected   int64
	SignalsDispatched int64
	GraderRuns        int64
}

func (c *Counters) IncCycles()                 { atomic.AddInt64(&c.CyclesRun, 1) }
func (c *Counters) AddSignalsDetected(n int)   { atomic.AddInt64(&c.SignalsDetected, int64(n)) }
func (c *Counters) AddSignalsDispatched(n int) { atomic.AddInt64(&c.SignalsDispatched, int64(n)) }
func (c *Counters) IncGraderRuns()             { atomic.AddInt64(&c.GraderRuns, 1) }

func (c *Counters) snapshot() map[string]int64 {
	return map[string]int64{
		"cycles_run":         atomic.LoadInt64(&c.CyclesRun),
		"signals_detected":   atomic.LoadInt64(&c.SignalsDetected),
		"signals_dispatched": atomic.LoadInt64(&c.SignalsDispatched),
		"grader_runs":        atomic.LoadInt64(&c.GraderRuns),
	}
}

// Server is the health/metrics HTTP surface.
type Server struct {
	httpServer *http.Server
	startedAt  time.Time
}

// NewServer builds a chi router with /healthz (store connectivity check)
// and /metrics (process counters), bound to addr. Pass an empty addr at the
// call site to skip starting this server entirely (SPEC_FULL.md §6's
// HEALTH_ADDR, optional).
func NewServer(addr string, store Pinger, counters *Counters) *Server {
	startedAt := time.Now().UTC()

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(5 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()

		now := time.Now().UTC()
		if _, err := store.GetDistinctFetchTimes(ctx, now.Add(-time.Minute), now); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"status":     "healthy",
			"service":    "sharpline",
			"uptime_sec": int(time.Since(startedAt).Seconds()),
			"timestamp":  now,
		})
	})

	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		respondJSON(w, http.StatusOK, counters.snapshot())
	})

	return &Server{
		httpServer: &http.Server{Addr: addr, Handler: r},
		startedAt:  startedAt,
	}
}

// Run starts the server and blocks until ctx is cancelled, then shuts down
// gracefully. A nil/empty-addr Server (see NewServer) should not be Run.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
