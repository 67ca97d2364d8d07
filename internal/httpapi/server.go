// Package httpapi serves the transcript service over a local HTTP API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// Server is the HTTP front end. A weighted semaphore bounds how many
// requests hit the upstream-facing service at once.
type Server struct {
	svc     *engine.Service
	version string
	sem     *semaphore.Weighted
	mux     *http.ServeMux
}

// New builds the HTTP server around a service. maxConcurrent caps in-flight
// transcript work; values below 1 are bumped to 1.
func New(svc *engine.Service, version string, maxConcurrent int64) *Server {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	s := &Server{
		svc:     svc,
		version: version,
		sem:     semaphore.NewWeighted(maxConcurrent),
		mux:     http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /transcript", s.handleTranscript)
	s.mux.HandleFunc("GET /tracks", s.handleTracks)
	s.mux.HandleFunc("GET /metadata", s.handleMetadata)
	s.mux.HandleFunc("GET /metrics", s.handleMetrics)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe runs the server until ctx is canceled, then drains
// connections.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.String("addr", addr), slog.String("version", s.version))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, engine.HealthResponse{OK: true, Version: s.version})
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	preferAuto := false
	if raw := q.Get("prefer_auto"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, engine.Ef(engine.CodeInvalidArgument, "prefer_auto: %q is not a boolean", raw))
			return
		}
		preferAuto = v
	}

	if err := s.sem.Acquire(r.Context(), 1); err != nil {
		writeError(w, err)
		return
	}
	defer s.sem.Release(1)

	resp, err := s.svc.GetTranscript(r.Context(), q.Get("url"), q.Get("lang"), preferAuto)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTracks(w http.ResponseWriter, r *http.Request) {
	if err := s.sem.Acquire(r.Context(), 1); err != nil {
		writeError(w, err)
		return
	}
	defer s.sem.Release(1)

	tracks, err := s.svc.ListTracks(r.Context(), r.URL.Query().Get("url"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, engine.TracksResponse{Tracks: tracks})
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	if err := s.sem.Acquire(r.Context(), 1); err != nil {
		writeError(w, err)
		return
	}
	defer s.sem.Release(1)

	info, err := s.svc.GetMetadata(r.Context(), r.URL.Query().Get("url"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	hits, misses := s.svc.CacheStats()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(engine.FormatMetrics(hits, misses)))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response", slog.Any("err", err))
	}
}

// writeError renders a domain error as {code, message, details} with the
// code's fixed HTTP status.
func writeError(w http.ResponseWriter, err error) {
	derr := engine.Normalize(err)
	slog.Warn("request failed", slog.String("code", string(derr.Code)), slog.String("msg", derr.Message))
	writeJSON(w, derr.Code.HTTPStatus(), derr)
}
