// Package server exposes the dashboard state over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/PalMeany/l7-dstat/internal/config"
	"github.com/PalMeany/l7-dstat/internal/errs"
	"github.com/PalMeany/l7-dstat/internal/ingest"
	"github.com/PalMeany/l7-dstat/internal/server/middleware"
	"github.com/PalMeany/l7-dstat/model"
)

const shutdownTimeout = 5 * time.Second

type Storage interface {
	Get(ctx context.Context) (model.Snapshot, error)
	Ping(ctx context.Context) error
}

// StatusProxy fetches the upstream status page, substituting a failure payload on error.
type StatusProxy interface {
	Proxy(ctx context.Context) ingest.Response
}

type Server struct {
	Storage  Storage
	Proxy    StatusProxy
	Hub      *Hub
	Gatherer prometheus.Gatherer
	Config   *config.Config
}

func NewServer(storage Storage, proxy StatusProxy, hub *Hub, gatherer prometheus.Gatherer, config *config.Config) *Server {
	return &Server{
		Storage:  storage,
		Proxy:    proxy,
		Hub:      hub,
		Gatherer: gatherer,
		Config:   config,
	}
}

// Router builds the HTTP routes.
func (srv *Server) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(chiMiddleware.StripSlashes)
	router.Use(chiMiddleware.Recoverer)
	router.Use(middleware.LogMiddleware(srv.Config.Logger))

	router.Get("/ping", srv.PingHandler)
	router.Get("/api/stream", srv.Hub.ServeWS)
	router.Group(func(r chi.Router) {
		r.Use(middleware.CompressMiddleware)
		r.Get("/api/nginx-status", srv.NginxStatusHandler)
		r.Get("/api/stats", srv.StatsHandler)
	})
	if srv.Gatherer != nil {
		router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(srv.Gatherer, promhttp.HandlerOpts{}))
	}

	return router
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (srv *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              srv.Config.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		srv.Config.Logger.Infof("listening on %s", srv.Config.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		srv.Hub.Close()
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	srv.Hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// NginxStatusHandler passes the upstream status text through, or answers 200
// with a JSON failure carrying fallback data so pollers keep going.
func (srv *Server) NginxStatusHandler(w http.ResponseWriter, r *http.Request) {
	resp := srv.Proxy.Proxy(r.Context())
	w.Header().Set("Cache-Control", "no-store")

	if resp.Failure != nil {
		srv.Config.Logger.Debugf("status proxy failure: %s", resp.Failure.Error)
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp.Failure); err != nil {
			srv.Config.Logger.Errorf("failed to write failure JSON: %v", err)
		}
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte(resp.Text)); err != nil {
		srv.Config.Logger.Errorf("failed to write status text: %v", err)
	}
}

func (srv *Server) StatsHandler(w http.ResponseWriter, r *http.Request) {
	snap, err := srv.Storage.Get(r.Context())
	if err != nil {
		if errors.Is(err, errs.ErrNoSnapshot) {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		srv.Config.Logger.Errorf("failed to get snapshot: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		srv.Config.Logger.Errorf("failed to write response JSON: %v", err)
	}
}

func (srv *Server) PingHandler(w http.ResponseWriter, r *http.Request) {
	if err := srv.Storage.Ping(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
