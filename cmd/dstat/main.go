package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/PalMeany/l7-dstat/internal/buildinfo"
	"github.com/PalMeany/l7-dstat/internal/client"
	"github.com/PalMeany/l7-dstat/internal/config"
	"github.com/PalMeany/l7-dstat/internal/monitor"
	"github.com/PalMeany/l7-dstat/internal/observability"
	"github.com/PalMeany/l7-dstat/internal/rps"
	"github.com/PalMeany/l7-dstat/internal/server"
	"github.com/PalMeany/l7-dstat/storage/inmemory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer func() { _ = cfg.Logger.Sync() }()

	buildinfo.PrintBuildInfo(cfg.Logger)
	cfg.Logger.Infof("Config: Addr=%s, StatusURL=%s, PollInterval=%s, PruneInterval=%s, FetchTimeout=%s, Window=%s, BufferSize=%d",
		cfg.Addr,
		cfg.StatusURL,
		cfg.PollInterval,
		cfg.PruneInterval,
		cfg.FetchTimeout,
		cfg.Window,
		cfg.BufferSize,
	)

	if err := run(ctx, cfg); err != nil {
		cfg.Logger.Errorf("dstat stopped: %v", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	obs := observability.NewPromObs(reg)

	store := inmemory.NewMemStorage()
	hub := server.NewHub(cfg.Logger)
	statusClient := client.NewStatusClient(cfg.StatusURL, cfg.FetchTimeout)

	mon := monitor.New(statusClient, cfg.Logger,
		monitor.WithAggregator(rps.New(rps.WithBufferSize(cfg.BufferSize), rps.WithWindow(cfg.Window))),
		monitor.WithIntervals(cfg.PollInterval, cfg.PruneInterval),
		monitor.WithPublishers(store, hub, obs),
		monitor.WithObserver(obs),
	)
	srv := server.NewServer(store, statusClient, hub, reg, cfg)

	monErr := make(chan error, 1)
	go func() {
		monErr <- mon.Run(ctx)
		cancel()
	}()

	srvErr := srv.Run(ctx)
	cancel()
	err := <-monErr
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	return errors.Join(srvErr, err)
}
