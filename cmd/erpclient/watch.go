package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jrsteele09/go-erp-client/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func watchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep the stored session alive until interrupted",
		Long: `Restores the stored session and keeps rotating its tokens in the
background until SIGINT or SIGTERM. When metrics.addr is configured the
session counters are served on /metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
}

func run(ctx context.Context) error {
	registry := prometheus.NewRegistry()
	recorder, err := metrics.NewPrometheus(registry)
	if err != nil {
		return err
	}

	c, cfg, err := openClient(ctx, recorder)
	if err != nil {
		return err
	}
	defer c.Close()

	displayAppname(cfg.GetAppName())
	if !c.IsLoggedIn() {
		return fmt.Errorf("not logged in, run `erpclient login` first")
	}

	unsubscribe := c.Session.Subscribe(func(loggedIn bool) {
		log.Info().Bool("loggedIn", loggedIn).Msg("session state changed")
	})
	defer unsubscribe()

	var server *http.Server
	if addr := cfg.GetMetricsAddr(); addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		server = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go listenAndServe(server)
	}

	log.Info().Str("refresh", c.RefreshState().String()).Msg("watching session, press Ctrl+C to stop")
	waitForStopSignal()

	if server != nil {
		return shutdown(server)
	}
	return nil
}

func listenAndServe(server *http.Server) {
	log.Info().Str("addr", server.Addr).Msg("metrics listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("metrics server stopped")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
