package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"fxdash/internal/actlog"
	"fxdash/internal/cfg"
	"fxdash/internal/dispatch"
	"fxdash/internal/metrics"
	"fxdash/internal/transport"
	"fxdash/internal/ui"
	"fxdash/internal/view"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// .env is optional; real env vars always win.
	_ = godotenv.Load()

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	setupLogging(c)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	startMetricsServer(ctx, c)

	store := view.NewStore(c.Instruments, nil)
	feed := actlog.New(nil)

	bootstrap := transport.NewBootstrap(c.BaseURL, c.RESTTimeout)
	client := transport.NewClient(c.WsURL, bootstrap, m)
	dispatcher := dispatch.New(client, store, feed, m)

	dashboard := ui.NewServer(store, feed, dispatcher, c.DashboardPort)
	dashboard.Start()
	defer func() {
		if err := dashboard.Stop(); err != nil {
			log.Error().Err(err).Msg("failed to shutdown dashboard server")
		}
	}()

	events := make(chan transport.Event, 64)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := client.Stream(ctx, events, c.Ping); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("backend stream ended")
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		runEventLoop(ctx, events, store, feed, dashboard, m)
	}()

	feed.Append("Dashboard client started")
	waitForShutdown(ctx, cancel, &wg)
}

func setupLogging(c cfg.Settings) {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || c.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if c.ConsoleLog {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

// runEventLoop is the single mutation point of the view model. Every
// transport event and the 1s presentation tick run to completion here
// before the next is handled.
func runEventLoop(ctx context.Context, events <-chan transport.Event, store *view.Store,
	feed *actlog.Log, dashboard *ui.Server, m *metrics.Metrics,
) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case e := <-events:
			handleEvent(e, store, feed, m)
			dashboard.Push()
		case <-ticker.C:
			// Presentation refresh only; the model is untouched.
			dashboard.Push()
		}
	}
}

func handleEvent(e transport.Event, store *view.Store, feed *actlog.Log, m *metrics.Metrics) {
	switch e.Kind {
	case transport.Connected:
		store.ApplyConnectionChange(true)
		m.SetConnected(true)
		feed.Append("Connected to trading backend")
	case transport.Disconnected:
		store.ApplyConnectionChange(false)
		m.SetConnected(false)
		feed.Append("Connection to backend lost, retrying...")
	case transport.SnapshotReceived:
		if e.Snapshot == nil {
			return
		}
		before := store.Current().SignalsSeenToday
		store.ApplySnapshot(*e.Snapshot)
		after := store.Current()
		if after.SignalsSeenToday > before {
			feed.Append(fmt.Sprintf("New trade signal detected (%d today)", after.SignalsSeenToday))
		}
		m.SignalsSeenToday.Set(float64(after.SignalsSeenToday))
		m.SetBotRunning(after.BotRunning)
	case transport.BotStarted:
		store.ApplyRunStateChange(true)
		m.SetBotRunning(true)
		feed.Append("Bot started")
	case transport.BotStopped:
		store.ApplyRunStateChange(false)
		m.SetBotRunning(false)
		feed.Append("Bot stopped")
	}
}

// startMetricsServer starts the Prometheus metrics HTTP server.
func startMetricsServer(ctx context.Context, c cfg.Settings) {
	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})
		mux.Handle("/metrics", promhttp.Handler())

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", c.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		go func() {
			<-ctx.Done()
			if err := server.Shutdown(context.Background()); err != nil {
				log.Error().Err(err).Msg("failed to shutdown metrics server")
			}
		}()

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

// waitForShutdown blocks until a signal arrives, then cancels the
// context and waits for the worker goroutines with a timeout.
func waitForShutdown(ctx context.Context, cancel context.CancelFunc, wg *sync.WaitGroup) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info().Msg("shutdown signal received")
	case <-ctx.Done():
		log.Info().Msg("context canceled")
	}

	log.Info().Msg("shutting down gracefully...")
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("all goroutines stopped")
	case <-time.After(10 * time.Second):
		log.Warn().Msg("shutdown timeout, forcing exit")
	}
}
