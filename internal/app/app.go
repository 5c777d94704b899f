// Package app wires the server process: configuration, logger, room
// registry, and the HTTP surface.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"skydash/server/internal/logging"
	servernet "skydash/server/internal/net"
	"skydash/server/internal/net/proto"
	"skydash/server/internal/net/ws"
	"skydash/server/internal/room"
	"skydash/server/internal/sim"
	"skydash/server/internal/telemetry"
)

const shutdownGrace = 5 * time.Second

// Config carries the process-level settings. Environment variables override
// whatever the caller sets.
type Config struct {
	Addr      string
	ClientDir string
	LogFile   string
	Debug     bool
	CodecName string
	Sim       sim.Config
	Liveness  room.LivenessConfig
}

// DefaultConfig returns the settings used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Addr:     ":8080",
		Sim:      sim.DefaultConfig(),
		Liveness: room.DefaultLiveness(),
	}
}

// Run starts the server and blocks until the context is cancelled or the
// listener fails.
func Run(ctx context.Context, cfg Config) error {
	logger, sync := logging.New(logging.Config{FilePath: cfg.LogFile, Debug: cfg.Debug})
	defer sync()

	cfg = applyEnv(cfg, logger)

	codec, err := proto.CodecByName(cfg.CodecName)
	if err != nil {
		return fmt.Errorf("configure codec: %w", err)
	}

	counters := telemetry.NewCounters()
	rooms := room.NewManager(room.Options{
		Config:   cfg.Sim,
		Codec:    codec,
		Logger:   logger,
		Counters: counters,
		Liveness: cfg.Liveness,
	})

	wsHandler := ws.NewHandler(rooms, ws.HandlerConfig{
		Logger: logger,
		Codec:  codec,
	})
	handler := servernet.NewHTTPHandler(rooms, wsHandler, servernet.HTTPHandlerConfig{
		ClientDir: cfg.ClientDir,
		Logger:    logger,
		Counters:  counters,
	})

	srv := &http.Server{Addr: cfg.Addr, Handler: handler}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s (codec=%s, tickRate=%d)", cfg.Addr, codec.Name(), cfg.Sim.TickRate)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Infof("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warnf("http shutdown: %v", err)
		}
		rooms.Shutdown()
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	}
}

// applyEnv folds environment overrides into the config, warning about values
// it cannot parse rather than failing startup.
func applyEnv(cfg Config, logger interface{ Warnf(string, ...any) }) Config {
	if raw := os.Getenv("ADDR"); raw != "" {
		cfg.Addr = raw
	}
	if raw := os.Getenv("CLIENT_DIR"); raw != "" {
		cfg.ClientDir = raw
	}
	if raw := os.Getenv("WIRE_CODEC"); raw != "" {
		cfg.CodecName = raw
	}
	if raw := os.Getenv("TICK_RATE"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.Sim.TickRate = value
		} else {
			logger.Warnf("invalid TICK_RATE=%q: %v", raw, err)
		}
	}
	if raw := os.Getenv("MAX_PLAYERS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= 0 {
			cfg.Sim.MaxPlayers = value
		} else {
			logger.Warnf("invalid MAX_PLAYERS=%q: %v", raw, err)
		}
	}
	return cfg
}
