package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"skydash/server/internal/app"
)

func main() {
	cfg := app.DefaultConfig()
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	flag.StringVar(&cfg.ClientDir, "client", cfg.ClientDir, "static client directory (optional)")
	flag.StringVar(&cfg.CodecName, "codec", cfg.CodecName, "wire codec: json or msgpack")
	flag.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "rolling log file (optional)")
	flag.BoolVar(&cfg.Debug, "debug", cfg.Debug, "enable debug logging")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg); err != nil {
		log.Fatalf("%v", err)
	}
}
