package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/filedepot/filedepot/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "debug"
	}
	_ = server.InitializeLogger(logLevel)

	srv := server.New(server.Opts{
		Addr:              os.Getenv("LISTEN_ADDR"),
		OTLPTraceEndpoint: os.Getenv("OTLP_TRACE_ENDPOINT"),
	})
	if err := srv.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to run the server")
	}
}
