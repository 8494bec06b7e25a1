package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	v1 "github.com/filedepot/filedepot/api/v1"
	"github.com/filedepot/filedepot/storage"
)

type Opts struct {
	// Addr is the listen address, ":8080" when empty.
	Addr string
	// OTLPTraceEndpoint enables span export to an OTLP collector when set.
	OTLPTraceEndpoint string
}

func New(opts Opts) Server {
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	s := Server{
		opts: opts,
	}
	return s
}

type Server struct {
	opts Opts
}

// Run serves the depot API until ctx is canceled, then drains connections.
func (s *Server) Run(ctx context.Context) error {
	log.Info().Msg("starting server")

	serviceName := "filedepot"

	prometheusExporter := NewPrometheusExporter(ctx)
	shutdownFns := []ShutdownFn{InitMeterProvider(ctx, serviceName, prometheusExporter)}
	if s.opts.OTLPTraceEndpoint != "" {
		traceExporter := NewOTLPTraceExporter(ctx, s.opts.OTLPTraceEndpoint)
		shutdownFns = append(shutdownFns, InitTraceProvider(ctx, serviceName, traceExporter))
	}

	httpServer := &http.Server{
		Addr:    s.opts.Addr,
		Handler: s.newHTTPHandler(),
		// ReadTimeout is the maximum duration for reading the entire request, including the body.
		// This prevents slowloris attacks.
		// This is useful for handling request from slow client so that it won't hold the connection for too long.
		ReadTimeout: 30 * time.Second,
		// WriteTimeout is the maximum duration before timing out writes of the response.
		// This is useful for handling slow client which read the response slowly.
		WriteTimeout: 10 * time.Second,
		// ReadHeaderTimeout is necessary here to prevent slowloris attacks.
		// https://www.cloudflare.com/learning/ddos/ddos-attack-tools/slowloris/
		ReadHeaderTimeout: 5 * time.Second,
		// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled.
		IdleTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Msgf("Starting http server on %s", s.opts.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msgf("listen:%+s\n", err)
		}
	}()

	<-ctx.Done()

	gracefulShutdownPeriod := 30 * time.Second
	log.Warn().Msg("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), gracefulShutdownPeriod)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shutdown http server gracefully")
	}
	log.Warn().Msg("http server gracefully stopped")

	for _, fn := range shutdownFns {
		if err := fn(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shutdown telemetry provider")
		}
	}
	return nil
}

func (s *Server) newHTTPHandler() http.Handler {
	engine := storage.New()
	v1Controller := v1.NewController(engine)

	mux := mux.NewRouter()
	mux.Use(
		otelhttp.NewMiddleware("filedepot"),
		LogInterceptor)
	mux.Handle("/metrics", promhttp.Handler())
	apiRouter := mux.PathPrefix("/api").Subrouter()

	apiV1Router := apiRouter.PathPrefix("/v1").Subrouter()
	apiV1Router.Handle("/files", otelhttp.WithRouteTag("/api/v1/files", http.HandlerFunc(v1Controller.UploadFile()))).Methods(http.MethodPost)
	apiV1Router.Handle("/files", otelhttp.WithRouteTag("/api/v1/files", http.HandlerFunc(v1Controller.SearchFiles()))).Methods(http.MethodGet)
	apiV1Router.Handle("/files/{name}", otelhttp.WithRouteTag("/api/v1/files/{name}", http.HandlerFunc(v1Controller.DownloadFile()))).Methods(http.MethodGet)
	apiV1Router.Handle("/files/{name}", otelhttp.WithRouteTag("/api/v1/files/{name}", http.HandlerFunc(v1Controller.DeleteFile()))).Methods(http.MethodDelete)
	apiV1Router.Handle("/files/{name}/metadata", otelhttp.WithRouteTag("/api/v1/files/{name}/metadata", http.HandlerFunc(v1Controller.UpdateFileMetadata()))).Methods(http.MethodPatch)
	apiV1Router.Handle("/files/{name}/versions", otelhttp.WithRouteTag("/api/v1/files/{name}/versions", http.HandlerFunc(v1Controller.CreateFileVersion()))).Methods(http.MethodPost)
	apiV1Router.Handle("/analytics", otelhttp.WithRouteTag("/api/v1/analytics", http.HandlerFunc(v1Controller.GetAnalytics()))).Methods(http.MethodGet)
	apiV1Router.Handle("/analytics/types", otelhttp.WithRouteTag("/api/v1/analytics/types", http.HandlerFunc(v1Controller.GetTypeDistribution()))).Methods(http.MethodGet)

	return mux
}
