package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/cors"
	"github.com/spf13/cobra"

	vectord "github.com/embedware/vectord"
	"github.com/embedware/vectord/infrastructure/api"
	apimiddleware "github.com/embedware/vectord/infrastructure/api/middleware"
	v1 "github.com/embedware/vectord/infrastructure/api/v1"
	"github.com/embedware/vectord/internal/config"
	"github.com/embedware/vectord/internal/log"
	"github.com/embedware/vectord/internal/tracing"
)

func serveCmd() *cobra.Command {
	var (
		envFile string
		host    string
		port    int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables
  4. Command line flags

Environment variables:
  HOST                           Server host to bind to (default: 0.0.0.0)
  PORT                           Server port to listen on (default: 8008)
  LOG_LEVEL                      Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT                     Log format: pretty, json (default: pretty)

  EMBEDDING_DEFAULT_MODEL        Model used when requests carry no override
  EMBEDDING_ALLOW_MODEL_OVERRIDE Accept per-request model overrides (default: false)
  EMBEDDING_NORMALIZE_DEFAULT    Normalize vectors by default (default: true)
  EMBEDDING_TRUNCATE_DEFAULT     Truncate over-long inputs by default (default: true)
  EMBEDDING_BATCH_MAX_TEXTS      Maximum texts per request (default: 64)
  EMBEDDING_MAX_CHARS_PER_TEXT   Maximum characters per text (default: 8000)
  EMBEDDING_REQUEST_TIMEOUT      Encoding deadline in seconds (default: 60)

  ENGINE_TYPE                    Backend: local, openai (default: local)
  ENGINE_MODEL_DIR               Directory with local model files
  ENGINE_OPENAI_BASE_URL         OpenAI-compatible API base URL
  ENGINE_OPENAI_API_KEY          API key for the OpenAI backend
  ENGINE_OPENAI_TIMEOUT          Per-call timeout in seconds (default: 60)
  ENGINE_OPENAI_MAX_RETRIES      Retry attempts (default: 5)

  OTEL_ENABLED                   Export traces over OTLP (default: false)
  OTEL_SERVICE_NAME              Reported service name (default: vectord)
  OTEL_ENDPOINT                  OTLP HTTP endpoint (default: http://localhost:4318)
  OTEL_SAMPLING_RATIO            Trace sampling ratio 0..1 (default: 1.0)

  SECURITY_ALLOWED_ORIGINS       Comma-separated CORS origins (default: *)
  SECURITY_REQUEST_ID_HEADER     Correlation header name (default: X-Request-ID)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(envFile, host, port)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&host, "host", "", "Server host to bind to (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "Server port to listen on (default: 8008)")

	return cmd
}

func runServe(envFile, host string, port int) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	cfg = applyServeOverrides(cfg, host, port)

	logger := log.Configure(cfg)
	slogger := logger.Slog()

	tracer, err := tracing.New(context.Background(), cfg.Tracing())
	if err != nil {
		return fmt.Errorf("set up tracing: %w", err)
	}

	attrs := append([]slog.Attr{slog.String("version", version)}, cfg.LogAttrs()...)
	slogger.LogAttrs(context.Background(), slog.LevelInfo, "starting vectord", attrs...)

	client, err := vectord.New(
		vectord.WithConfig(cfg),
		vectord.WithLogger(slogger),
		vectord.WithTracer(tracer),
	)
	if err != nil {
		return fmt.Errorf("create vectord client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			slogger.Error("failed to close vectord client", slog.Any("error", err))
		}
	}()

	// Load the default model before accepting traffic. A failure keeps the
	// server running so /ready can report the reason; the process must be
	// restarted to retry the load.
	if err := client.LoadDefault(context.Background()); err != nil {
		slogger.Error("serving without a loaded default model", slog.Any("error", err))
	}

	server := api.NewServer(cfg.Addr(), cfg.Limits().RequestTimeout(), slogger)
	router := server.Router()

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Security().AllowedOrigins(),
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", cfg.Security().RequestIDHeader()},
	}))
	router.Use(apimiddleware.Correlation(cfg.Security().RequestIDHeader()))
	router.Use(apimiddleware.Logging(slogger))

	router.Mount("/", v1.NewHealthRouter(client).Routes())
	router.Mount("/v1/embeddings", v1.NewEmbeddingsRouter(client).Routes())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		slogger.Info("shutting down server")
		cancel()
		if err := server.Shutdown(ctx); err != nil {
			slogger.Error("shutdown error", slog.Any("error", err))
		}
	}()

	slogger.Info("starting server", slog.String("addr", cfg.Addr()))
	if err := server.Start(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// applyServeOverrides applies command line flag overrides to the config.
func applyServeOverrides(cfg config.AppConfig, host string, port int) config.AppConfig {
	var opts []config.AppConfigOption

	if host != "" {
		opts = append(opts, config.WithHost(host))
	}
	if port != 0 {
		opts = append(opts, config.WithPort(port))
	}

	return cfg.Apply(opts...)
}
