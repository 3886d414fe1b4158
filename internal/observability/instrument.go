package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// instrumentationName identifies this module's logger in exported records.
const instrumentationName = "github.com/pivotproxy/pivot"

// Config selects the logging outputs. Format must already be resolved to
// text or json; the auto default is decided at the CLI layer where the TTY
// is known.
type Config struct {
	Level  slog.Level
	Format string

	// OTLPEndpoint enables log export when set. OTLPProtocol picks the
	// exporter wire protocol, grpc or http.
	OTLPEndpoint string
	OTLPProtocol string
}

// Instrument installs the process-wide logging pipeline: a stdout handler,
// optionally fanned out to an OTLP log exporter, the whole chain enriched
// with trace correlation attributes. The returned shutdown function flushes
// buffered export batches.
func Instrument(cfg Config) (func(context.Context) error, error) {
	handler, err := newStdoutHandler(cfg.Level, cfg.Format)
	if err != nil {
		return nil, err
	}

	shutdown := func(context.Context) error { return nil }

	if cfg.OTLPEndpoint != "" {
		provider, err := newLoggerProvider(cfg)
		if err != nil {
			return nil, err
		}
		global.SetLoggerProvider(provider)
		shutdown = provider.Shutdown

		// Export failures must not recurse into the exporter, so they go
		// to the stdout handler only.
		stdout := slog.New(handler)
		otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
			stdout.Warn("telemetry export failed", "error", err)
		}))

		handler = newFanoutHandler(
			handler,
			otelslog.NewHandler(instrumentationName, otelslog.WithLoggerProvider(provider)),
		)
	}

	slog.SetDefault(slog.New(newTraceContextHandler(handler)))
	return shutdown, nil
}

// newStdoutHandler creates a handler for human-readable logs.
func newStdoutHandler(level slog.Level, logFormat string) (slog.Handler, error) {
	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	switch strings.ToLower(logFormat) {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		return nil, fmt.Errorf("unsupported log format %q (expected: json, text)", logFormat)
	}

	return handler, nil
}

// newLoggerProvider builds the OTLP export pipeline: exporter, batch
// processor, severity filter. At debug level the exact record stream also
// goes to stdout so export problems can be diagnosed locally.
func newLoggerProvider(cfg Config) (*sdklog.LoggerProvider, error) {
	endpoint := cfg.OTLPEndpoint
	secure := false
	if s, ok := strings.CutPrefix(endpoint, "https://"); ok {
		endpoint, secure = s, true
	} else if s, ok := strings.CutPrefix(endpoint, "http://"); ok {
		endpoint = s
	}

	var exporter sdklog.Exporter
	var err error
	switch strings.ToLower(cfg.OTLPProtocol) {
	case "grpc":
		opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(endpoint)}
		if !secure {
			opts = append(opts, otlploggrpc.WithInsecure())
		}
		exporter, err = otlploggrpc.New(context.Background(), opts...)
	case "http":
		opts := []otlploghttp.Option{otlploghttp.WithEndpoint(endpoint)}
		if !secure {
			opts = append(opts, otlploghttp.WithInsecure())
		}
		exporter, err = otlploghttp.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported otlp protocol %q (expected: grpc, http)", cfg.OTLPProtocol)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create otlp log exporter: %w", err)
	}

	providerOpts := []sdklog.LoggerProviderOption{
		sdklog.WithProcessor(minsev.NewLogProcessor(sdklog.NewBatchProcessor(exporter), minSeverity(cfg.Level))),
	}

	if cfg.Level <= slog.LevelDebug {
		stdoutExporter, err := stdoutlog.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout log exporter: %w", err)
		}
		providerOpts = append(providerOpts, sdklog.WithProcessor(sdklog.NewSimpleProcessor(stdoutExporter)))
	}

	return sdklog.NewLoggerProvider(providerOpts...), nil
}

// minSeverity maps an slog level to the minimum exported OTel severity.
func minSeverity(level slog.Level) minsev.Severity {
	switch {
	case level <= slog.LevelDebug:
		return minsev.SeverityDebug
	case level <= slog.LevelInfo:
		return minsev.SeverityInfo
	case level <= slog.LevelWarn:
		return minsev.SeverityWarn
	default:
		return minsev.SeverityError
	}
}
