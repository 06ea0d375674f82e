package observability

import (
	"context"
	"strings"

	"github.com/riskibarqy/cartola-ingest/internal/config"
	"github.com/riskibarqy/cartola-ingest/internal/platform/logging"
	"github.com/uptrace/uptrace-go/uptrace"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var runTracer = otel.Tracer("cartola-ingest/cmd/ingest")

// InitUptrace configures the global OpenTelemetry providers. When tracing is off the
// returned shutdown is a no-op and spans stay non-recording.
func InitUptrace(cfg config.Config, logger *logging.Logger) (func(context.Context) error, error) {
	if logger == nil {
		logger = logging.Default()
	}

	if !cfg.UptraceEnabled {
		logger.Debug("uptrace disabled", "reason", "UPTRACE_ENABLED=false")
		return func(context.Context) error { return nil }, nil
	}
	if strings.TrimSpace(cfg.UptraceDSN) == "" {
		logger.Warn("uptrace disabled", "reason", "UPTRACE_DSN empty")
		return func(context.Context) error { return nil }, nil
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(cfg.UptraceDSN),
		uptrace.WithServiceName(cfg.ServiceName),
		uptrace.WithServiceVersion(cfg.ServiceVersion),
		uptrace.WithDeploymentEnvironment(cfg.AppEnv),
	)

	logger.Info("uptrace enabled",
		"service_name", cfg.ServiceName,
		"service_version", cfg.ServiceVersion,
		"environment", cfg.AppEnv,
	)

	return uptrace.Shutdown, nil
}

// StartRun opens the root span of one ingest invocation; child spans hang off it.
func StartRun(ctx context.Context, cfg config.Config, dryRun bool) (context.Context, trace.Span) {
	return runTracer.Start(ctx, "ingest.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("ingest.backend", cfg.Backend),
			attribute.Bool("ingest.dry_run", dryRun),
		),
	)
}
