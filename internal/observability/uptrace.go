package observability

import (
	"context"
	"strings"

	"github.com/footdata/standings-engine/internal/config"
	"github.com/footdata/standings-engine/internal/platform/logging"
	"github.com/uptrace/uptrace-go/uptrace"
)

// InitUptrace configures the global OpenTelemetry providers for Uptrace and,
// when log export is on, installs the logger mirror. The returned shutdown
// detaches the mirror before flushing.
func InitUptrace(cfg config.Config, logger *logging.Logger) (func(context.Context) error, error) {
	if logger == nil {
		logger = logging.Default()
	}

	if !cfg.UptraceEnabled {
		return uptraceOff(logger, "UPTRACE_ENABLED=false"), nil
	}
	if strings.TrimSpace(cfg.UptraceDSN) == "" {
		return uptraceOff(logger, "UPTRACE_DSN empty"), nil
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(cfg.UptraceDSN),
		uptrace.WithServiceName(cfg.ServiceName),
		uptrace.WithServiceVersion(cfg.ServiceVersion),
		uptrace.WithDeploymentEnvironment(cfg.AppEnv),
		uptrace.WithLoggingEnabled(cfg.UptraceLogsEnabled),
	)

	logging.SetMirror(nil)
	if cfg.UptraceLogsEnabled {
		logging.SetMirror(newUptraceLogMirror(cfg.ServiceVersion))
	}

	logger.Info("uptrace enabled",
		"service", cfg.ServiceName, "version", cfg.ServiceVersion,
		"environment", cfg.AppEnv, "logs_mirrored", cfg.UptraceLogsEnabled,
	)

	return func(ctx context.Context) error {
		logging.SetMirror(nil)
		return uptrace.Shutdown(ctx)
	}, nil
}

func uptraceOff(logger *logging.Logger, reason string) func(context.Context) error {
	logging.SetMirror(nil)
	logger.Info("uptrace disabled", "reason", reason)
	return func(context.Context) error { return nil }
}
