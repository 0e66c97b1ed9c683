package config

import (
	"context"

	"github.com/rshade/copycat/internal/logging"
)

// ToLoggingConfig converts LoggingConfig to logging.Config for use with the
// internal/logging package.
//
// The conversion applies these rules:
//   - Level, Format are copied directly
//   - If File is set, Output becomes "file" and File is passed through
//   - If File is empty, Output defaults to "stderr"
func (lc *LoggingConfig) ToLoggingConfig() logging.Config {
	output := logging.OutputStderr
	if lc.File != "" {
		output = logging.OutputFile
	}

	return logging.Config{
		Level:  lc.Level,
		Format: lc.Format,
		Output: output,
		File:   lc.File,
	}
}

// WithLogger builds the configured logger and attaches it to ctx, together
// with a trace ID when ctx does not carry one yet. The caller must Close the
// returned result once logging is finished.
func (lc *LoggingConfig) WithLogger(ctx context.Context) (context.Context, *logging.Result) {
	result := logging.NewLogger(lc.ToLoggingConfig())
	logger := logging.ComponentLogger(result.Logger, "copycat")

	ctx = logging.ContextWithTraceID(ctx, logging.GetOrGenerateTraceID(ctx))
	ctx = logger.WithContext(ctx)

	if result.FallbackUsed {
		logging.FromContext(ctx).Warn().
			Str("reason", result.FallbackReason).
			Msg("could not open log file, logging to stderr")
	}

	return ctx, &result
}
