package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/backoffice/internal/config"
	"github.com/rshade/backoffice/internal/logging"
)

// setupLogging builds the CLI logger from the configuration, then applies
// --log-level and --debug. --debug wins: debug level, console format, stderr.
// The logger and a trace ID are attached to the command context.
func setupLogging(cmd *cobra.Command) logging.LogPathResult {
	loggingCfg := config.GetLoggingConfig()

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		loggingCfg.Level = level
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		loggingCfg.Level = "debug"
		loggingCfg.Format = logging.FormatConsole
		loggingCfg.File = ""
	}

	if loggingCfg.File != "" {
		if err := config.EnsureLogDir(); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not create log directory: %v\n", err)
		}
	}

	result := logging.NewLoggerWithPath(loggingCfg.ToLoggingConfig())
	logger = logging.ComponentLogger(result.Logger, "cli")

	switch {
	case result.UsingFile:
		logging.PrintLogPathMessage(cmd.ErrOrStderr(), result.FilePath)
	case result.FallbackUsed:
		logging.PrintFallbackWarning(cmd.ErrOrStderr(), result.FallbackReason)
	}

	ctx := cmd.Context()
	traceID := logging.GetOrGenerateTraceID(ctx)
	ctx = logging.ContextWithTraceID(ctx, traceID)
	ctx = logger.With().Str(logging.TraceIDField, traceID).Logger().WithContext(ctx)
	cmd.SetContext(ctx)

	logger.Debug().
		Ctx(ctx).
		Str("command", cmd.CommandPath()).
		Str("project_dir", config.GetResolvedProjectDir()).
		Str("level", loggingCfg.Level).
		Msg("command started")

	return result
}

// cleanupLogging closes the log file handle, if any.
func cleanupLogging(logResult *logging.LogPathResult) error {
	if logResult == nil {
		return nil
	}
	return logResult.Close()
}
