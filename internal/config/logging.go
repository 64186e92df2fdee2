package config

import (
	"strings"

	"github.com/rshade/backoffice/internal/logging"
)

// ToLoggingConfig converts the logging section into a logging.Config.
// A configured file switches the output to that file; otherwise logs go to
// stderr so they never mix with listings or progress on stdout.
func (lc *LoggingConfig) ToLoggingConfig() logging.Config {
	out := logging.Config{
		Level:  strings.ToLower(lc.Level),
		Format: strings.ToLower(lc.Format),
		Output: logging.OutputStderr,
	}
	if out.Format == "" {
		out.Format = logging.FormatConsole
	}
	if lc.File != "" {
		out.Output = outputTypeFile
		out.File = lc.File
	}
	return out
}

// GetLoggingConfig returns a copy of the logging section of the global configuration.
func GetLoggingConfig() LoggingConfig {
	return GetGlobalConfig().Logging
}
