package common

import (
	"os"

	"github.com/jenkins-x/jx-logging/v3/pkg/log"
)

// SetLoggingLevel configures the log level from $JX_LOG_LEVEL or the verbose flag
func SetLoggingLevel(verbose bool) {
	level := os.Getenv(EnvLogLevel)
	if level != "" {
		if verbose {
			log.Logger().Trace("The JX_LOG_LEVEL environment variable took precedence over the verbose flag")
		}

		err := log.SetLevel(level)
		if err != nil {
			log.Logger().Errorf("Unable to set log level to %s", level)
		}
		return
	}
	level = "info"
	if verbose {
		level = "debug"
	}
	err := log.SetLevel(level)
	if err != nil {
		log.Logger().Errorf("Unable to set log level to %s", level)
	}
}

// GetEnvIfEmpty returns the value if not empty otherwise the value of the environment variable
func GetEnvIfEmpty(value, envVar string) string {
	if value == "" {
		return os.Getenv(envVar)
	}
	return value
}
