package logging

import (
	"os"

	"github.com/pion/logging"
)

// Environment variables understood by pion's default factory, most verbose first.
var levelEnvs = []string{
	"PION_LOG_TRACE",
	"PION_LOG_DEBUG",
	"PION_LOG_INFO",
	"PION_LOG_WARN",
	"PION_LOG_ERROR",
}

var loggerFactory = newLoggerFactory()

// The dataset tools report progress at info level unless the environment
// asks for something else.
func newLoggerFactory() *logging.DefaultLoggerFactory {
	f := logging.NewDefaultLoggerFactory()
	for _, env := range levelEnvs {
		if os.Getenv(env) != "" {
			return f
		}
	}
	f.DefaultLogLevel = logging.LogLevelInfo
	return f
}

func NewLogger(scope string) logging.LeveledLogger {
	return loggerFactory.NewLogger(scope)
}
