package logger

import (
	"os"

	"gitlab.com/codearena.net/internal/adapter/logging"
)

// Logger is the process-wide logger; Init replaces it once config is loaded
var Logger = logging.NewZapLogger(os.Getenv("DEBUG_MODE") == "true")

func Init(debug bool) *logging.ZapLogger {
	Logger = logging.NewZapLogger(debug)
	return Logger
}

func Info(msg string, args ...interface{}) {
	Logger.Info(msg, args...)
}

func Error(msg string, args ...interface{}) {
	Logger.Error(msg, args...)
}

func Warn(msg string, args ...interface{}) {
	Logger.Warn(msg, args...)
}
