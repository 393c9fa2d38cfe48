package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process-wide logger. Level and encoding come from the
// environment so the CLI surface stays free of logging flags beyond --verbose.
func New(verbose bool) (*zap.Logger, error) {
	level := os.Getenv("AZSNAP_LOG_LEVEL")
	if level == "" {
		if verbose {
			level = "debug"
		} else {
			level = "info"
		}
	}

	cfg := zap.NewProductionConfig()
	if enc := os.Getenv("AZSNAP_LOG_ENCODING"); enc != "" {
		cfg.Encoding = enc
	} else {
		cfg.Encoding = "console"
	}

	switch level {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		cfg.Development = true
	case "info":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
