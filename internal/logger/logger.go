// Package logger builds the zap loggers used by the gombok command.
package logger

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger writing to stderr at the given level. Output is JSON
// when jsonOutput is true and a console format otherwise.
func New(level string, jsonOutput bool) (*zap.Logger, error) {
	return NewWithWriter(os.Stderr, level, jsonOutput)
}

// NewWithWriter is like New but writes to w.
func NewWithWriter(w io.Writer, level string, jsonOutput bool) (*zap.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	var enc zapcore.Encoder
	if jsonOutput {
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.TimeKey = ""
		encCfg.CallerKey = ""
		enc = zapcore.NewConsoleEncoder(encCfg)
	}
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), lvl)), nil
}

// ParseLevel parses a level name. The empty string means info.
func ParseLevel(level string) (zapcore.Level, error) {
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return lvl, errors.WithHint(errors.Wrapf(err, "invalid log level %q", level),
			"use one of debug, info, warn, error")
	}
	return lvl, nil
}
