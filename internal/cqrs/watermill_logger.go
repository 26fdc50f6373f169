package cqrs

import (
	"github.com/ThreeDotsLabs/watermill"
	"go.uber.org/zap"

	"github.com/danghamo/warpgate/pkg/logger"
)

// watermillLogger routes watermill's logs into the service logger
type watermillLogger struct {
	logger *logger.Logger
}

// NewWatermillLogger adapts log to watermill.LoggerAdapter
func NewWatermillLogger(log *logger.Logger) watermill.LoggerAdapter {
	return &watermillLogger{logger: log.WithComponent("watermill")}
}

func fields(f watermill.LogFields) []zap.Field {
	out := make([]zap.Field, 0, len(f))
	for k, v := range f {
		out = append(out, zap.Any(k, v))
	}
	return out
}

func (l *watermillLogger) Error(msg string, err error, f watermill.LogFields) {
	l.logger.Error(msg, append(fields(f), zap.Error(err))...)
}

func (l *watermillLogger) Info(msg string, f watermill.LogFields) {
	l.logger.Info(msg, fields(f)...)
}

func (l *watermillLogger) Debug(msg string, f watermill.LogFields) {
	l.logger.Debug(msg, fields(f)...)
}

// Trace is folded into debug; zap has no lower level
func (l *watermillLogger) Trace(msg string, f watermill.LogFields) {
	l.logger.Debug(msg, fields(f)...)
}

func (l *watermillLogger) With(f watermill.LogFields) watermill.LoggerAdapter {
	return &watermillLogger{logger: &logger.Logger{Logger: l.logger.With(fields(f)...)}}
}
