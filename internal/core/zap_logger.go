package core

import "go.uber.org/zap"

// ZapLogger adapts a zap logger to the service Logger interface. Key/value
// argument pairs are forwarded through the sugared API.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger wraps the provided zap logger. A nil logger falls back to
// zap.NewNop so the adapter is always safe to call.
func NewZapLogger(logger *zap.Logger) *ZapLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapLogger{sugar: logger.Sugar()}
}

func (l *ZapLogger) Debug(msg string, args ...any) { l.sugar.Debugw(msg, args...) }

func (l *ZapLogger) Info(msg string, args ...any) { l.sugar.Infow(msg, args...) }

func (l *ZapLogger) Warn(msg string, args ...any) { l.sugar.Warnw(msg, args...) }

func (l *ZapLogger) Error(msg string, args ...any) { l.sugar.Errorw(msg, args...) }
