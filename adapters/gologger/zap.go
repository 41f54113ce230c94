package gologger

import (
	"context"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger adapts a zap sugared logger to the glog contract.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger builds a JSON production logger, or a console development
// logger when production is false.
func NewZapLogger(production bool, level string) (*ZapLogger, error) {
	config := zap.NewDevelopmentConfig()
	if production {
		config = zap.NewProductionConfig()
	}
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if parsed, err := zapcore.ParseLevel(strings.TrimSpace(level)); err == nil && strings.TrimSpace(level) != "" {
		config.Level = zap.NewAtomicLevelAt(parsed)
	}
	logger, err := config.Build()
	if err != nil {
		return nil, err
	}
	return WrapZap(logger), nil
}

func WrapZap(logger *zap.Logger) *ZapLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapLogger{sugar: logger.Sugar()}
}

func (l *ZapLogger) Trace(msg string, args ...any) { l.sugar.Debugw(msg, args...) }
func (l *ZapLogger) Debug(msg string, args ...any) { l.sugar.Debugw(msg, args...) }
func (l *ZapLogger) Info(msg string, args ...any)  { l.sugar.Infow(msg, args...) }
func (l *ZapLogger) Warn(msg string, args ...any)  { l.sugar.Warnw(msg, args...) }
func (l *ZapLogger) Error(msg string, args ...any) { l.sugar.Errorw(msg, args...) }
func (l *ZapLogger) Fatal(msg string, args ...any) { l.sugar.Fatalw(msg, args...) }

func (l *ZapLogger) WithContext(context.Context) glog.Logger {
	return l
}

func (l *ZapLogger) WithFields(fields map[string]any) glog.Logger {
	if len(fields) == 0 {
		return l
	}
	args := make([]any, 0, len(fields)*2)
	for key, value := range fields {
		args = append(args, key, value)
	}
	return &ZapLogger{sugar: l.sugar.With(args...)}
}

// Named returns a child logger scoped to name.
func (l *ZapLogger) Named(name string) *ZapLogger {
	if strings.TrimSpace(name) == "" {
		return l
	}
	return &ZapLogger{sugar: l.sugar.Named(name)}
}

func (l *ZapLogger) Sync() error {
	return l.sugar.Sync()
}

// ZapProvider hands out named children of a root zap logger.
type ZapProvider struct {
	Root *ZapLogger
}

func (p ZapProvider) GetLogger(name string) glog.Logger {
	if p.Root == nil {
		return glog.Nop()
	}
	return p.Root.Named(name)
}

var (
	_ glog.Logger         = (*ZapLogger)(nil)
	_ glog.FieldsLogger   = (*ZapLogger)(nil)
	_ glog.LoggerProvider = ZapProvider{}
)
