package gologger

import (
	"context"
	"os"
	"sort"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewProcessLogger builds the process zap logger: JSON in production,
// console output otherwise.
func NewProcessLogger(env string, debug bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if strings.EqualFold(strings.TrimSpace(env), "production") {
		cfg = zap.NewProductionConfig()
	}
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

// NewStderrLogger returns a glog logger writing JSON lines to standard error.
func NewStderrLogger(name string) glog.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.Lock(os.Stderr),
		zap.NewAtomicLevelAt(zap.InfoLevel),
	)
	logger := zap.New(core)
	if name = strings.TrimSpace(name); name != "" {
		logger = logger.Named(name)
	}
	return NewZapLogger(logger)
}

func NewZapLogger(logger *zap.Logger) glog.Logger {
	if logger == nil {
		return glog.Nop()
	}
	// Skip the bridge frame so callers report the line that logged.
	return &zapLogger{sugar: logger.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

func NewZapProvider(logger *zap.Logger) glog.LoggerProvider {
	return zapProvider{logger: logger}
}

type zapProvider struct {
	logger *zap.Logger
}

func (p zapProvider) GetLogger(name string) glog.Logger {
	if p.logger == nil {
		return glog.Nop()
	}
	if name = strings.TrimSpace(name); name != "" {
		return NewZapLogger(p.logger.Named(name))
	}
	return NewZapLogger(p.logger)
}

type zapLogger struct {
	sugar *zap.SugaredLogger
}

func (l *zapLogger) Trace(msg string, args ...any) { l.sugar.Debugw(msg, args...) }
func (l *zapLogger) Debug(msg string, args ...any) { l.sugar.Debugw(msg, args...) }
func (l *zapLogger) Info(msg string, args ...any)  { l.sugar.Infow(msg, args...) }
func (l *zapLogger) Warn(msg string, args ...any)  { l.sugar.Warnw(msg, args...) }
func (l *zapLogger) Error(msg string, args ...any) { l.sugar.Errorw(msg, args...) }
func (l *zapLogger) Fatal(msg string, args ...any) { l.sugar.Fatalw(msg, args...) }

func (l *zapLogger) WithContext(context.Context) glog.Logger {
	return l
}

func (l *zapLogger) WithFields(fields map[string]any) glog.Logger {
	if len(fields) == 0 {
		return l
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}
	return &zapLogger{sugar: l.sugar.With(args...)}
}
