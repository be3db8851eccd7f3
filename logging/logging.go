// Package logging wraps zap the way go.viam.com/rdk's logging package does:
// a small Logger interface with leveled, both sugared and structured calls,
// a constructor keyed by a component name, and a test constructor that routes
// through testing.T instead of stdout.
package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the logging surface every package in this module accepts. It is
// satisfied by *zapLogger below; production code should depend on this
// interface, not on zap directly.
type Logger interface {
	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Debugw(msg string, keysAndValues ...interface{})
	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
	Named(name string) Logger
	AsZap() *zap.Logger
}

type zapLogger struct {
	sugar *zap.SugaredLogger
	name  string
}

// NewLogger returns a production logger writing leveled, console-encoded
// entries to stderr (zap's production default), labeled with name.
func NewLogger(name string) Logger {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		// zap.NewProductionConfig().Build only fails on a malformed config,
		// which cannot happen with the literal config above.
		panic(err)
	}
	return &zapLogger{sugar: l.Sugar().Named(name), name: name}
}

// NewFileLogger returns a logger that writes to path, rotating it through
// lumberjack once it exceeds maxSizeMB.
func NewFileLogger(name, path string, maxSizeMB int) Logger {
	writer := &lumberjack.Logger{
		Filename: path,
		MaxSize:  maxSizeMB,
		MaxAge:   28,
		Compress: true,
	}
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(cfg), zapcore.AddSync(writer), zap.InfoLevel)
	l := zap.New(core, zap.AddCallerSkip(1))
	return &zapLogger{sugar: l.Sugar().Named(name), name: name}
}

// NewTestLogger returns a logger that writes through t.Log, so output is
// attributed to the failing test and suppressed unless -v or the test fails.
func NewTestLogger(t testing.TB) Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(cfg.EncoderConfig),
		zapcore.AddSync(testWriter{t}),
		zap.DebugLevel,
	)
	l := zap.New(core, zap.AddCallerSkip(1))
	return &zapLogger{sugar: l.Sugar().Named(t.Name()), name: t.Name()}
}

type testWriter struct{ t testing.TB }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Logf("%s", p)
	return len(p), nil
}

func (l *zapLogger) Debug(args ...interface{})                      { l.sugar.Debug(args...) }
func (l *zapLogger) Debugf(template string, args ...interface{})    { l.sugar.Debugf(template, args...) }
func (l *zapLogger) Debugw(msg string, kv ...interface{})           { l.sugar.Debugw(msg, kv...) }
func (l *zapLogger) Info(args ...interface{})                       { l.sugar.Info(args...) }
func (l *zapLogger) Infof(template string, args ...interface{})     { l.sugar.Infof(template, args...) }
func (l *zapLogger) Infow(msg string, kv ...interface{})            { l.sugar.Infow(msg, kv...) }
func (l *zapLogger) Warn(args ...interface{})                       { l.sugar.Warn(args...) }
func (l *zapLogger) Warnf(template string, args ...interface{})     { l.sugar.Warnf(template, args...) }
func (l *zapLogger) Warnw(msg string, kv ...interface{})            { l.sugar.Warnw(msg, kv...) }
func (l *zapLogger) Error(args ...interface{})                      { l.sugar.Error(args...) }
func (l *zapLogger) Errorf(template string, args ...interface{})    { l.sugar.Errorf(template, args...) }
func (l *zapLogger) Errorw(msg string, kv ...interface{})           { l.sugar.Errorw(msg, kv...) }
func (l *zapLogger) AsZap() *zap.Logger                             { return l.sugar.Desugar() }

func (l *zapLogger) Named(name string) Logger {
	return &zapLogger{sugar: l.sugar.Named(name), name: l.name + "." + name}
}
