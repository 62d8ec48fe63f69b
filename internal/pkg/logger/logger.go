package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps a sugared zap logger so callers pass alternating key/value
// pairs without importing zap everywhere.
type Logger struct {
	s *zap.SugaredLogger
}

// New builds a logger for the given mode. "production" means JSON output
// at info level; anything else is a human-readable development logger.
func New(mode string) (*Logger, error) {
	var cfg zap.Config
	if mode == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	base, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &Logger{s: base.Sugar()}, nil
}

// NewNop returns a logger that discards everything. Handy in tests.
func NewNop() *Logger {
	return &Logger{s: zap.NewNop().Sugar()}
}

func (l *Logger) With(kv ...interface{}) *Logger {
	return &Logger{s: l.s.With(kv...)}
}

func (l *Logger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l *Logger) Info(msg string, kv ...interface{})  { l.s.Infow(msg, kv...) }
func (l *Logger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
func (l *Logger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l *Logger) Fatal(msg string, kv ...interface{}) { l.s.Fatalw(msg, kv...) }

func (l *Logger) Sync() {
	_ = l.s.Sync()
}
