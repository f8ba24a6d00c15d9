package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	base     *zap.SugaredLogger
	baseOnce sync.Once
)

// New builds the process logger: JSON in production, coloured console output otherwise.
func New(environment string) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	if environment == "production" {
		cfg = zap.Config{
			Level:       zap.NewAtomicLevelAt(zap.InfoLevel),
			Development: false,
			Sampling: &zap.SamplingConfig{
				Initial:    100,
				Thereafter: 100,
			},
			Encoding:         "json",
			EncoderConfig:    zap.NewProductionEncoderConfig(),
			OutputPaths:      []string{"stderr"},
			ErrorOutputPaths: []string{"stderr"},
			DisableCaller:    true,
		}
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	s := l.Sugar()
	baseOnce.Do(func() { base = s })
	return s, nil
}

// Provide returns the logger built by the first New call, or a no-op logger if none was built.
func Provide() *zap.SugaredLogger {
	if base == nil {
		return zap.NewNop().Sugar()
	}
	return base
}

// Named returns a subsystem logger, e.g. Named("table").
func Named(name string) *zap.SugaredLogger {
	return Provide().Named(name)
}
