package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const service = "talentum"

// New builds the process logger for one cli command. Console encoding is
// meant for local runs, json for anything shipped to a log collector. Every
// entry carries the service and command names.
func New(json bool, debug bool, command string) (*zap.Logger, error) {
	logger, err := config(json, debug).Build()
	if err != nil {
		return nil, err
	}

	fields := []zap.Field{zap.String("service", service)}
	if command != "" {
		fields = append(fields, zap.String("command", command))
	}
	return logger.With(fields...), nil
}

func config(json bool, debug bool) zap.Config {
	cfg := zap.Config{
		Encoding:          "console",
		Level:             zap.NewAtomicLevelAt(zapcore.InfoLevel),
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: true,
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey:     "msg",
			LevelKey:       "level",
			TimeKey:        "time",
			NameKey:        "component",
			CallerKey:      "caller",
			StacktraceKey:  "stacktrace",
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.RFC3339TimeEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
			EncodeDuration: zapcore.MillisDurationEncoder,
		},
	}

	if json {
		// same sampling as zap's production preset
		cfg.Encoding = "json"
		cfg.Sampling = &zap.SamplingConfig{Initial: 100, Thereafter: 100}
	} else {
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if debug {
		cfg.Level.SetLevel(zapcore.DebugLevel)
		cfg.DisableStacktrace = false
		cfg.Sampling = nil
	}

	return cfg
}
