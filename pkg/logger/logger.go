package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a zap logger configured for the given environment.
// Production gets JSON output, everything else gets the colored console
// encoder for readability.
func New(env string) *zap.Logger {
	var cfg zap.Config

	switch env {
	case "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	log, err := cfg.Build()
	if err != nil {
		// Логгер обязателен для работы сервиса
		panic("failed to initialize logger: " + err.Error())
	}

	return log.With(zap.String("service", "afflink-backend"))
}
