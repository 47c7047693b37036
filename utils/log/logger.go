package log

import (
	"context"
	"os"

	"go.uber.org/zap"
)

var logger *zap.Logger

func init() {
	if os.Getenv("DEBUG") == "true" {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
}

func WithCtx(ctx context.Context) *zap.Logger {
	fields := []zap.Field{}

	if v := ctx.Value("run_id"); v != nil {
		fields = append(fields, zap.Any("run_id", v))
	}
	if v := ctx.Value("fraud_case"); v != nil {
		fields = append(fields, zap.Any("fraud_case", v))
	}
	if v := ctx.Value("victim"); v != nil {
		fields = append(fields, zap.Any("victim", v))
	}

	return logger.With(fields...)
}

func With(fields ...zap.Field) *zap.Logger {
	return logger.With(fields...)
}
