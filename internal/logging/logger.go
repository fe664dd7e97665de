package logging

import (
	"go.uber.org/zap"
)

// NewLogger builds a production ready structured logger.
func NewLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	return cfg.Build()
}

// NewConsoleLogger builds a human readable logger for the terminal front-end.
// Output goes to stderr so it never interleaves with the rendered display.
func NewConsoleLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.EncoderConfig.TimeKey = "timestamp"
	return cfg.Build()
}

// WithOperation enriches the logger with operation and upload identifiers.
func WithOperation(logger *zap.Logger, operation, uploadID string) *zap.Logger {
	fields := []zap.Field{zap.String("operation", operation)}
	if uploadID != "" {
		fields = append(fields, zap.String("upload_id", uploadID))
	}
	return logger.With(fields...)
}
