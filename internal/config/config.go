package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds the endpoints and local settings of the client.
type Config struct {
	PredictURL     string        `validate:"required,url"`
	ReportURL      string        `validate:"required,url"`
	ListenAddr     string        `validate:"required"`
	ReportDir      string        `validate:"required"`
	RequestTimeout time.Duration `validate:"gt=0"`
}

// Load reads the configuration from the environment, after loading a .env
// file when one is present in the working directory.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	timeout, err := time.ParseDuration(getEnv("REQUEST_TIMEOUT", "60s"))
	if err != nil {
		return nil, fmt.Errorf("parse REQUEST_TIMEOUT: %w", err)
	}

	return &Config{
		PredictURL:     getEnv("PREDICT_URL", "http://localhost:8000/predict"),
		ReportURL:      getEnv("GENERATE_PDF_URL", "http://localhost:8000/generate_pdf"),
		ListenAddr:     getEnv("LISTEN_ADDR", ":8080"),
		ReportDir:      getEnv("REPORT_DIR", "reports"),
		RequestTimeout: timeout,
	}, nil
}

var validate = validator.New()

// Validate checks that every field is usable.
func (c *Config) Validate() error {
	return validate.Struct(c)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
