package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
)

const (
	BufferBackendFile     = "file"
	BufferBackendPostgres = "postgres"

	RankerModel    = "model"
	RankerDistance = "distance"
	RankerAxis     = "axis"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config centraliza la configuración del recomendador.
type Config struct {
	DatasetPath     string  `env:"DATASET_PATH" envDefault:"data/CareerMap.csv" validate:"required"`
	ArtifactsDir    string  `env:"ARTIFACTS_DIR" envDefault:"artifacts" validate:"required"`
	BufferBackend   string  `env:"BUFFER_BACKEND" envDefault:"file" validate:"oneof=file postgres"`
	BufferPath      string  `env:"BUFFER_PATH" envDefault:"artifacts/buffer.jsonl"`
	DatabaseURL     string  `env:"DATABASE_URL" validate:"required_if=BufferBackend postgres"`
	RedisAddr       string  `env:"REDIS_ADDR"`
	RedisPassword   string  `env:"REDIS_PASSWORD"`
	RedisDB         int     `env:"REDIS_DB" envDefault:"0" validate:"gte=0"`
	Ranker          string  `env:"RANKER" envDefault:"model" validate:"oneof=model distance axis"`
	TopK            int     `env:"TOP_K" envDefault:"3" validate:"gte=1"`
	LookaheadFactor int     `env:"LOOKAHEAD_FACTOR" envDefault:"4" validate:"gte=1"`
	HybridThreshold float64 `env:"HYBRID_THRESHOLD" envDefault:"0.15" validate:"gte=0,lte=1"`
	MetricsAddr     string  `env:"METRICS_ADDR"`
	LogLevel        string  `env:"LOG_LEVEL" envDefault:"info"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
