package config

import (
	"fmt"
	"path/filepath"
	"time"

	"bizkit/pkg/config"
)

type BulkConfig struct {
	Delay time.Duration `yaml:"delay"`
}

type AssetsConfig struct {
	// Backend selects the scratch store: "memory" or "redis".
	Backend string `yaml:"backend"`
	// BlobBackend selects where uploaded files go: "memory" or "s3".
	BlobBackend string        `yaml:"blob_backend"`
	MaxUpload   int64         `yaml:"max_upload"`
	TTL         time.Duration `yaml:"ttl"`
}

type Config struct {
	Server ServerSection       `yaml:"server"`
	DB     config.DBConfig     `yaml:"db"`
	Redis  config.RedisConfig  `yaml:"redis"`
	MQ     config.MQConfig     `yaml:"mq"`
	JWT    config.JWTConfig    `yaml:"jwt"`
	OpenAI config.OpenAIConfig `yaml:"openai"`
	Gemini config.GeminiConfig `yaml:"gemini"`
	SMTP   config.SMTPConfig   `yaml:"smtp"`
	S3     config.S3Config     `yaml:"s3"`
	Bulk   BulkConfig          `yaml:"bulk"`
	Assets AssetsConfig        `yaml:"assets"`
}

type ServerSection = config.ServerConfig

// Defaults mirrors what the service does with no config file at all.
func Defaults() *Config {
	return &Config{
		Server: config.ServerConfig{
			Port: ":5000",
			CORSOrigins: []string{
				"http://localhost:5173",
				"http://localhost:5174",
				"http://localhost:5175",
				"http://localhost:3000",
			},
			BodyLimit: 10 << 20,
		},
		DB: config.DBConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "postgres",
			Name:    "bizkit",
			SSLMode: "disable",
		},
		JWT: config.JWTConfig{TTL: 7 * 24 * time.Hour},
		OpenAI: config.OpenAIConfig{
			BaseURL: "https://openrouter.ai/api/v1",
			Model:   "meta-llama/llama-3-8b-instruct",
		},
		Gemini: config.GeminiConfig{Model: "gemini-2.0-flash"},
		SMTP:   config.SMTPConfig{Host: "smtp.gmail.com", Port: 465},
		Bulk:   BulkConfig{Delay: time.Second},
		Assets: AssetsConfig{
			Backend:     "memory",
			BlobBackend: "memory",
			MaxUpload:   10 << 20,
		},
	}
}

// Load reads config.yaml from dir (optional), then .env, then the process
// environment. Later sources win.
func Load(dir string) (*Config, error) {
	cfg := Defaults()

	if err := config.LoadYAML(filepath.Join(dir, "config.yaml"), cfg); err != nil {
		return nil, err
	}
	if err := config.LoadDotEnv(dir); err != nil {
		return nil, err
	}

	// 环境变量覆盖（生产环境使用）
	config.OverrideServerFromEnv(&cfg.Server)
	config.OverrideDBFromEnv(&cfg.DB)
	config.OverrideRedisFromEnv(&cfg.Redis)
	config.OverrideMQFromEnv(&cfg.MQ)
	config.OverrideJWTFromEnv(&cfg.JWT)
	config.OverrideOpenAIFromEnv(&cfg.OpenAI)
	config.OverrideGeminiFromEnv(&cfg.Gemini)
	config.OverrideSMTPFromEnv(&cfg.SMTP)
	config.OverrideS3FromEnv(&cfg.S3)

	if v := config.GetEnv("BULK_DELAY", ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid BULK_DELAY: %w", err)
		}
		cfg.Bulk.Delay = d
	}
	if v := config.GetEnv("ASSETS_BACKEND", ""); v != "" {
		cfg.Assets.Backend = v
	}
	if v := config.GetEnv("ASSETS_BLOB_BACKEND", ""); v != "" {
		cfg.Assets.BlobBackend = v
	}

	if cfg.SMTP.From == "" {
		cfg.SMTP.From = cfg.SMTP.User
	}
	return cfg, nil
}

// Validate rejects settings the process cannot start with. Missing provider
// keys are not errors: the affected feature reports "Not configured".
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt secret is required (JWT_SECRET)")
	}
	if c.JWT.TTL <= 0 {
		return fmt.Errorf("jwt ttl must be positive")
	}
	switch c.Assets.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown assets backend %q", c.Assets.Backend)
	}
	switch c.Assets.BlobBackend {
	case "memory", "s3":
	default:
		return fmt.Errorf("unknown assets blob backend %q", c.Assets.BlobBackend)
	}
	return nil
}
