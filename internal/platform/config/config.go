package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"bookbnb-backend/internal/platform/db"
)

const DefaultPath = "config/config.yaml"

type Certs struct {
	Cert string `yaml:"cert" env:"CERT"`
	Key  string `yaml:"key" env:"KEY"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" env:"ADDR"`
	// ビルド済みSPA（index.html を含むディレクトリ）。空なら配信しない
	StaticDir      string   `yaml:"static_dir" env:"STATIC_DIR"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	TokenTTL  time.Duration `yaml:"token_ttl" env:"TOKEN_TTL"`
}

type LoansConfig struct {
	// participants | lender | borrower | unguarded
	CancelPolicy      string `yaml:"cancel_policy" env:"CANCEL_POLICY"`
	StrictTransitions bool   `yaml:"strict_transitions" env:"STRICT_TRANSITIONS"`
}

type Config struct {
	Version     string            `yaml:"version"`
	Mode        string            `yaml:"mode" env:"BOOKBNB_MODE"`
	DB          db.DatabaseConfig `yaml:"database" envPrefix:"BOOKBNB_DB_"`
	Certificate Certs             `yaml:"certificate" envPrefix:"BOOKBNB_TLS_"`
	Server      ServerConfig      `yaml:"server" envPrefix:"BOOKBNB_"`
	Auth        AuthConfig        `yaml:"auth" envPrefix:"BOOKBNB_"`
	Loans       LoansConfig       `yaml:"loans" envPrefix:"BOOKBNB_LOANS_"`
	SeedOnStart bool              `yaml:"seed_on_start" env:"BOOKBNB_SEED_ON_START"`
}

// Load reads the YAML file at path (a missing file is allowed), applies
// BOOKBNB_* environment overrides, fills defaults and validates.
func Load(path string) (*Config, error) {
	cfg := Default()

	buf, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("設定ファイルのパース失敗: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		// 環境変数だけで起動するケース（コンテナ等）
	default:
		return nil, fmt.Errorf("設定ファイルの読み込み失敗: %w", err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Default() *Config {
	return &Config{
		Mode: "dev",
		DB: db.DatabaseConfig{
			Host:   "127.0.0.1",
			Port:   3306,
			DBName: "bookbnb",
		},
		Server: ServerConfig{
			Addr:           ":5000",
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Auth:  AuthConfig{TokenTTL: 7 * 24 * time.Hour},
		Loans: LoansConfig{CancelPolicy: "participants"},
	}
}

func (c *Config) Validate() error {
	if c.Mode != "dev" && c.Mode != "release" {
		return fmt.Errorf("mode must be dev or release, got %q", c.Mode)
	}
	if c.Auth.JWTSecret == "" {
		if c.Mode == "release" {
			return errors.New("auth.jwt_secret is required in release mode")
		}
		c.Auth.JWTSecret = "local-dev-secret"
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}
	return nil
}

func (c *Config) TLS() bool {
	return c.Certificate.Cert != "" && c.Certificate.Key != ""
}
