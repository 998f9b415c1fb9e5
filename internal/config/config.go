// Package config は環境変数からアプリケーション設定を読み込む。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultDatabaseURL はDATABASE_URL未設定時に使うローカルのSQLiteファイル。
const DefaultDatabaseURL = "sqlite:///./test.db"

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL      string `mapstructure:"database_url" validate:"required"`
	DBMaxOpenConns   int    `mapstructure:"db_max_open_conns" validate:"gte=1"`
	DBConnectRetries int    `mapstructure:"db_connect_retries" validate:"gte=1"`

	// Server
	ServerPort      string        `mapstructure:"server_port" validate:"required,numeric"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`

	// Logging
	LogLevel string `mapstructure:"log_level" validate:"oneof=debug info warn error"`

	// CORS
	CORSAllowedOrigin string `mapstructure:"cors_allowed_origin" validate:"required"`

	// Rate Limit（/auth配下、1分あたりのリクエスト数。0で無効）
	RateLimitAuth int `mapstructure:"rate_limit_auth" validate:"gte=0"`
}

// Load は環境変数からConfigを読み込む。
// カレントディレクトリから親へ遡って最初に見つかった.envを先に読み込むが、既存の環境変数は上書きしない。
// 全ての項目にデフォルト値があるため、環境変数が1つもなくても起動できる。
func Load() (*Config, error) {
	if path, ok := findDotEnv(); ok {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// findDotEnv はカレントディレクトリからルートまで.envを探す。
func findDotEnv() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for {
		path := filepath.Join(dir, ".env")
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", false
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// setDefaults はデフォルト値を登録する。
// AutomaticEnvはここで登録したキーだけをUnmarshal対象にする。
func setDefaults(v *viper.Viper) {
	v.SetDefault("database_url", DefaultDatabaseURL)
	v.SetDefault("db_max_open_conns", 10)
	v.SetDefault("db_connect_retries", 5)
	v.SetDefault("server_port", "8000")
	v.SetDefault("shutdown_timeout", 30*time.Second)
	v.SetDefault("log_level", "info")
	v.SetDefault("cors_allowed_origin", "*")
	v.SetDefault("rate_limit_auth", 60)
}
