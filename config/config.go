package config

import (
	"log"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

var Cfg Config

type Config struct {
	// 服务配置
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // development, staging, production
	ServiceName string `env:"SERVICE_NAME" envDefault:"studyspace"`

	// 后端 API 配置
	APIBaseURL    string `env:"API_BASE_URL" envDefault:"http://localhost:5000/api"`
	APITimeoutSec int    `env:"API_TIMEOUT_SECONDS" envDefault:"15"`
	APIRetryCount int    `env:"API_RETRY_COUNT" envDefault:"0"` // 步骤提交不可重放，默认不重试

	// 本地状态存储配置
	StateBackend string `env:"STATE_BACKEND" envDefault:"file"` // file, redis
	StateDir     string `env:"STATE_DIR"`                       // 为空时使用 ~/.studyspace

	// Redis 配置（STATE_BACKEND=redis 时生效）
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"REDIS_PREFIX" envDefault:"stsp"`

	// 支付配置
	CheckoutKeyID string `env:"CHECKOUT_KEY_ID"` // Razorpay 公开 key，仅透传给收银台
	OTPLength     int    `env:"OTP_LENGTH" envDefault:"6"`

	// 日志配置
	LoggerLevel      string `env:"LOGGER_LEVEL" envDefault:"INFO"`
	LoggerFormat     string `env:"LOGGER_FORMAT" envDefault:"text"` // json, text
	LoggerOutputPath string `env:"LOGGER_OUTPUT_PATH" envDefault:"stdout"`
}

func init() {

	if err := godotenv.Load(); err != nil {

		log.Printf("WARN: Cannot load .env file: %v, using environment variables", err)
	}

	Cfg = Config{}
	if err := env.Parse(&Cfg); err != nil {
		log.Fatalf("Failed to parse environment variables: %v", err)
	}

	validateConfig()
}

func validateConfig() {
	if Cfg.APIBaseURL == "" {
		log.Fatal("API_BASE_URL is required")
	}

	if Cfg.StateBackend != "file" && Cfg.StateBackend != "redis" {
		log.Fatalf("STATE_BACKEND must be file or redis, got %q", Cfg.StateBackend)
	}

	if Cfg.OTPLength <= 0 {
		log.Fatal("OTP_LENGTH must be positive")
	}

	if Cfg.CheckoutKeyID == "" {
		log.Printf("WARN: CHECKOUT_KEY_ID is not set, online checkout will not work")
	}
}

// GetStateDir 返回本地状态目录，未配置时落到用户主目录下
func (c *Config) GetStateDir() string {
	if c.StateDir != "" {
		return c.StateDir
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ".studyspace"
	}
	return filepath.Join(home, ".studyspace")
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
