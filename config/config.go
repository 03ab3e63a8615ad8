package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort   string `mapstructure:"APP_PORT"`
	Env       string `mapstructure:"ENV"`
	JWTSecret string `mapstructure:"JWT_SECRET"`
	LogLevel  string `mapstructure:"LOG_LEVEL"`

	MaxRequestsPerMin int `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr            string `mapstructure:"REDIS_ADDR"`
	RedisPassword        string `mapstructure:"REDIS_PASSWORD"`
	RedisSessionDB       int    `mapstructure:"REDIS_SESSION_DB"`
	RedisHistoryDB       int    `mapstructure:"REDIS_HISTORY_DB"`
	RedisReminderQueueDB int    `mapstructure:"REDIS_REMINDER_QUEUE_DB"`

	// Upstream appointment API.
	UpstreamBaseURL string        `mapstructure:"UPSTREAM_BASE_URL"`
	UpstreamTimeout time.Duration `mapstructure:"UPSTREAM_TIMEOUT"`
	UseMockUpstream bool          `mapstructure:"USE_MOCK_UPSTREAM"`

	// Wizard session lifetime.
	SessionTTL time.Duration `mapstructure:"SESSION_TTL"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_SESSION_DB", 0)
	viper.SetDefault("REDIS_HISTORY_DB", 1)
	viper.SetDefault("REDIS_REMINDER_QUEUE_DB", 2)
	viper.SetDefault("UPSTREAM_BASE_URL", "http://localhost:9090")
	viper.SetDefault("UPSTREAM_TIMEOUT", 10*time.Second)
	viper.SetDefault("USE_MOCK_UPSTREAM", true)
	viper.SetDefault("SESSION_TTL", 30*time.Minute)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
