package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds the runtime configuration, loaded from environment variables
// with development defaults.
type Config struct {
	AppPort     string
	DatabaseDSN string
	CORSOrigins []string
	RabbitMQURL string
	StaticDir   string
}

// Load reads the configuration from the environment via Viper.
func Load() *Config {
	viper.SetDefault("APP_PORT", ":5000")
	viper.SetDefault("DATABASE_DSN", "catalog.db")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")
	viper.SetDefault("RABBITMQ_URL", "")
	viper.SetDefault("STATIC_DIR", "./dist")
	viper.AutomaticEnv()

	origins := strings.Split(viper.GetString("CORS_ALLOWED_ORIGINS"), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	return &Config{
		AppPort:     viper.GetString("APP_PORT"),
		DatabaseDSN: viper.GetString("DATABASE_DSN"),
		CORSOrigins: origins,
		RabbitMQURL: viper.GetString("RABBITMQ_URL"),
		StaticDir:   viper.GetString("STATIC_DIR"),
	}
}
