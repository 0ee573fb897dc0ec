package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port       string `env:"PORT" envDefault:"8080"`
	AppEnv     string `env:"APP_ENV"`
	BaseURL    string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	BackendURL string `env:"BACKEND_URL" envDefault:"http://localhost:3000"`

	// localfs | redis | postgres
	CartStore string `env:"CART_STORE" envDefault:"localfs"`
	CartDir   string `env:"CART_DIR" envDefault:"carts"`
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	DBDSN     string `env:"DB_DSN"`

	SessionKey         string   `env:"SESSION_KEY"`
	GoogleClientID     string   `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string   `env:"GOOGLE_CLIENT_SECRET"`
	AdminAllowedEmails []string `env:"ADMIN_ALLOWED_EMAILS" envSeparator:","`
}

func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return c, nil
}

func (c Config) IsDev() bool {
	return c.AppEnv == "" || c.AppEnv == "development" || c.AppEnv == "dev"
}
