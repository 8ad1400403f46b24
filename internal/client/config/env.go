package config

import (
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// parseEnv overlays Config with values from the process environment.
// A .env file in the working directory is loaded first when present,
// which keeps local development credentials out of shell profiles;
// real environment variables still win over .env entries.
func parseEnv(cfg *Config) {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
	if err := env.Parse(cfg); err != nil {
		panic(err)
	}
}
