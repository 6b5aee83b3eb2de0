package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"

	"checkin-server-go/db"
	"checkin-server-go/models"
)

// Config holds the station settings read from the environment
type Config struct {
	Port          string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	PrintEndpoint string
	GinMode       string

	// Defaults applied to every event before its own override
	Defaults models.Settings
}

// Load reads an optional .env file and then the environment
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not read .env: %v", err)
	}

	cfg := Config{
		Port:          ":" + getEnv("PORT", "8080"),
		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       cast.ToInt(getEnv("REDIS_DB", "8")),
		PrintEndpoint: getEnv("PRINT_ENDPOINT", "http://127.0.0.1:9100/write"),
		GinMode:       getEnv("GIN_MODE", "release"),
		Defaults: models.Settings{
			MaxBackups:     cast.ToInt(getEnv("DEFAULT_MAX_BACKUPS", "10")),
			FormRows:       cast.ToInt(getEnv("DEFAULT_FORM_ROWS", "5")),
			LoginPassword:  getEnv("DEFAULT_LOGIN_PASSWORD", "1234"),
			AdminPassword:  getEnv("DEFAULT_ADMIN_PASSWORD", "admin"),
			LabelLength:    cast.ToInt(getEnv("DEFAULT_LABEL_LENGTH", "254")),
			Clasp:          cast.ToInt(getEnv("DEFAULT_CLASP", "30")),
			DotsPerUnit:    cast.ToInt(getEnv("DEFAULT_DOTS", "8")),
			CommonKeywords: db.ParseKeywords(getEnv("DEFAULT_COMMON_KEYWORDS", "bonfim, bofim, bom fim")),
			DebugMode:      cast.ToBool(getEnv("DEFAULT_DEBUG_MODE", "false")),
		},
	}
	cfg.Defaults.Derive()
	return cfg
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

