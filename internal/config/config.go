package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config agrupa toda la configuración del servicio.
// Todo sale de variables de entorno con defaults razonables.
type Config struct {
	// Server
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Storage: si DBDSN está vacío se usa el store en memoria.
	DBDSN string

	// Logging
	LogLevel  string
	LogFormat string
	AppName   string

	// Verificación de sesiones contra el servicio de identidad.
	// Si SessionsBaseURL está vacío, el servidor corre en modo dev
	// (header X-Debug-User-ID).
	SessionsBaseURL string
	SessionsAPIKey  string
	SessionsTimeout time.Duration
}

// Load lee .env (si existe; las env vars reales tienen precedencia) y arma
// la configuración.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:         getEnvInt("PORT", 8080),
		ReadTimeout:  getEnvDuration("READ_TIMEOUT", 5*time.Second),
		WriteTimeout: getEnvDuration("WRITE_TIMEOUT", 10*time.Second),

		DBDSN: getEnv("DB_DSN", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
		AppName:   getEnv("APP_NAME", "grooming-service"),

		SessionsBaseURL: getEnv("SESSIONS_BASE_URL", ""),
		SessionsAPIKey:  getEnv("SESSIONS_API_KEY", ""),
		SessionsTimeout: getEnvDuration("SESSIONS_TIMEOUT", 5*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
