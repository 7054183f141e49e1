package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/flagx"
	"github.com/joho/godotenv"
)

// Environment variable names understood by parseEnv.
const (
	EnvAddr            = "NOTES_ADDR"
	EnvDatabaseDSN     = "DATABASE_DSN"
	EnvSecretKey       = "JWT_SECRET"
	EnvAccessTokenTTL  = "ACCESS_TOKEN_TTL"
	EnvBcryptCost      = "BCRYPT_COST"
	EnvCORSOrigins     = "CORS_ORIGINS"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)

// parseEnv overlays Config with environment variables. When -e/-env names a
// dotenv file it is loaded first and must exist; otherwise a .env in the
// working directory is loaded if present. Variables already set in the
// process environment win over the file, as godotenv never overrides them.
//
// Malformed numeric or duration values are ignored and the previous value
// is kept.
func parseEnv(config *Config) {
	if path := flagx.EnvFileFlags(); path != "" {
		if err := godotenv.Load(path); err != nil {
			panic(err)
		}
	} else {
		_ = godotenv.Load()
	}

	config.EndpointAddrHTTP = getEnv(EnvAddr, config.EndpointAddrHTTP)
	config.DatabaseDSN = getEnv(EnvDatabaseDSN, config.DatabaseDSN)
	config.SecretKey = getEnv(EnvSecretKey, config.SecretKey)
	config.AccessTokenValidityDuration = getDurationEnv(EnvAccessTokenTTL, config.AccessTokenValidityDuration)
	config.BcryptCost = getIntEnv(EnvBcryptCost, config.BcryptCost)
	config.CORSAllowedOrigins = getStringSliceEnv(EnvCORSOrigins, config.CORSAllowedOrigins)
	config.ShutdownTimeout = getDurationEnv(EnvShutdownTimeout, config.ShutdownTimeout)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if parts := splitList(value); len(parts) > 0 {
		return parts
	}
	return defaultValue
}

// splitList splits a comma-separated list, trimming blanks and dropping
// empty items.
func splitList(s string) []string {
	var parts []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
