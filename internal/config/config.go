package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	DatabaseURL     string
	JWTSecret       string
	PublicDir       string
	GeneratedDir    string
	DisconnectGrace time.Duration
	ResultsDisplay  time.Duration
	RoomStaleTTL    time.Duration
	AllowedOrigins  []string
	LogLevel        string
	LogPretty       bool
	MessageRate     int // inbound messages per second per connection
	MessageBurst    int
}

// LoadDotEnv loads variables from a .env file when one exists.
// Variables already set in the environment win.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

func Load() Config {
	publicDir := getEnv("PUBLIC_DIR", "public")
	cfg := Config{
		Port:            getEnv("PORT", "8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		PublicDir:       publicDir,
		GeneratedDir:    getEnv("GENERATED_DIR", publicDir+"/generated"),
		DisconnectGrace: time.Duration(getEnvInt("DISCONNECT_GRACE_SECONDS", 10)) * time.Second,
		ResultsDisplay:  time.Duration(getEnvInt("RESULTS_DISPLAY_SECONDS", 30)) * time.Second,
		RoomStaleTTL:    time.Duration(getEnvInt("ROOM_STALE_TTL_MINUTES", 60)) * time.Minute,
		AllowedOrigins:  splitList(getEnv("ALLOWED_ORIGINS", "*")),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogPretty:       getEnvBool("LOG_PRETTY", false),
		MessageRate:     getEnvInt("MESSAGE_RATE", 10),
		MessageBurst:    getEnvInt("MESSAGE_BURST", 20),
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
