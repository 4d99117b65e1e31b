package config

import (
	"os"
	"path"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr           string
	DataDir        string
	Store          string // "file" or "sqlite"
	DatabaseURL    string
	LogLevel       string
	BalancePath    string
	SessionTTLDays int
	AllowedOrigins []string
}

const (
	DefaultAddr           = ":8080"
	DefaultStore          = "file"
	DefaultLogLevel       = "info"
	DefaultSessionTTLDays = 7
)

var (
	userHome, _    = os.UserHomeDir()
	DefaultDataDir = path.Join(userHome, ".taskman")
)

// Load reads configuration from the environment, falling back to a
// TASKMAN_CONF dotenv file (default ./taskman.conf) when present.
func Load() Config {
	confFile := os.Getenv("TASKMAN_CONF")
	if confFile == "" {
		confFile = "taskman.conf"
	}
	if _, err := os.Stat(confFile); err == nil {
		_ = godotenv.Load(confFile)
	}

	dataDir := coalesce(os.Getenv("TASKMAN_DATA_DIR"), DefaultDataDir)

	cfg := Config{
		Addr:           coalesce(os.Getenv("TASKMAN_ADDR"), DefaultAddr),
		DataDir:        dataDir,
		Store:          coalesce(os.Getenv("TASKMAN_STORE"), DefaultStore),
		DatabaseURL:    coalesce(os.Getenv("TASKMAN_DB_URL"), path.Join(dataDir, "taskman.db")),
		LogLevel:       coalesce(os.Getenv("TASKMAN_LOG_LEVEL"), DefaultLogLevel),
		BalancePath:    os.Getenv("TASKMAN_BALANCE"),
		SessionTTLDays: intEnv("TASKMAN_SESSION_TTL_DAYS", DefaultSessionTTLDays),
		AllowedOrigins: []string{coalesce(os.Getenv("TASKMAN_ALLOWED_ORIGIN"), "*")},
	}
	return cfg
}

func coalesce(args ...string) string {
	for _, s := range args {
		if s != "" {
			return s
		}
	}
	return ""
}

func intEnv(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
