// Package config reads service and CLI settings from the environment.
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultAPIURL   = "http://localhost:8000/api"
	minSecretLength = 32
)

type ServerConfig struct {
	Port       string
	APIPrefix  string
	DBDriver   string
	DSN        string
	JWTSecret  string
	JWTTTL     time.Duration
	CORSOrigin []string

	AuthRateLimit  int
	AuthRateWindow time.Duration

	RedisAddr    string
	KafkaBrokers []string
	KafkaTopic   string
}

// ClientConfig holds the CLI settings.
type ClientConfig struct {
	APIURL    string
	ConfigDir string

	// Quiet suppresses informational output.
	Quiet bool
	// Debug logs every request to stderr.
	Debug bool
}

// LoadDotEnv loads .env when present; a missing file is not an error.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			log.Printf("Error loading %s: %v", f, err)
		}
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func LoadServer() (*ServerConfig, error) {
	v := newViper()
	v.SetDefault("SERVER_PORT", "8000")
	v.SetDefault("API_PREFIX", "/api")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("AUTH_RATE_LIMIT", 5)
	v.SetDefault("AUTH_RATE_WINDOW", "1m")
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", "5432")
	v.SetDefault("KAFKA_TOPIC", "todo-events")

	cfg := &ServerConfig{
		Port:           v.GetString("SERVER_PORT"),
		APIPrefix:      "/" + strings.Trim(v.GetString("API_PREFIX"), "/"),
		DBDriver:       v.GetString("DB_DRIVER"),
		JWTSecret:      v.GetString("JWT_SECRET"),
		JWTTTL:         v.GetDuration("JWT_TTL"),
		CORSOrigin:     splitList(v.GetString("CORS_ORIGINS")),
		AuthRateLimit:  v.GetInt("AUTH_RATE_LIMIT"),
		AuthRateWindow: v.GetDuration("AUTH_RATE_WINDOW"),
		RedisAddr:      v.GetString("REDIS_ADDR"),
		KafkaBrokers:   splitList(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:     v.GetString("KAFKA_TOPIC"),
	}
	if cfg.APIPrefix == "/" {
		cfg.APIPrefix = ""
	}

	dsn, err := buildDSN(v, cfg.DBDriver)
	if err != nil {
		return nil, err
	}
	cfg.DSN = dsn

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildDSN(v *viper.Viper, driver string) (string, error) {
	if url := v.GetString("DATABASE_URL"); url != "" {
		return url, nil
	}
	switch driver {
	case "sqlite3":
		return "file:todo.db?_foreign_keys=on", nil
	case "postgres":
		for _, key := range []string{"POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB"} {
			if v.GetString(key) == "" {
				return "", fmt.Errorf("environment variable %s must be set", key)
			}
		}
		return fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			v.GetString("POSTGRES_HOST"), v.GetString("POSTGRES_USER"),
			v.GetString("POSTGRES_PASSWORD"), v.GetString("POSTGRES_DB"),
			v.GetString("POSTGRES_PORT")), nil
	default:
		return "", fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}

func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("environment variable SERVER_PORT must be set")
	}
	if len(c.JWTSecret) < minSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minSecretLength)
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	if c.AuthRateLimit <= 0 || c.AuthRateWindow <= 0 {
		return fmt.Errorf("AUTH_RATE_LIMIT and AUTH_RATE_WINDOW must be positive")
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return fmt.Errorf("environment variable KAFKA_TOPIC must be set")
	}
	return nil
}

// LoadClient resolves the CLI settings; explicit flag values win over the environment.
func LoadClient(apiURL, configDir string) (*ClientConfig, error) {
	v := newViper()
	v.SetDefault("TODO_API_URL", DefaultAPIURL)

	cfg := &ClientConfig{APIURL: apiURL, ConfigDir: configDir}
	if cfg.APIURL == "" {
		cfg.APIURL = v.GetString("TODO_API_URL")
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")

	if cfg.ConfigDir == "" {
		cfg.ConfigDir = v.GetString("TODO_CONFIG_DIR")
	}
	if cfg.ConfigDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve config dir: %w", err)
		}
		cfg.ConfigDir = filepath.Join(base, "todo")
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
