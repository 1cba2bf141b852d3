package config

import (
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"electoral-app/internal/common"
)

// StorageKey is the fixed key the auth token is persisted under
const StorageKey = "electoral_token"

// DefaultBaseURL points at a locally running backend
const DefaultBaseURL = "http://localhost:8001/api"

// FromEnv reads configuration from environment variables, seeded from a .env
// file when present. The result is not validated, so callers can apply
// overrides first.
func FromEnv() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("⚠️ Could not read .env file: %v", err)
	}

	cfg := &Config{
		API: APIConfig{
			BaseURL:   strings.TrimRight(getEnvString("ELECTORAL_API_URL", DefaultBaseURL), "/"),
			Timeout:   getEnvDuration("ELECTORAL_API_TIMEOUT", 0),
			UserAgent: getEnvString("ELECTORAL_USER_AGENT", "electoral-client/1.0"),
		},
		Session: SessionConfig{
			TokenDir:   getEnvString("ELECTORAL_TOKEN_DIR", defaultTokenDir()),
			StorageKey: StorageKey,
		},
		Export: ExportConfig{
			Backend: getEnvString("ELECTORAL_EXPORT_BACKEND", "local"),
			BaseDir: getEnvString("ELECTORAL_EXPORT_DIR", "./exports"),
			Bucket:  getEnvString("ELECTORAL_S3_BUCKET", ""),
			Region:  getEnvString("ELECTORAL_S3_REGION", "us-east-1"),
			Prefix:  getEnvString("ELECTORAL_S3_PREFIX", "reports"),
		},
		Web: WebConfig{
			Host:           getEnvString("ELECTORAL_WEB_HOST", "127.0.0.1"),
			Port:           getEnvInt("ELECTORAL_WEB_PORT", 8090),
			AllowedOrigins: getEnvList("ELECTORAL_WEB_ORIGINS"),
		},
		Logging: LoggingConfig{
			Verbose: getEnvBool("ELECTORAL_VERBOSE", false),
		},
	}
	return cfg
}

func defaultTokenDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".electoral"
	}
	return filepath.Join(home, ".electoral")
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return common.RemoveDuplicates(out)
}

// String returns a pretty-printed JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api base url: %q", c.API.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported api url scheme: %s", u.Scheme)
	}

	if c.API.Timeout < 0 {
		return fmt.Errorf("invalid api timeout: %s", c.API.Timeout)
	}

	if c.Session.TokenDir == "" {
		return fmt.Errorf("token dir is required")
	}

	switch c.Export.Backend {
	case "local":
		if c.Export.BaseDir == "" {
			return fmt.Errorf("export dir is required for local export backend")
		}
	case "s3":
		if c.Export.Bucket == "" {
			return fmt.Errorf("bucket is required for s3 export backend")
		}
	default:
		return fmt.Errorf("invalid export backend: %s", c.Export.Backend)
	}

	if c.Web.Port <= 0 || c.Web.Port > 65535 {
		return fmt.Errorf("invalid web port: %d", c.Web.Port)
	}

	return nil
}

// Addr returns the listen address of the web UI
func (w WebConfig) Addr() string {
	return w.Host + ":" + strconv.Itoa(w.Port)
}
