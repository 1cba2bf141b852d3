package config

import "time"

// Config holds the configuration for the client and its front ends
type Config struct {
	API     APIConfig     `json:"api"`
	Session SessionConfig `json:"session"`
	Export  ExportConfig  `json:"export"`
	Web     WebConfig     `json:"web"`
	Logging LoggingConfig `json:"logging"`
}

// APIConfig describes how to reach the backend
type APIConfig struct {
	BaseURL   string        `json:"base_url"`
	Timeout   time.Duration `json:"timeout"` // 0 means no client-side timeout
	UserAgent string        `json:"user_agent"`
}

// SessionConfig controls where the auth token is persisted
type SessionConfig struct {
	TokenDir   string `json:"token_dir"`
	StorageKey string `json:"storage_key"`
}

// ExportConfig selects the sink for exported report PDFs
type ExportConfig struct {
	Backend string `json:"backend"` // "local" or "s3"
	BaseDir string `json:"base_dir"`
	Bucket  string `json:"bucket"`
	Region  string `json:"region"`
	Prefix  string `json:"prefix"`
}

// WebConfig for the local web UI
type WebConfig struct {
	Host           string   `json:"host"`
	Port           int      `json:"port"`
	AllowedOrigins []string `json:"allowed_origins"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Verbose bool `json:"verbose"`
}
