package config

import (
	"time"
)

const (
	SpoolBackendDisk   = "disk"
	SpoolBackendMemory = "memory"

	LogFormatJSON    = "json"
	LogFormatConsole = "console"
)

// Config holds everything the gateway needs before serving its first request.
type Config struct {
	ListenAddr      string        `yaml:"listen_addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	Log         LogConfig         `yaml:"log"`
	CORS        CORSConfig        `yaml:"cors"`
	Gemini      GeminiConfig      `yaml:"gemini"`
	AWS         AWSConfig         `yaml:"aws"`
	Sightengine SightengineConfig `yaml:"sightengine"`
	Spool       SpoolConfig       `yaml:"spool"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CORSConfig lists the origins allowed to call the gateway from a browser.
// "*" allows every origin.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// AllowsAll reports whether the wildcard origin is configured.
func (c CORSConfig) AllowsAll() bool {
	for _, o := range c.AllowedOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

type GeminiConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

type AWSConfig struct {
	AccessKeyID         string `yaml:"access_key_id"`
	SecretAccessKey     string `yaml:"secret_access_key"`
	Region              string `yaml:"region"`
	RekognitionEndpoint string `yaml:"rekognition_endpoint"`
}

type SightengineConfig struct {
	User     string `yaml:"user"`
	Secret   string `yaml:"secret"`
	Endpoint string `yaml:"endpoint"`
}

type SpoolConfig struct {
	Backend string `yaml:"backend"`
	Dir     string `yaml:"dir"`
}

// Default returns the configuration used before any file or environment
// value is applied. Credentials have no defaults.
func Default() *Config {
	return &Config{
		ListenAddr:      ":8000",
		ShutdownTimeout: 10 * time.Second,
		Log: LogConfig{
			Level:  "info",
			Format: LogFormatJSON,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
		Gemini: GeminiConfig{
			Model: "gemini-2.0-flash",
		},
		AWS: AWSConfig{
			Region: "us-east-1",
		},
		Sightengine: SightengineConfig{
			Endpoint: "https://api.sightengine.com/1.0/check.json",
		},
		Spool: SpoolConfig{
			Backend: SpoolBackendDisk,
		},
	}
}
