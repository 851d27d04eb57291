package config

import (
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var (
	ErrMissing = errors.New("missing required configuration")
	ErrInvalid = errors.New("invalid configuration")
)

type options struct {
	file    string
	envFile string
}

type Option func(*options)

// WithFile loads a YAML file on top of the defaults. A missing file is an
// error: it was asked for explicitly.
func WithFile(path string) Option {
	return func(o *options) { o.file = path }
}

// WithEnvFile loads a dotenv file into the process environment. Variables
// already set are not overridden, and a missing file is ignored.
func WithEnvFile(path string) Option {
	return func(o *options) { o.envFile = path }
}

// Load builds the configuration: defaults, then the YAML file, then the
// environment (including the dotenv file). The result is validated.
func Load(opts ...Option) (*Config, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	cfg := Default()

	if o.file != "" {
		data, err := os.ReadFile(o.file)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read config file")
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse config file")
		}
	}

	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrap(err, "failed to load env file")
		}
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type binding struct {
	key   string
	apply func(cfg *Config, value string) error
}

func str(dst func(*Config) *string) func(*Config, string) error {
	return func(cfg *Config, v string) error {
		*dst(cfg) = v
		return nil
	}
}

var bindings = []binding{
	{"LISTEN_ADDR", str(func(c *Config) *string { return &c.ListenAddr })},
	{"SHUTDOWN_TIMEOUT", func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: SHUTDOWN_TIMEOUT: %v", ErrInvalid, err)
		}
		c.ShutdownTimeout = d
		return nil
	}},
	{"LOG_LEVEL", str(func(c *Config) *string { return &c.Log.Level })},
	{"LOG_FORMAT", str(func(c *Config) *string { return &c.Log.Format })},
	{"CORS_ALLOWED_ORIGINS", func(c *Config, v string) error {
		c.CORS.AllowedOrigins = splitList(v)
		return nil
	}},
	{"GEMINI_API_KEY", str(func(c *Config) *string { return &c.Gemini.APIKey })},
	{"GEMINI_MODEL", str(func(c *Config) *string { return &c.Gemini.Model })},
	{"GEMINI_BASE_URL", str(func(c *Config) *string { return &c.Gemini.BaseURL })},
	{"AWS_ACCESS_KEY_ID", str(func(c *Config) *string { return &c.AWS.AccessKeyID })},
	{"AWS_SECRET_ACCESS_KEY", str(func(c *Config) *string { return &c.AWS.SecretAccessKey })},
	{"AWS_REGION", str(func(c *Config) *string { return &c.AWS.Region })},
	{"REKOGNITION_ENDPOINT", str(func(c *Config) *string { return &c.AWS.RekognitionEndpoint })},
	{"SIGHTENGINE_USER", str(func(c *Config) *string { return &c.Sightengine.User })},
	{"SIGHTENGINE_SECRET", str(func(c *Config) *string { return &c.Sightengine.Secret })},
	{"SIGHTENGINE_ENDPOINT", str(func(c *Config) *string { return &c.Sightengine.Endpoint })},
	{"SPOOL_BACKEND", str(func(c *Config) *string { return &c.Spool.Backend })},
	{"SPOOL_DIR", str(func(c *Config) *string { return &c.Spool.Dir })},
}

// applyEnv overrides cfg with every non-empty variable in bindings.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	for _, b := range bindings {
		v, ok := lookup(b.key)
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if err := b.apply(cfg, v); err != nil {
			return err
		}
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate reports every missing credential at once, then any invalid value.
func (c *Config) Validate() error {
	var missing []string
	for _, req := range []struct {
		key   string
		value string
	}{
		{"GEMINI_API_KEY", c.Gemini.APIKey},
		{"AWS_ACCESS_KEY_ID", c.AWS.AccessKeyID},
		{"AWS_SECRET_ACCESS_KEY", c.AWS.SecretAccessKey},
		{"SIGHTENGINE_USER", c.Sightengine.User},
		{"SIGHTENGINE_SECRET", c.Sightengine.Secret},
	} {
		if req.value == "" {
			missing = append(missing, req.key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
	}

	if c.ListenAddr == "" {
		return fmt.Errorf("%w: listen address is empty", ErrInvalid)
	}
	if c.AWS.Region == "" {
		c.AWS.Region = "us-east-1"
	}
	switch c.Spool.Backend {
	case SpoolBackendDisk, SpoolBackendMemory:
	default:
		return fmt.Errorf("%w: unknown spool backend %q", ErrInvalid, c.Spool.Backend)
	}
	switch c.Log.Format {
	case LogFormatJSON, LogFormatConsole:
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalid, c.Log.Format)
	}
	return nil
}
