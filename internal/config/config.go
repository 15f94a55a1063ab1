// Package config loads server settings from defaults, an optional TOML file
// and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/erazemk/pokevault/internal/pricing"
	"github.com/erazemk/pokevault/internal/refresh"
	"github.com/erazemk/pokevault/internal/storage"
)

// Duration is a time.Duration written as "10s" or "24h" in TOML.
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// D returns d as a time.Duration.
func (d Duration) D() time.Duration { return time.Duration(d) }

type Config struct {
	Log      LogConfig      `toml:"log"`
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Auth     AuthConfig     `toml:"auth"`
	Pricing  PricingConfig  `toml:"pricing"`
	Refresh  RefreshConfig  `toml:"refresh"`
	Storage  StorageConfig  `toml:"storage"`
}

type LogConfig struct {
	Level slog.Level `toml:"level"`
	File  string     `toml:"file"`
}

type ServerConfig struct {
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

type DatabaseConfig struct {
	URL string `toml:"url"`
}

type AuthConfig struct {
	// URL and AnonKey enable remote token verification when JWTSecret is empty.
	URL       string   `toml:"url"`
	AnonKey   string   `toml:"anon_key"`
	JWTSecret string   `toml:"jwt_secret"`
	ReadOnly  []string `toml:"read_only"`
	Timeout   Duration `toml:"timeout"`
}

type PricingConfig struct {
	BaseURL   string   `toml:"base_url"`
	APIKey    string   `toml:"api_key"`
	Timeout   Duration `toml:"timeout"`
	CacheSize int      `toml:"cache_size"`
	CacheTTL  Duration `toml:"cache_ttl"`
}

type RefreshConfig struct {
	Interval        Duration `toml:"interval"`
	SharedWatermark bool     `toml:"shared_watermark"`
}

type StorageConfig struct {
	Endpoint  string `toml:"endpoint"`
	Region    string `toml:"region"`
	Bucket    string `toml:"bucket"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	PublicURL string `toml:"public_url"`
}

// S3 converts the storage section for the storage package.
func (s StorageConfig) S3() storage.Config {
	return storage.Config{
		Endpoint:  s.Endpoint,
		Region:    s.Region,
		Bucket:    s.Bucket,
		AccessKey: s.AccessKey,
		SecretKey: s.SecretKey,
		PublicURL: s.PublicURL,
	}
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Log:    LogConfig{Level: slog.LevelInfo},
		Server: ServerConfig{Addr: ":3000", AllowedOrigins: []string{"http://localhost:4200"}},
		Database: DatabaseConfig{
			URL: "pokevault.sqlite3",
		},
		Auth: AuthConfig{Timeout: Duration(5 * time.Second)},
		Pricing: PricingConfig{
			BaseURL:   pricing.DefaultBaseURL,
			Timeout:   Duration(refresh.DefaultLookupTimeout),
			CacheSize: 256,
			CacheTTL:  Duration(15 * time.Minute),
		},
		Refresh: RefreshConfig{Interval: Duration(refresh.DefaultInterval)},
	}
}

// Load reads defaults, then path (if non-empty), then the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening config: %w", err)
		}
		defer file.Close()

		dec := toml.NewDecoder(file)
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("decoding config %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays environment variables onto c.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = splitList(v)
		}
	}

	str("DATABASE_URL", &c.Database.URL)
	list("ALLOWED_ORIGINS", &c.Server.AllowedOrigins)
	str("SUPABASE_URL", &c.Auth.URL)
	str("SUPABASE_ANON_KEY", &c.Auth.AnonKey)
	str("SUPABASE_JWT_SECRET", &c.Auth.JWTSecret)
	list("DEMO_USER_IDS", &c.Auth.ReadOnly)
	str("POKEMON_PRICE_API_KEY", &c.Pricing.APIKey)
	str("S3_ENDPOINT", &c.Storage.Endpoint)
	str("S3_REGION", &c.Storage.Region)
	str("S3_BUCKET", &c.Storage.Bucket)
	str("S3_ACCESS_KEY", &c.Storage.AccessKey)
	str("S3_SECRET_KEY", &c.Storage.SecretKey)
	str("S3_PUBLIC_URL", &c.Storage.PublicURL)

	if v, ok := lookup("PORT"); ok && v != "" {
		if _, err := strconv.Atoi(v); err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Addr = ":" + v
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		if err := c.Log.Level.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("invalid LOG_LEVEL %q: %w", v, err)
		}
	}
	return nil
}

// Validate reports settings the server cannot run without.
func (c *Config) Validate() error {
	var errs []error
	if c.Database.URL == "" {
		errs = append(errs, errors.New("database url is required"))
	}
	if c.Auth.JWTSecret == "" && (c.Auth.URL == "" || c.Auth.AnonKey == "") {
		errs = append(errs, errors.New("either auth.jwt_secret or auth.url with auth.anon_key is required"))
	}
	if c.Refresh.Interval.D() <= 0 {
		errs = append(errs, errors.New("refresh.interval must be positive"))
	}
	if c.Pricing.Timeout.D() <= 0 {
		errs = append(errs, errors.New("pricing.timeout must be positive"))
	}
	if c.Pricing.CacheSize < 0 {
		errs = append(errs, errors.New("pricing.cache_size must not be negative"))
	}
	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
