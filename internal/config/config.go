package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	applog "rentspace/internal/log"
)

type SMTP struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
	From string `yaml:"from"`
}

type Config struct {
	Port         string `yaml:"port"`
	DBDSN        string `yaml:"db_dsn"`
	MediaDir     string `yaml:"media_dir"`
	MediaBaseURL string `yaml:"media_base_url"`
	LogFile      string `yaml:"log_file"`
	LogLevel     string `yaml:"log_level"`

	JWTSecret    string        `yaml:"jwt_secret"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
	CookieSecure bool          `yaml:"cookie_secure"`

	StorageBackend string `yaml:"storage_backend"` // local | gridfs
	MongoURI       string `yaml:"mongo_uri"`
	MongoDB        string `yaml:"mongo_db"`
	RedisURL       string `yaml:"redis_url"`

	FeaturedTTL      time.Duration `yaml:"featured_ttl"`
	FeaturedLimit    int           `yaml:"featured_limit"`
	FeeFailurePolicy string        `yaml:"fee_failure_policy"` // keep | compensate

	SupportEmail string `yaml:"support_email"`
	SMTP         SMTP   `yaml:"smtp"`
}

func Defaults() Config {
	return Config{
		Port:             "8080",
		DBDSN:            "rentspace.db", // sqlite file in project root
		MediaDir:         "./web/media",
		MediaBaseURL:     "/media",
		LogFile:          "./rentspace.log",
		LogLevel:         "info",
		JWTSecret:        "dev-only-change-me",
		TokenTTL:         24 * time.Hour,
		StorageBackend:   "local",
		MongoDB:          "rentspace",
		FeaturedTTL:      time.Hour,
		FeaturedLimit:    6,
		FeeFailurePolicy: "keep",
		SupportEmail:     "support@rentspace.test",
		SMTP:             SMTP{Port: 587, From: "no-reply@rentspace.test"},
	}
}

// Load layers defaults, an optional YAML file (CONFIG_FILE or ./rentspace.yaml) and env vars.
// A .env file, if present, is loaded into the environment first.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	path := os.Getenv("CONFIG_FILE")
	explicit := path != ""
	if !explicit {
		path = "rentspace.yaml"
	}
	if err := loadFile(&cfg, path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.FeeFailurePolicy != "keep" && cfg.FeeFailurePolicy != "compensate" {
		return Config{}, fmt.Errorf("config: fee_failure_policy must be keep or compensate, got %q", cfg.FeeFailurePolicy)
	}
	if cfg.StorageBackend != "local" && cfg.StorageBackend != "gridfs" {
		return Config{}, fmt.Errorf("config: storage_backend must be local or gridfs, got %q", cfg.StorageBackend)
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	str := map[string]*string{
		"PORT":               &cfg.Port,
		"DB_DSN":             &cfg.DBDSN,
		"MEDIA_DIR":          &cfg.MediaDir,
		"MEDIA_BASE_URL":     &cfg.MediaBaseURL,
		"LOG_FILE":           &cfg.LogFile,
		"LOG_LEVEL":          &cfg.LogLevel,
		"JWT_SECRET":         &cfg.JWTSecret,
		"STORAGE_BACKEND":    &cfg.StorageBackend,
		"MONGO_URI":          &cfg.MongoURI,
		"MONGO_DB":           &cfg.MongoDB,
		"REDIS_URL":          &cfg.RedisURL,
		"FEE_FAILURE_POLICY": &cfg.FeeFailurePolicy,
		"SUPPORT_EMAIL":      &cfg.SupportEmail,
		"SMTP_HOST":          &cfg.SMTP.Host,
		"SMTP_USER":          &cfg.SMTP.User,
		"SMTP_PASS":          &cfg.SMTP.Pass,
		"SMTP_FROM":          &cfg.SMTP.From,
	}
	for k, p := range str {
		if v, ok := os.LookupEnv(k); ok {
			*p = v
		}
	}
	durs := map[string]*time.Duration{
		"TOKEN_TTL":    &cfg.TokenTTL,
		"FEATURED_TTL": &cfg.FeaturedTTL,
	}
	for k, p := range durs {
		if v, ok := os.LookupEnv(k); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("config: %s: %w", k, err)
			}
			*p = d
		}
	}
	ints := map[string]*int{
		"FEATURED_LIMIT": &cfg.FeaturedLimit,
		"SMTP_PORT":      &cfg.SMTP.Port,
	}
	for k, p := range ints {
		if v, ok := os.LookupEnv(k); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("config: %s: %w", k, err)
			}
			*p = n
		}
	}
	if v, ok := os.LookupEnv("COOKIE_SECURE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: COOKIE_SECURE: %w", err)
		}
		cfg.CookieSecure = b
	}
	return nil
}

// LogSummary prints the effective config without secrets.
func (c Config) LogSummary() {
	applog.L().Info("config",
		zap.String("port", c.Port),
		zap.String("db_dsn", c.DBDSN),
		zap.String("media_dir", c.MediaDir),
		zap.String("storage_backend", c.StorageBackend),
		zap.Bool("redis", c.RedisURL != ""),
		zap.Duration("featured_ttl", c.FeaturedTTL),
		zap.String("fee_failure_policy", c.FeeFailurePolicy),
		zap.String("log_file", c.LogFile),
	)
}
