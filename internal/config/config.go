package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gmllt/kban/internal/storage"
)

const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendS3       = "s3"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	StaticDir      string        `yaml:"static_dir"`
}

type StorageConfig struct {
	Backend     string           `yaml:"backend"`
	Key         string           `yaml:"key"`
	Dir         string           `yaml:"dir"`
	SQLitePath  string           `yaml:"sqlite_path"`
	PostgresDSN string           `yaml:"postgres_dsn"`
	S3          storage.S3Config `yaml:"s3"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8080",
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   30 * time.Second,
			AllowedOrigins: []string{"https://*", "http://*"},
			StaticDir:      "static",
		},
		Storage: StorageConfig{
			Backend:    BackendFile,
			Key:        storage.DefaultKey,
			Dir:        "data",
			SQLitePath: "data/kban.db",
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads the YAML file at path on top of the defaults, then applies
// KBAN_* environment overrides. A missing file is an error only when
// mustExist is set.
func Load(path string, mustExist bool) (*Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		switch {
		case errors.Is(err, fs.ErrNotExist) && !mustExist:
		case err != nil:
			return nil, err
		default:
			defer f.Close()
			dec := yaml.NewDecoder(f)
			dec.KnownFields(true)
			if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	envStr("KBAN_ADDR", &c.Server.Addr)
	envStr("KBAN_STATIC_DIR", &c.Server.StaticDir)
	envStr("KBAN_STORAGE_BACKEND", &c.Storage.Backend)
	envStr("KBAN_STORAGE_KEY", &c.Storage.Key)
	envStr("KBAN_STORAGE_DIR", &c.Storage.Dir)
	envStr("KBAN_SQLITE_PATH", &c.Storage.SQLitePath)
	envStr("KBAN_POSTGRES_DSN", &c.Storage.PostgresDSN)
	envStr("KBAN_S3_ENDPOINT", &c.Storage.S3.Endpoint)
	envStr("KBAN_S3_BUCKET", &c.Storage.S3.Bucket)
	envStr("KBAN_S3_REGION", &c.Storage.S3.Region)
	envStr("KBAN_S3_ACCESS_KEY", &c.Storage.S3.AccessKey)
	envStr("KBAN_S3_SECRET_KEY", &c.Storage.S3.SecretKey)
	envStr("KBAN_LOG_LEVEL", &c.Log.Level)
	envStr("KBAN_LOG_FORMAT", &c.Log.Format)
}

func envStr(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr must not be empty")
	}
	if c.Storage.Key == "" {
		return errors.New("storage.key must not be empty")
	}
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendFile:
		if c.Storage.Dir == "" {
			return errors.New("storage.dir is required for the file backend")
		}
	case BackendSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("storage.sqlite_path is required for the sqlite backend")
		}
	case BackendPostgres:
		if c.Storage.PostgresDSN == "" {
			return errors.New("storage.postgres_dsn is required for the postgres backend")
		}
	case BackendS3:
		if c.Storage.S3.Endpoint == "" || c.Storage.S3.Bucket == "" {
			return errors.New("storage.s3.endpoint and storage.s3.bucket are required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

// Open creates the configured key-value backend.
func (c StorageConfig) Open(ctx context.Context) (storage.KV, error) {
	switch c.Backend {
	case BackendMemory:
		return storage.NewMemory(), nil
	case BackendFile:
		return storage.NewFile(c.Dir)
	case BackendSQLite:
		return storage.OpenSQLite(c.SQLitePath)
	case BackendPostgres:
		return storage.OpenPostgres(c.PostgresDSN)
	case BackendS3:
		return storage.NewS3(ctx, c.S3)
	}
	return nil, fmt.Errorf("unknown storage backend %q", c.Backend)
}
