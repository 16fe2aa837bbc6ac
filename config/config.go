// Package config reads the process configuration from .env and the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	oracle "github.com/godoes/gorm-oracle"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverOracle   = "oracle"
)

type DatabaseConfig struct {
	Driver string

	PGHost     string
	PGPort     string
	PGUser     string
	PGPassword string
	PGDB       string
	PGSSLMode  string

	OracleHost     string
	OraclePort     int
	OracleService  string
	OracleUser     string
	OraclePassword string

	MaxOpenConns int
	MaxIdleConns int
}

// PostgresDSN builds a postgres:// URL from the PG_* settings
func (c DatabaseConfig) PostgresDSN() string {
	dsn := "postgres://" + c.PGUser
	if c.PGPassword != "" {
		dsn += ":" + c.PGPassword
	}
	dsn += "@" + c.PGHost + ":" + c.PGPort + "/" + c.PGDB + "?sslmode=" + c.PGSSLMode
	return dsn
}

// OracleURL builds the go-ora connection URL from the ORACLE_* settings
func (c DatabaseConfig) OracleURL() string {
	return oracle.BuildUrl(c.OracleHost, c.OraclePort, c.OracleService, c.OracleUser, c.OraclePassword, nil)
}

type RedisConfig struct {
	ClusterAddrs []string
	Address      string
	Password     string
	Prefix       string
	TTL          time.Duration
}

// Enabled reports whether any redis endpoint is configured
func (c RedisConfig) Enabled() bool {
	return len(c.ClusterAddrs) > 0 || c.Address != ""
}

type MinioConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	ReturnURL       string
	BucketName      string
}

// Enabled reports whether image storage is configured
func (c MinioConfig) Enabled() bool {
	return c.Endpoint != "" && c.AccessKeyID != "" && c.SecretAccessKey != ""
}

type Config struct {
	Addr    string
	APIBase string

	Database DatabaseConfig
	Redis    RedisConfig
	Minio    MinioConfig

	JWTSecret string

	LogLevel  string
	LogFormat string

	// client side
	MapAPIURL    string
	MapAPIToken  string
	HistoryLimit int
}

// Load reads .env when present and then the environment. Variables already set in the
// environment win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")
	return FromEnv()
}

// FromEnv builds the configuration from the environment only
func FromEnv() (*Config, error) {
	cfg := &Config{
		Addr:    getenv("ADDR", ":8080"),
		APIBase: "/" + strings.Trim(getenv("API_BASE", "/api"), "/"),
		Database: DatabaseConfig{
			Driver:         strings.ToLower(getenv("DB_DRIVER", DriverPostgres)),
			PGHost:         getenv("PG_HOST", "localhost"),
			PGPort:         getenv("PG_PORT", "5432"),
			PGUser:         getenv("PG_USER", "postgres"),
			PGPassword:     os.Getenv("PG_PASSWORD"),
			PGDB:           getenv("PG_DB", "mapeditor"),
			PGSSLMode:      getenv("PG_SSLMODE", "disable"),
			OracleHost:     os.Getenv("ORACLE_HOST"),
			OracleService:  os.Getenv("ORACLE_SERVICE"),
			OracleUser:     os.Getenv("ORACLE_USER"),
			OraclePassword: os.Getenv("ORACLE_PASSWORD"),
		},
		Redis: RedisConfig{
			ClusterAddrs: splitList(os.Getenv("REDIS_CLUSTER")),
			Address:      strings.TrimSpace(os.Getenv("REDIS_ADDRESS")),
			Password:     os.Getenv("REDIS_PASSWORD"),
			Prefix:       os.Getenv("REDIS_PREFIX"),
		},
		Minio: MinioConfig{
			Endpoint:        os.Getenv("MINIO_ENDPOINT"),
			AccessKeyID:     os.Getenv("MINIO_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("MINIO_SECRET_ACCESS_KEY"),
			UseSSL:          os.Getenv("MINIO_USE_SSL") == "true",
			ReturnURL:       os.Getenv("MINIO_RETURN_URL"),
			BucketName:      getenv("MINIO_BUCKET_NAME", "map-landmarks"),
		},
		JWTSecret:   os.Getenv("JWT_SECRET"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
		LogFormat:   os.Getenv("LOG_FORMAT"),
		MapAPIURL:   os.Getenv("MAP_API_URL"),
		MapAPIToken: os.Getenv("MAP_API_TOKEN"),
	}
	if cfg.APIBase == "/" {
		cfg.APIBase = ""
	}
	if cfg.Minio.ReturnURL == "" && cfg.Minio.Endpoint != "" {
		cfg.Minio.ReturnURL = "http://" + cfg.Minio.Endpoint
	}

	var err error
	if cfg.Database.OraclePort, err = getint("ORACLE_PORT", 1521); err != nil {
		return nil, err
	}
	if cfg.Database.MaxOpenConns, err = getint("PG_MAX_OPEN_CONNS", 50); err != nil {
		return nil, err
	}
	if cfg.Database.MaxIdleConns, err = getint("PG_MAX_IDLE_CONNS", 25); err != nil {
		return nil, err
	}
	if cfg.HistoryLimit, err = getint("HISTORY_LIMIT", 50); err != nil {
		return nil, err
	}
	if cfg.Redis.TTL, err = getduration("CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}

	switch cfg.Database.Driver {
	case DriverPostgres, DriverOracle:
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func getduration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
