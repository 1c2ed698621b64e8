package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	StorageS3  = "s3"
	StorageGCS = "gcs"
	StorageFS  = "fs"

	LinkPublic    = "public"
	LinkPresigned = "presigned"
	LinkSigned    = "signed"

	// DefaultShareSecret is a placeholder; signed link mode refuses it.
	DefaultShareSecret = "change-me"
)

type Config struct {
	Port string

	StorageType      string
	SourceBucket     string
	TargetBucket     string
	SourcePrefix     string
	TargetPrefix     string
	AWSRegion        string
	S3Endpoint       string
	StoreMaxAttempts int
	DataDir          string

	SyncConcurrency int

	LinkMode      string
	PublicBaseURL string
	BaseURL       string
	ShareSecret   string
	ShareTTL      time.Duration

	ScheduleFile string
	Timezone     string

	LeaseRedisAddr     string
	LeaseRedisPassword string
	LeaseRedisDB       int
	LeaseTTL           time.Duration

	RateLimitRPS   float64
	RateLimitBurst int
	TrustedProxies []string

	LogLevel  string
	LogFormat string
}

func LoadConfig() (Config, error) {
	cfg := Config{}

	cfg.Port = envOrDefault("PORT", "3000")

	cfg.StorageType = strings.ToLower(envOrDefault("STORAGE_TYPE", StorageS3))
	cfg.SourceBucket = envOrDefault("SOURCE_BUCKET", "optranscriptionbucket")
	cfg.TargetBucket = envOrDefault("TARGET_BUCKET", "pdfbucketfortranscribe")
	cfg.SourcePrefix = os.Getenv("SOURCE_PREFIX")
	cfg.TargetPrefix = os.Getenv("TARGET_PREFIX")
	cfg.AWSRegion = envOrDefault("AWS_REGION", "ap-southeast-2")
	cfg.S3Endpoint = os.Getenv("S3_ENDPOINT")
	cfg.DataDir = envOrDefault("DATA_DIR", "data")

	cfg.LinkMode = strings.ToLower(envOrDefault("LINK_MODE", LinkPublic))
	cfg.PublicBaseURL = os.Getenv("PUBLIC_BASE_URL")
	cfg.BaseURL = envOrDefault("BASE_URL", fmt.Sprintf("http://localhost:%s", cfg.Port))
	cfg.ShareSecret = envOrDefault("SHARE_SECRET", DefaultShareSecret)

	cfg.ScheduleFile = os.Getenv("SCHEDULE_FILE")
	cfg.Timezone = os.Getenv("TIMEZONE")

	cfg.LeaseRedisAddr = os.Getenv("LEASE_REDIS_ADDR")
	cfg.LeaseRedisPassword = os.Getenv("LEASE_REDIS_PASSWORD")

	cfg.TrustedProxies = splitList(os.Getenv("TRUSTED_PROXIES"))

	cfg.LogLevel = envOrDefault("LOG_LEVEL", "info")
	cfg.LogFormat = envOrDefault("LOG_FORMAT", "text")

	maxAttempts, err := parseIntEnv("STORE_MAX_ATTEMPTS", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse STORE_MAX_ATTEMPTS: %w", err)
	}
	cfg.StoreMaxAttempts = int(maxAttempts)

	concurrency, err := parseIntEnv("SYNC_CONCURRENCY", 8)
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_CONCURRENCY: %w", err)
	}
	cfg.SyncConcurrency = int(concurrency)

	shareTTLSeconds, err := parseIntEnv("SHARE_TTL_SECONDS", 86400)
	if err != nil {
		return Config{}, fmt.Errorf("parse SHARE_TTL_SECONDS: %w", err)
	}
	cfg.ShareTTL = time.Duration(shareTTLSeconds) * time.Second

	redisDB, err := parseIntEnv("LEASE_REDIS_DB", 0)
	if err != nil {
		return Config{}, fmt.Errorf("parse LEASE_REDIS_DB: %w", err)
	}
	cfg.LeaseRedisDB = int(redisDB)

	leaseTTLSeconds, err := parseIntEnv("LEASE_TTL_SECONDS", 300)
	if err != nil {
		return Config{}, fmt.Errorf("parse LEASE_TTL_SECONDS: %w", err)
	}
	cfg.LeaseTTL = time.Duration(leaseTTLSeconds) * time.Second

	rps, err := parseFloatEnv("RATE_LIMIT_RPS", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse RATE_LIMIT_RPS: %w", err)
	}
	cfg.RateLimitRPS = rps

	burst, err := parseIntEnv("RATE_LIMIT_BURST", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse RATE_LIMIT_BURST: %w", err)
	}
	cfg.RateLimitBurst = int(burst)

	if cfg.StorageType == StorageFS {
		absDataDir, err := filepath.Abs(cfg.DataDir)
		if err != nil {
			return Config{}, fmt.Errorf("resolve data dir: %w", err)
		}
		cfg.DataDir = absDataDir
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate rejects unusable settings and fills zero values with defaults.
func (c *Config) Validate() error {
	switch c.StorageType {
	case StorageS3, StorageGCS, StorageFS:
	default:
		return fmt.Errorf("unsupported STORAGE_TYPE %q", c.StorageType)
	}

	switch c.LinkMode {
	case LinkPublic:
	case LinkSigned:
		secret := strings.TrimSpace(c.ShareSecret)
		if secret == "" || secret == DefaultShareSecret {
			return errors.New("LINK_MODE=signed requires SHARE_SECRET to be set to a non-default value")
		}
	case LinkPresigned:
		if c.StorageType != StorageS3 {
			return errors.New("LINK_MODE=presigned requires STORAGE_TYPE=s3")
		}
	default:
		return fmt.Errorf("unsupported LINK_MODE %q", c.LinkMode)
	}

	if strings.TrimSpace(c.SourceBucket) == "" {
		return errors.New("SOURCE_BUCKET is required")
	}
	if strings.TrimSpace(c.TargetBucket) == "" {
		return errors.New("TARGET_BUCKET is required")
	}
	if c.StorageType == StorageS3 && c.AWSRegion == "" {
		return errors.New("AWS_REGION is required for s3 storage")
	}

	if c.SyncConcurrency < 0 {
		return fmt.Errorf("SYNC_CONCURRENCY must be positive, got %d", c.SyncConcurrency)
	}
	if c.SyncConcurrency == 0 {
		c.SyncConcurrency = 8
	}
	if c.StoreMaxAttempts <= 0 {
		c.StoreMaxAttempts = 3
	}
	if c.ShareTTL <= 0 {
		c.ShareTTL = 24 * time.Hour
	}
	if c.LeaseTTL <= 0 {
		c.LeaseTTL = 5 * time.Minute
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative, got %v", c.RateLimitRPS)
	}
	if c.RateLimitBurst <= 0 {
		c.RateLimitBurst = 1
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}

	for _, proxy := range c.TrustedProxies {
		if _, err := netip.ParsePrefix(proxy); err == nil {
			continue
		}
		if _, err := netip.ParseAddr(proxy); err != nil {
			return fmt.Errorf("invalid TRUSTED_PROXIES entry %q", proxy)
		}
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	return nil
}

// Location resolves TIMEZONE, defaulting to the process local zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

// splitList parses a comma-separated value, dropping blank entries.
func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseIntEnv(key string, fallback int64) (int64, error) {
	value := envOrDefault(key, "")
	if value == "" {
		return fallback, nil
	}

	num, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, err
	}
	return num, nil
}

func parseFloatEnv(key string, fallback float64) (float64, error) {
	value := envOrDefault(key, "")
	if value == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(value, 64)
}
