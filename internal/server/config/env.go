package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable the gateway reads.
const EnvPrefix = "FIELDSYNC_"

// envFile is loaded when present; variables already set win over it.
var envFile = ".env"

// parseEnv overlays cfg with FIELDSYNC_* variables, e.g. FIELDSYNC_DATABASE_DSN.
func parseEnv(cfg *Config) error {
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	strs := map[string]*string{
		"GRPC_ADDR":          &cfg.EndpointAddrGRPC,
		"DATABASE_DSN":       &cfg.DatabaseDSN,
		"SECRET_KEY":         &cfg.SecretKey,
		"S3_ACCESS_KEY":      &cfg.S3AccessKey,
		"S3_SECRET_KEY":      &cfg.S3SecretKey,
		"S3_BUCKET":          &cfg.S3Bucket,
		"S3_REGION":          &cfg.S3Region,
		"S3_ENDPOINT":        &cfg.S3BaseEndpoint,
		"S3_PUBLIC_BASE_URL": &cfg.S3PublicBaseURL,
		"LOG_LEVEL":          &cfg.LogLevel,
	}
	for k, dst := range strs {
		if v, ok := os.LookupEnv(EnvPrefix + k); ok {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"DATABASE_WAIT":  &cfg.DatabaseWait,
		"TOKEN_VALIDITY": &cfg.TokenValidity,
		"S3_URL_EXPIRY":  &cfg.S3URLExpiry,
	}
	for k, dst := range durations {
		v, ok := os.LookupEnv(EnvPrefix + k)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, k, err)
		}
		*dst = d
	}

	if v, ok := os.LookupEnv(EnvPrefix + "MIGRATE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sMIGRATE: %w", EnvPrefix, err)
		}
		cfg.MigrateOnStart = b
	}
	return nil
}
