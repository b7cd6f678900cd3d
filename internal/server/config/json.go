package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/fieldsync/internal/flagx"
	"github.com/dmitrijs2005/fieldsync/internal/timex"
)

// JSONConfig mirrors Config for unmarshalling; absent fields keep their
// previous value.
type JSONConfig struct {
	EndpointAddrGRPC *string         `json:"endpoint_addr_grpc"`
	DatabaseDSN      *string         `json:"database_dsn"`
	DatabaseWait     *timex.Duration `json:"database_wait"`
	MigrateOnStart   *bool           `json:"migrate_on_start"`
	SecretKey        *string         `json:"secret_key"`
	TokenValidity    *timex.Duration `json:"token_validity"`
	S3AccessKey      *string         `json:"s3_access_key"`
	S3SecretKey      *string         `json:"s3_secret_key"`
	S3Bucket         *string         `json:"s3_bucket"`
	S3Region         *string         `json:"s3_region"`
	S3BaseEndpoint   *string         `json:"s3_base_endpoint"`
	S3PublicBaseURL  *string         `json:"s3_public_base_url"`
	S3URLExpiry      *timex.Duration `json:"s3_url_expiry"`
	LogLevel         *string         `json:"log_level"`
}

func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	var jc JSONConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	set(&cfg.EndpointAddrGRPC, jc.EndpointAddrGRPC)
	set(&cfg.DatabaseDSN, jc.DatabaseDSN)
	set(&cfg.MigrateOnStart, jc.MigrateOnStart)
	set(&cfg.SecretKey, jc.SecretKey)
	set(&cfg.S3AccessKey, jc.S3AccessKey)
	set(&cfg.S3SecretKey, jc.S3SecretKey)
	set(&cfg.S3Bucket, jc.S3Bucket)
	set(&cfg.S3Region, jc.S3Region)
	set(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	set(&cfg.S3PublicBaseURL, jc.S3PublicBaseURL)
	set(&cfg.LogLevel, jc.LogLevel)
	setDuration(&cfg.DatabaseWait, jc.DatabaseWait)
	setDuration(&cfg.TokenValidity, jc.TokenValidity)
	setDuration(&cfg.S3URLExpiry, jc.S3URLExpiry)
	return nil
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *timex.Duration) {
	if src != nil {
		*dst = src.Duration
	}
}
