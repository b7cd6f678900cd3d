package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/fieldsync/internal/flagx"
	"github.com/dmitrijs2005/fieldsync/internal/timex"
)

// JSONConfig mirrors Config for unmarshalling. Pointer fields distinguish
// "absent" from zero so a partial file only overrides what it names.
type JSONConfig struct {
	DatabasePath *string `json:"database_path"`
	MediaDir     *string `json:"media_dir"`

	ServerEndpointAddr *string `json:"server_endpoint_addr"`
	AccessToken        *string `json:"access_token"`
	ReviewerID         *string `json:"reviewer_id"`

	RowsBackend *string `json:"rows_backend"`
	PostgresDSN *string `json:"postgres_dsn"`

	BlobBackend   *string `json:"blob_backend"`
	S3Endpoint    *string `json:"s3_endpoint"`
	S3Region      *string `json:"s3_region"`
	S3AccessKey   *string `json:"s3_access_key"`
	S3SecretKey   *string `json:"s3_secret_key"`
	S3Bucket      *string `json:"s3_bucket"`
	S3UseSSL      *bool   `json:"s3_use_ssl"`
	PublicBaseURL *string `json:"public_base_url"`

	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	SyncInterval        *timex.Duration `json:"sync_interval"`
	RefreshInterval     *timex.Duration `json:"refresh_interval"`

	MediaBatchSize         *int            `json:"media_batch_size"`
	ItemTimeout            *timex.Duration `json:"item_timeout"`
	MaxAttempts            *int            `json:"max_attempts"`
	QueueMaxAttempts       *int            `json:"queue_max_attempts"`
	BackoffBase            *timex.Duration `json:"backoff_base"`
	BackoffMax             *timex.Duration `json:"backoff_max"`
	DiscardUploadedPayload *bool           `json:"discard_uploaded_payload"`

	LogFile  *string `json:"log_file"`
	LogLevel *string `json:"log_level"`
}

// parseJSON overlays cfg with the file given by -c/-config, if any.
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
	jc.apply(cfg)
	return nil
}

func (jc *JSONConfig) apply(cfg *Config) {
	set(&cfg.DatabasePath, jc.DatabasePath)
	set(&cfg.MediaDir, jc.MediaDir)
	set(&cfg.ServerEndpointAddr, jc.ServerEndpointAddr)
	set(&cfg.AccessToken, jc.AccessToken)
	set(&cfg.ReviewerID, jc.ReviewerID)
	set(&cfg.RowsBackend, jc.RowsBackend)
	set(&cfg.PostgresDSN, jc.PostgresDSN)
	set(&cfg.BlobBackend, jc.BlobBackend)
	set(&cfg.S3Endpoint, jc.S3Endpoint)
	set(&cfg.S3Region, jc.S3Region)
	set(&cfg.S3AccessKey, jc.S3AccessKey)
	set(&cfg.S3SecretKey, jc.S3SecretKey)
	set(&cfg.S3Bucket, jc.S3Bucket)
	set(&cfg.S3UseSSL, jc.S3UseSSL)
	set(&cfg.PublicBaseURL, jc.PublicBaseURL)
	set(&cfg.MediaBatchSize, jc.MediaBatchSize)
	set(&cfg.MaxAttempts, jc.MaxAttempts)
	set(&cfg.QueueMaxAttempts, jc.QueueMaxAttempts)
	set(&cfg.DiscardUploadedPayload, jc.DiscardUploadedPayload)
	set(&cfg.LogFile, jc.LogFile)
	set(&cfg.LogLevel, jc.LogLevel)
	setDuration(&cfg.OnlineCheckInterval, jc.OnlineCheckInterval)
	setDuration(&cfg.SyncInterval, jc.SyncInterval)
	setDuration(&cfg.RefreshInterval, jc.RefreshInterval)
	setDuration(&cfg.ItemTimeout, jc.ItemTimeout)
	setDuration(&cfg.BackoffBase, jc.BackoffBase)
	setDuration(&cfg.BackoffMax, jc.BackoffMax)
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
