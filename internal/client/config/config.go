package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Backends for remote rows and media objects.
const (
	BackendGateway  = "gateway"
	BackendPostgres = "postgres"
	BackendS3       = "s3"
	BackendMinio    = "minio"
)

// Config holds runtime settings for the field client.
type Config struct {
	DatabasePath string `validate:"required"`
	MediaDir     string `validate:"required"`

	ServerEndpointAddr string `validate:"required,hostname_port"`
	AccessToken        string
	ReviewerID         string

	RowsBackend string `validate:"oneof=gateway postgres"`
	PostgresDSN string `validate:"required_if=RowsBackend postgres"`

	BlobBackend   string `validate:"oneof=gateway s3 minio"`
	S3Endpoint    string `validate:"required_if=BlobBackend minio"`
	S3Region      string
	S3AccessKey   string
	S3SecretKey   string
	S3Bucket      string `validate:"required_unless=BlobBackend gateway"`
	S3UseSSL      bool
	PublicBaseURL string `validate:"omitempty,url"`

	OnlineCheckInterval time.Duration `validate:"gt=0"`
	SyncInterval        time.Duration `validate:"gt=0"`
	RefreshInterval     time.Duration `validate:"gt=0"`

	MediaBatchSize         int           `validate:"gte=1,lte=64"`
	ItemTimeout            time.Duration `validate:"gt=0"`
	MaxAttempts            int           `validate:"gte=0"`
	QueueMaxAttempts       int           `validate:"gte=0"`
	BackoffBase            time.Duration `validate:"gt=0"`
	BackoffMax             time.Duration `validate:"gtefield=BackoffBase"`
	DiscardUploadedPayload bool

	LogFile  string
	LogLevel string `validate:"oneof=debug info warn error"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabasePath = "fieldsync.db"
	c.MediaDir = "media"
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.RowsBackend = BackendGateway
	c.BlobBackend = BackendGateway
	c.S3Region = "us-east-1"
	c.OnlineCheckInterval = 3 * time.Second
	c.SyncInterval = 30 * time.Second
	c.RefreshInterval = 5 * time.Minute
	c.MediaBatchSize = 5
	c.ItemTimeout = 60 * time.Second
	c.MaxAttempts = 8
	c.QueueMaxAttempts = 5
	c.BackoffBase = 2 * time.Second
	c.BackoffMax = 5 * time.Minute
	c.LogFile = "fieldsync.log"
	c.LogLevel = "info"
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadConfig applies defaults, then the JSON file named by -c/-config (if
// any), then command-line flags. Later sources take precedence.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
