package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/fieldsync/internal/flagx"
)

// parseFlags overlays cfg with command-line flags. The -c/-config flag is
// consumed by parseJSON and stripped here.
//
//	-a string     gateway address (host:port)
//	-db string    local database file
//	-media string media payload directory
//	-token string gateway access token
//	-reviewer     reviewer id used for case pulls
//	-rows string  rows backend: gateway | postgres
//	-dsn string   PostgreSQL DSN for -rows postgres
//	-blobs string blob backend: gateway | s3 | minio
//	-i duration   online check interval
//	-s duration   sync interval
//	-log string   log file path
//	-level string log level
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("fieldsync", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "gateway address and port")
	fs.StringVar(&cfg.DatabasePath, "db", cfg.DatabasePath, "local database file")
	fs.StringVar(&cfg.MediaDir, "media", cfg.MediaDir, "media payload directory")
	fs.StringVar(&cfg.AccessToken, "token", cfg.AccessToken, "gateway access token")
	fs.StringVar(&cfg.ReviewerID, "reviewer", cfg.ReviewerID, "reviewer id for case pulls")
	fs.StringVar(&cfg.RowsBackend, "rows", cfg.RowsBackend, "rows backend (gateway|postgres)")
	fs.StringVar(&cfg.PostgresDSN, "dsn", cfg.PostgresDSN, "PostgreSQL DSN")
	fs.StringVar(&cfg.BlobBackend, "blobs", cfg.BlobBackend, "blob backend (gateway|s3|minio)")
	fs.DurationVar(&cfg.OnlineCheckInterval, "i", cfg.OnlineCheckInterval, "online check interval")
	fs.DurationVar(&cfg.SyncInterval, "s", cfg.SyncInterval, "sync interval")
	fs.StringVar(&cfg.LogFile, "log", cfg.LogFile, "log file path")
	fs.StringVar(&cfg.LogLevel, "level", cfg.LogLevel, "log level")

	return fs.Parse(flagx.StripArgs(args, flagx.ConfigFlags))
}
