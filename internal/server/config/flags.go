package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/fieldsync/internal/flagx"
)

// IssueFlag names the flag handled by the command, not by Config.
const IssueFlag = "-issue"

// parseFlags overlays cfg with command-line flags:
//
//	-a string   gRPC bind address (e.g. ":50051")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t duration issued token validity
//	-u string   S3 access key
//	-p string   S3 secret key
//	-b string   S3 bucket
//	-g string   S3 region
//	-e string   S3 endpoint (e.g. "http://127.0.0.1:9000")
//	-l string   log level
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("fieldsync-server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.EndpointAddrGRPC, "a", cfg.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.SecretKey, "s", cfg.SecretKey, "secret key")
	fs.DurationVar(&cfg.TokenValidity, "t", cfg.TokenValidity, "issued token validity")
	fs.StringVar(&cfg.S3AccessKey, "u", cfg.S3AccessKey, "S3 access key")
	fs.StringVar(&cfg.S3SecretKey, "p", cfg.S3SecretKey, "S3 secret key")
	fs.StringVar(&cfg.S3Bucket, "b", cfg.S3Bucket, "S3 bucket")
	fs.StringVar(&cfg.S3Region, "g", cfg.S3Region, "S3 region")
	fs.StringVar(&cfg.S3BaseEndpoint, "e", cfg.S3BaseEndpoint, "S3 endpoint")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	drop := append([]string{IssueFlag, "--issue"}, flagx.ConfigFlags...)
	return fs.Parse(flagx.StripArgs(args, drop))
}

// IssueSubject returns the subject given via -issue, or "" when the command
// should serve instead of printing a token.
func IssueSubject(args []string) string {
	var subject string

	fs := flag.NewFlagSet("issue", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&subject, "issue", "", "print an access token for this reviewer and exit")
	_ = fs.Parse(flagx.FilterArgs(args, []string{IssueFlag, "--issue"}))

	return subject
}
