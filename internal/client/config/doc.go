// Package config loads runtime configuration for the field client.
//
// Sources, later ones winning:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags.
//
// The result is validated with struct tags before use.
//
// # JSON schema
//
// Durations accept strings like "3s" or integer nanoseconds:
//
//	{
//	  "database_path": "fieldsync.db",
//	  "media_dir": "media",
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "rows_backend": "gateway",
//	  "blob_backend": "gateway",
//	  "sync_interval": "30s",
//	  "media_batch_size": 5,
//	  "max_attempts": 8,
//	  "backoff_base": "2s",
//	  "backoff_max": "5m"
//	}
package config
