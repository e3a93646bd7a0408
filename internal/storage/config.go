package storage

import "github.com/edugate/sitecms/internal/config"

// MinIOConfig holds MinIO connection configuration
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// MinIOConfigFrom extracts the MinIO settings; nil when no endpoint is set.
func MinIOConfigFrom(cfg config.StorageConfig) *MinIOConfig {
	if cfg.MinIOEndpoint == "" {
		return nil
	}
	bucket := cfg.MinIOBucket
	if bucket == "" {
		bucket = "sitecms"
	}
	return &MinIOConfig{
		Endpoint:  cfg.MinIOEndpoint,
		AccessKey: cfg.MinIOAccessKey,
		SecretKey: cfg.MinIOSecretKey,
		UseSSL:    cfg.MinIOUseSSL,
		Bucket:    bucket,
	}
}
