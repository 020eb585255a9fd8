package config

// StorageConfig selects where request images are stored.
type StorageConfig struct {
	// Mode is "local" or "s3"
	Mode      string
	UploadDir string
	Bucket    string
	Region    string
	Prefix    string
	MaxBytes  int
}

func loadStorageConfig() StorageConfig {
	return StorageConfig{
		Mode:      getEnv("STORAGE_MODE", "local"),
		UploadDir: getEnv("UPLOAD_DIR", "./uploads"),
		Bucket:    getEnv("AWS_BUCKET", "contractorconnect-uploads"),
		Region:    getEnv("AWS_REGION", "us-east-1"),
		Prefix:    getEnv("STORAGE_PREFIX", ""),
		MaxBytes:  getEnvInt("MAX_IMAGE_BYTES", 5*1024*1024),
	}
}
