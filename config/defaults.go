package config

import "time"

// Hotfolder defaults applied to every entry of the hotfolders list
const (
	DefaultHotfolderInterval    = 15 * time.Second
	DefaultHotfolderSettle      = 4
	DefaultHotfolderStopTimeout = 10 * time.Second
)

// DefaultAppConfig returns an AppConfig struct with sensible default values
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Server: ServerConfig{
			ListenAddr:   ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			APIKeys:      []string{"default-api-key"},
			RateLimit:    5,
			RateBurst:    10,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			ListenAddr: ":9090",
		},
		Backend: BackendConfig{
			DefaultScheme:          "file",
			LocalFSRootPath:        "", // Empty means the whole local filesystem
			MemoryEnabled:          false,
			SMBMounts:              make(map[string]string),
			S3Region:               "us-east-1",
			S3ServerSideEncryption: "AES256",  // Default to AES256 for security
			S3ACL:                  "private", // Default to private ACL for security
			SFTPTimeout:            30 * time.Second,
		},
	}
}

// applyHotfolderDefaults fills unset per-hotfolder fields
func applyHotfolderDefaults(hf *HotfolderConfig) {
	if hf.Interval == 0 {
		hf.Interval = DefaultHotfolderInterval
	}
	if hf.Settle == 0 {
		hf.Settle = DefaultHotfolderSettle
	}
	if hf.Include == "" {
		hf.Include = "visible"
	}
	if hf.Recurse == "" {
		hf.Recurse = "none"
	}
	if hf.StopTimeout == 0 {
		hf.StopTimeout = DefaultHotfolderStopTimeout
	}
}
