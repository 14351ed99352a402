// Package config provides configuration management for hotfs.
// It handles loading and validating configuration from YAML/JSON files and environment variables.
package config

import "time"

// AppConfig represents the complete application configuration
type AppConfig struct {
	Server     ServerConfig      `koanf:"server"`
	Log        LogConfig         `koanf:"log"`
	Metrics    MetricsConfig     `koanf:"metrics"`
	Backend    BackendConfig     `koanf:"backend"`
	Hotfolders []HotfolderConfig `koanf:"hotfolders"`
}

// ServerConfig holds HTTP API configuration
type ServerConfig struct {
	ListenAddr   string        `koanf:"listen_addr"`
	CertFile     string        `koanf:"cert_file"`
	KeyFile      string        `koanf:"key_file"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	APIKeys      []string      `koanf:"api_keys"`
	RateLimit    float64       `koanf:"rate_limit"` // release requests per second per client
	RateBurst    int           `koanf:"rate_burst"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // "json" or "console"
}

// MetricsConfig holds metrics server configuration
type MetricsConfig struct {
	ListenAddr string `koanf:"listen_addr"`
}

// BackendConfig holds scheme backend configuration
type BackendConfig struct {
	DefaultScheme   string            `koanf:"default_scheme"` // scheme used for URIs without one
	LocalFSRootPath string            `koanf:"localfs_root_path"`
	MemoryEnabled   bool              `koanf:"memory_enabled"`
	SMBMounts       map[string]string `koanf:"smb_mounts"` // "host/share" -> local mount path

	S3Enabled              bool   `koanf:"s3_enabled"`
	S3AccessKey            string `koanf:"s3_access_key"`
	S3SecretKey            string `koanf:"s3_secret_key"`
	S3Region               string `koanf:"s3_region"`
	S3BucketName           string `koanf:"s3_bucket_name"` // bucket for s3:/// URIs without a host
	S3Endpoint             string `koanf:"s3_endpoint"`    // Custom S3 endpoint (e.g., for MinIO)
	S3DisableSSL           bool   `koanf:"s3_disable_ssl"`
	S3ServerSideEncryption string `koanf:"s3_server_side_encryption"` // SSE algorithm (AES256, aws:kms)
	S3ACL                  string `koanf:"s3_acl"`                    // Object ACL (private, public-read, etc.)
	S3KMSKeyID             string `koanf:"s3_kms_key_id"`             // KMS key ID for SSE-KMS

	SFTPEnabled          bool          `koanf:"sftp_enabled"`
	SFTPKeyFile          string        `koanf:"sftp_key_file"`
	SFTPKnownHostsFile   string        `koanf:"sftp_known_hosts_file"`
	SFTPInsecureHostKeys bool          `koanf:"sftp_insecure_host_keys"`
	SFTPTimeout          time.Duration `koanf:"sftp_timeout"`
}

// HotfolderConfig describes one watched folder
type HotfolderConfig struct {
	ID          string        `koanf:"id"`
	Folder      string        `koanf:"folder"`
	Interval    time.Duration `koanf:"interval"`
	Settle      int           `koanf:"settle"`
	Include     string        `koanf:"include"` // visible, all, visible_files, files
	Glob        string        `koanf:"glob"`
	Recurse     string        `koanf:"recurse"` // none, all, visible
	MaxDepth    int           `koanf:"max_depth"`
	Sort        string        `koanf:"sort"`  // name, modified, depth
	Order       string        `koanf:"order"` // asc, desc
	MoveTo      string        `koanf:"move_to"`
	StopTimeout time.Duration `koanf:"stop_timeout"`
}
