package backup

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// SyncProvider identifies a replication backend
type SyncProvider string

const (
	SyncProviderRsync SyncProvider = "rsync"
	SyncProviderS3    SyncProvider = "s3"
	SyncProviderGCS   SyncProvider = "gcs"
	SyncProviderAzure SyncProvider = "azure"
)

// RunConfig is the immutable input of one orchestration pass. It is
// constructed once per run; command-line values override config-file values
// which override defaults.
type RunConfig struct {
	// Database is the identifier of the database to export. Required.
	Database string `mapstructure:"database" yaml:"database"`

	// BackupRoot is the root of the local archive tree. Required; created
	// if missing.
	BackupRoot string `mapstructure:"backup_root" yaml:"backup_root"`

	// RetentionDays is the retention window in days. 0 disables retention
	// entirely; it is a sentinel for "disabled", not "keep nothing".
	RetentionDays int `mapstructure:"retention_days" yaml:"retention_days"`

	MySQL       MySQLConfig       `mapstructure:"mysql"       yaml:"mysql"`
	Compression CompressionConfig `mapstructure:"compression" yaml:"compression"`
	Encryption  EncryptionConfig  `mapstructure:"encryption"  yaml:"encryption"`
	Sync        SyncConfig        `mapstructure:"sync"        yaml:"sync"`
}

// MySQLConfig holds the connection settings handed to the export collaborator
type MySQLConfig struct {
	Host     string `mapstructure:"host"     yaml:"host"`
	Port     int    `mapstructure:"port"     yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password,omitempty"`

	// PingOnPreflight enables a read-only connectivity check against the
	// server before the export collaborator is invoked.
	PingOnPreflight bool `mapstructure:"ping_on_preflight" yaml:"ping_on_preflight"`

	// Timeout bounds the optional connectivity check, not the export itself.
	// The export runs unbounded; bounding it is delegated to the external
	// scheduler or process supervision.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// CompressionConfig selects the compression applied to the export stream
type CompressionConfig struct {
	// Algorithm is one of "gzip", "zstd", "lz4", "none". Default gzip.
	Algorithm string `mapstructure:"algorithm" yaml:"algorithm"`
	Level     int    `mapstructure:"level"     yaml:"level"`
}

// EncryptionConfig enables optional AES-256-GCM artifact encryption
type EncryptionConfig struct {
	Enabled        bool   `mapstructure:"enabled"         yaml:"enabled"`
	PassphraseFile string `mapstructure:"passphrase_file" yaml:"passphrase_file,omitempty"`
}

// SyncConfig configures optional replication of the archive tree
type SyncConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Provider selects the replication backend; default rsync.
	Provider string `mapstructure:"provider" yaml:"provider"`

	// RemoteHost and TargetPath are both required for the rsync provider
	// when sync is enabled. RemoteHost must resolve to a known host alias.
	RemoteHost string `mapstructure:"remote_host" yaml:"remote_host,omitempty"`
	TargetPath string `mapstructure:"target_path" yaml:"target_path,omitempty"`

	// DeleteRemote enables mirror-delete mode: remote files absent locally
	// are removed. Meaningful only when sync is enabled.
	DeleteRemote bool `mapstructure:"delete_remote" yaml:"delete_remote"`

	// SSHConfigPath overrides the trusted host-alias file consulted by
	// preflight. Empty means ~/.ssh/config.
	SSHConfigPath string `mapstructure:"ssh_config_path" yaml:"ssh_config_path,omitempty"`

	S3    *S3Config    `mapstructure:"s3"    yaml:"s3,omitempty"`
	GCS   *GCSConfig   `mapstructure:"gcs"   yaml:"gcs,omitempty"`
	Azure *AzureConfig `mapstructure:"azure" yaml:"azure,omitempty"`
}

// S3Config for Amazon S3 replication
type S3Config struct {
	Bucket    string `mapstructure:"bucket"     yaml:"bucket"`
	Region    string `mapstructure:"region"     yaml:"region"`
	AccessKey string `mapstructure:"access_key" yaml:"access_key,omitempty"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key,omitempty"`
}

// GCSConfig for Google Cloud Storage replication
type GCSConfig struct {
	Bucket          string `mapstructure:"bucket"           yaml:"bucket"`
	CredentialsPath string `mapstructure:"credentials_path" yaml:"credentials_path,omitempty"`
}

// AzureConfig for Azure Blob Storage replication
type AzureConfig struct {
	AccountName   string `mapstructure:"account_name"   yaml:"account_name"`
	AccountKey    string `mapstructure:"account_key"    yaml:"account_key,omitempty"`
	ContainerName string `mapstructure:"container_name" yaml:"container_name"`
}

// Validate checks the run configuration invariants
func (c *RunConfig) Validate() error {
	if strings.TrimSpace(c.Database) == "" {
		return NewConfigurationError("database identifier is required", nil)
	}

	if strings.TrimSpace(c.BackupRoot) == "" {
		return NewConfigurationError("backup root path is required", nil)
	}

	if c.RetentionDays < 0 {
		return NewConfigurationError(
			fmt.Sprintf("retention_days must be non-negative, got %d", c.RetentionDays), nil)
	}

	if err := c.Compression.Validate(); err != nil {
		return err
	}

	if err := c.Encryption.Validate(); err != nil {
		return err
	}

	return c.Sync.Validate()
}

// Validate checks the compression configuration
func (c *CompressionConfig) Validate() error {
	switch strings.ToLower(c.Algorithm) {
	case "", "gzip", "zstd", "lz4", "none":
		return nil
	default:
		return NewConfigurationError(
			fmt.Sprintf("unsupported compression algorithm: %s", c.Algorithm), nil)
	}
}

// Validate checks the encryption configuration
func (c *EncryptionConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.PassphraseFile == "" {
		return NewConfigurationError("encryption is enabled but passphrase_file is not set", nil)
	}
	return nil
}

// Passphrase reads the encryption passphrase from the configured file
func (c *EncryptionConfig) Passphrase() ([]byte, error) {
	data, err := os.ReadFile(c.PassphraseFile)
	if err != nil {
		return nil, NewEncryptionError(
			fmt.Sprintf("failed to read passphrase file %s", c.PassphraseFile), err)
	}
	passphrase := strings.TrimRight(string(data), "\r\n")
	if passphrase == "" {
		return nil, NewEncryptionError("passphrase file is empty", nil)
	}
	return []byte(passphrase), nil
}

// Validate checks the sync configuration invariants. Sync-related fields are
// mutually required: enabling sync without its provider settings is a
// configuration error.
func (c *SyncConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	switch c.ProviderType() {
	case SyncProviderRsync:
		if strings.TrimSpace(c.RemoteHost) == "" {
			return NewConfigurationError("sync is enabled but remote_host is not set", nil)
		}
		if strings.TrimSpace(c.TargetPath) == "" {
			return NewConfigurationError("sync is enabled but target_path is not set", nil)
		}
	case SyncProviderS3:
		if c.S3 == nil || c.S3.Bucket == "" || c.S3.Region == "" {
			return NewConfigurationError("s3 sync requires bucket and region", nil)
		}
	case SyncProviderGCS:
		if c.GCS == nil || c.GCS.Bucket == "" {
			return NewConfigurationError("gcs sync requires a bucket", nil)
		}
	case SyncProviderAzure:
		if c.Azure == nil || c.Azure.AccountName == "" || c.Azure.AccountKey == "" || c.Azure.ContainerName == "" {
			return NewConfigurationError("azure sync requires account_name, account_key and container_name", nil)
		}
	default:
		return NewConfigurationError(
			fmt.Sprintf("unsupported sync provider: %s", c.Provider), nil)
	}

	return nil
}

// ProviderType returns the selected sync provider, defaulting to rsync
func (c *SyncConfig) ProviderType() SyncProvider {
	if c.Provider == "" {
		return SyncProviderRsync
	}
	return SyncProvider(strings.ToLower(c.Provider))
}

// Redacted returns a copy of the configuration with secrets masked, suitable
// for display and logging.
func (c RunConfig) Redacted() RunConfig {
	redacted := c
	if redacted.MySQL.Password != "" {
		redacted.MySQL.Password = "********"
	}
	if redacted.Sync.S3 != nil {
		s3 := *redacted.Sync.S3
		if s3.SecretKey != "" {
			s3.SecretKey = "********"
		}
		redacted.Sync.S3 = &s3
	}
	if redacted.Sync.Azure != nil {
		az := *redacted.Sync.Azure
		if az.AccountKey != "" {
			az.AccountKey = "********"
		}
		redacted.Sync.Azure = &az
	}
	return redacted
}
