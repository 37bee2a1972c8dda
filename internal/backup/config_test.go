package backup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *RunConfig)
		wantErr string
	}{
		{"valid", func(cfg *RunConfig) {}, ""},
		{"missing database", func(cfg *RunConfig) { cfg.Database = "" }, "database identifier"},
		{"whitespace database", func(cfg *RunConfig) { cfg.Database = "   " }, "database identifier"},
		{"missing backup root", func(cfg *RunConfig) { cfg.BackupRoot = "" }, "backup root"},
		{"negative retention", func(cfg *RunConfig) { cfg.RetentionDays = -3 }, "non-negative"},
		{"zero retention is valid", func(cfg *RunConfig) { cfg.RetentionDays = 0 }, ""},
		{"bad compression", func(cfg *RunConfig) { cfg.Compression.Algorithm = "brotli" }, "compression"},
		{
			"encryption without passphrase file",
			func(cfg *RunConfig) { cfg.Encryption.Enabled = true },
			"passphrase_file",
		},
		{
			"sync without remote host",
			func(cfg *RunConfig) {
				cfg.Sync = SyncConfig{Enabled: true, TargetPath: "/srv/backups"}
			},
			"remote_host",
		},
		{
			"sync without target path",
			func(cfg *RunConfig) {
				cfg.Sync = SyncConfig{Enabled: true, RemoteHost: "backup-host"}
			},
			"target_path",
		},
		{
			"sync disabled ignores sync fields",
			func(cfg *RunConfig) {
				cfg.Sync = SyncConfig{Enabled: false}
			},
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := RunConfig{Database: "appdb", BackupRoot: "/var/backups"}
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsErrorType(err, BackupErrorTypeConfiguration))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSyncConfig_ProviderType(t *testing.T) {
	assert.Equal(t, SyncProviderRsync, (&SyncConfig{}).ProviderType())
	assert.Equal(t, SyncProviderRsync, (&SyncConfig{Provider: "rsync"}).ProviderType())
	assert.Equal(t, SyncProviderS3, (&SyncConfig{Provider: "S3"}).ProviderType())
	assert.Equal(t, SyncProviderGCS, (&SyncConfig{Provider: "gcs"}).ProviderType())
	assert.Equal(t, SyncProviderAzure, (&SyncConfig{Provider: "azure"}).ProviderType())
}

func TestEncryptionConfig_Passphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "passphrase")
	require.NoError(t, os.WriteFile(path, []byte("correct horse\n"), 0o600))

	cfg := EncryptionConfig{Enabled: true, PassphraseFile: path}
	passphrase, err := cfg.Passphrase()
	require.NoError(t, err)
	// The trailing newline from the file does not become part of the key.
	assert.Equal(t, []byte("correct horse"), passphrase)
}

func TestEncryptionConfig_PassphraseErrors(t *testing.T) {
	missing := EncryptionConfig{Enabled: true, PassphraseFile: filepath.Join(t.TempDir(), "missing")}
	_, err := missing.Passphrase()
	require.Error(t, err)
	assert.True(t, IsErrorType(err, BackupErrorTypeEncryption))

	emptyPath := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.WriteFile(emptyPath, []byte("\n"), 0o600))
	empty := EncryptionConfig{Enabled: true, PassphraseFile: emptyPath}
	_, err = empty.Passphrase()
	require.Error(t, err)
}

func TestRunConfig_Redacted(t *testing.T) {
	cfg := RunConfig{
		Database:   "appdb",
		BackupRoot: "/var/backups",
		MySQL:      MySQLConfig{Username: "backup", Password: "hunter2"},
		Sync: SyncConfig{
			Provider: "s3",
			S3:       &S3Config{Bucket: "b", Region: "r", AccessKey: "AKIA", SecretKey: "topsecret"},
			Azure:    &AzureConfig{AccountName: "acct", AccountKey: "azkey", ContainerName: "c"},
		},
	}

	redacted := cfg.Redacted()

	assert.Equal(t, "********", redacted.MySQL.Password)
	assert.Equal(t, "********", redacted.Sync.S3.SecretKey)
	assert.Equal(t, "********", redacted.Sync.Azure.AccountKey)

	// Non-secret fields and the original are untouched.
	assert.Equal(t, "backup", redacted.MySQL.Username)
	assert.Equal(t, "AKIA", redacted.Sync.S3.AccessKey)
	assert.Equal(t, "hunter2", cfg.MySQL.Password)
	assert.Equal(t, "topsecret", cfg.Sync.S3.SecretKey)
}
