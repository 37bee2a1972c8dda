package backup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReplicator_Rsync(t *testing.T) {
	r, err := NewReplicator(SyncConfig{
		Enabled:    true,
		Provider:   "rsync",
		RemoteHost: "backup-host",
		TargetPath: "/srv/backups",
	}, nil)
	require.NoError(t, err)

	assert.IsType(t, &RsyncReplicator{}, r)
	assert.Equal(t, "backup-host:/srv/backups", r.Target())
}

func TestNewReplicator_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config SyncConfig
	}{
		{
			name: "rsync without remote host",
			config: SyncConfig{
				Enabled:    true,
				Provider:   "rsync",
				TargetPath: "/srv/backups",
			},
		},
		{
			name: "s3 without bucket",
			config: SyncConfig{
				Enabled:  true,
				Provider: "s3",
				S3:       &S3Config{Region: "eu-west-1"},
			},
		},
		{
			name: "gcs without settings",
			config: SyncConfig{
				Enabled:  true,
				Provider: "gcs",
			},
		},
		{
			name: "unknown provider",
			config: SyncConfig{
				Enabled:  true,
				Provider: "ftp",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReplicator(tt.config, nil)
			require.Error(t, err)
			assert.True(t, IsErrorType(err, BackupErrorTypeConfiguration))
		})
	}
}
