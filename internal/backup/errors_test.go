package backup

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBackupError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *BackupError
		want string
	}{
		{
			name: "without cause",
			err:  NewExportError("mysqldump failed", nil),
			want: "EXPORT_ERROR: mysqldump failed",
		},
		{
			name: "with cause",
			err:  NewConfigurationError("backup root path is required", errors.New("boom")),
			want: "CONFIGURATION_ERROR: backup root path is required (caused by: boom)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestBackupError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewStorageError("failed to write artifact", cause)

	assert.ErrorIs(t, err, cause)
}

func TestBackupError_WithContext(t *testing.T) {
	err := NewReplicationError("rsync failed", nil).
		WithContext("host", "backup-host").
		WithContext("attempt", 1)

	assert.Equal(t, "backup-host", err.Context["host"])
	assert.Equal(t, 1, err.Context["attempt"])
}

func TestIsErrorType(t *testing.T) {
	exportErr := NewExportError("mysqldump failed", nil)

	assert.True(t, IsErrorType(exportErr, BackupErrorTypeExport))
	assert.False(t, IsErrorType(exportErr, BackupErrorTypeReplication))
	assert.False(t, IsErrorType(errors.New("plain"), BackupErrorTypeExport))

	// Wrapped BackupErrors are still recognized.
	wrapped := fmt.Errorf("run failed: %w", exportErr)
	assert.True(t, IsErrorType(wrapped, BackupErrorTypeExport))
}

func TestRunOutcome_ExitCode(t *testing.T) {
	tests := []struct {
		outcome RunOutcome
		want    int
	}{
		{OutcomeSuccess, 0},
		{OutcomePreflightFailed, 2},
		{OutcomeExportFailed, 3},
		{OutcomeReplicationFailed, 4},
		{RunOutcome("UNKNOWN"), 1},
	}

	for _, tt := range tests {
		t.Run(string(tt.outcome), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.outcome.ExitCode())
		})
	}
}

func TestRunOutcome_Success(t *testing.T) {
	assert.True(t, OutcomeSuccess.Success())
	assert.False(t, OutcomePreflightFailed.Success())
	assert.False(t, OutcomeExportFailed.Success())
	assert.False(t, OutcomeReplicationFailed.Success())
}
