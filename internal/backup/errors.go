package backup

import (
	"errors"
	"fmt"
)

// BackupError represents errors that occur during backup operations
type BackupError struct {
	Type    BackupErrorType        `json:"type"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *BackupError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause error
func (e *BackupError) Unwrap() error {
	return e.Cause
}

// BackupErrorType represents different types of backup errors
type BackupErrorType string

const (
	// BackupErrorTypeConfiguration covers preflight failures: missing
	// required fields, missing collaborator capabilities, missing host
	// profiles. Always pre-mutation.
	BackupErrorTypeConfiguration BackupErrorType = "CONFIGURATION_ERROR"
	// BackupErrorTypeExport covers export collaborator failures; fatal,
	// halts the pipeline.
	BackupErrorTypeExport BackupErrorType = "EXPORT_ERROR"
	// BackupErrorTypeRetention covers per-file delete/prune failures;
	// logged, non-fatal.
	BackupErrorTypeRetention BackupErrorType = "RETENTION_ERROR"
	// BackupErrorTypeReplication covers sync collaborator failures; fatal,
	// not rolled back.
	BackupErrorTypeReplication BackupErrorType = "REPLICATION_ERROR"
	BackupErrorTypeStorage     BackupErrorType = "STORAGE_ERROR"
	BackupErrorTypeCompression BackupErrorType = "COMPRESSION_ERROR"
	BackupErrorTypeEncryption  BackupErrorType = "ENCRYPTION_ERROR"
)

// NewBackupError creates a new BackupError
func NewBackupError(errorType BackupErrorType, message string, cause error) *BackupError {
	return &BackupError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds context information to the error
func (e *BackupError) WithContext(key string, value interface{}) *BackupError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Common error constructors

func NewConfigurationError(message string, cause error) *BackupError {
	return NewBackupError(BackupErrorTypeConfiguration, message, cause)
}

func NewExportError(message string, cause error) *BackupError {
	return NewBackupError(BackupErrorTypeExport, message, cause)
}

func NewRetentionError(message string, cause error) *BackupError {
	return NewBackupError(BackupErrorTypeRetention, message, cause)
}

func NewReplicationError(message string, cause error) *BackupError {
	return NewBackupError(BackupErrorTypeReplication, message, cause)
}

func NewStorageError(message string, cause error) *BackupError {
	return NewBackupError(BackupErrorTypeStorage, message, cause)
}

func NewCompressionError(message string, cause error) *BackupError {
	return NewBackupError(BackupErrorTypeCompression, message, cause)
}

func NewEncryptionError(message string, cause error) *BackupError {
	return NewBackupError(BackupErrorTypeEncryption, message, cause)
}

// IsErrorType reports whether err is a BackupError of the given type
func IsErrorType(err error, errorType BackupErrorType) bool {
	var backupErr *BackupError
	if errors.As(err, &backupErr) {
		return backupErr.Type == errorType
	}
	return false
}
