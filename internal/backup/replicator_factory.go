package backup

import (
	"fmt"

	"mysql-backup-sync/internal/logging"
)

// NewReplicator creates the replicator selected by the sync configuration.
// Sync must be enabled and valid before calling.
func NewReplicator(config SyncConfig, logger *logging.Logger) (Replicator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.ProviderType() {
	case SyncProviderRsync:
		return NewRsyncReplicator(config.RemoteHost, config.TargetPath, logger), nil
	case SyncProviderS3:
		return NewS3Replicator(config.S3, config.TargetPath, logger)
	case SyncProviderGCS:
		return NewGCSReplicator(config.GCS, config.TargetPath, logger)
	case SyncProviderAzure:
		return NewAzureReplicator(config.Azure, config.TargetPath, logger)
	default:
		return nil, NewConfigurationError(
			fmt.Sprintf("unsupported sync provider: %s", config.Provider), nil)
	}
}
