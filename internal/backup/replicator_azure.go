package backup

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/Azure/azure-storage-blob-go/azblob"

	"mysql-backup-sync/internal/logging"
)

// AzureReplicator implements Replicator against an Azure Blob Storage
// container, mirroring the archive tree under the target path as blob name
// prefixes.
type AzureReplicator struct {
	containerURL azblob.ContainerURL
	container    string
	prefix       string
	logger       *logging.Logger
}

// NewAzureReplicator creates a replicator mirroring into the configured
// container.
func NewAzureReplicator(config *AzureConfig, targetPath string, logger *logging.Logger) (*AzureReplicator, error) {
	if config == nil {
		return nil, NewConfigurationError("azure replication configuration is required", nil)
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	credential, err := azblob.NewSharedKeyCredential(config.AccountName, config.AccountKey)
	if err != nil {
		return nil, NewStorageError("failed to create Azure credentials", err)
	}
	pipeline := azblob.NewPipeline(credential, azblob.PipelineOptions{})

	serviceURL, err := url.Parse(fmt.Sprintf("https://%s.blob.core.windows.net", config.AccountName))
	if err != nil {
		return nil, NewStorageError("failed to parse Azure service URL", err)
	}

	return &AzureReplicator{
		containerURL: azblob.NewServiceURL(*serviceURL, pipeline).NewContainerURL(config.ContainerName),
		container:    config.ContainerName,
		prefix:       normalizePrefix(targetPath),
		logger:       logger,
	}, nil
}

// Available reports whether the replicator is usable
func (r *AzureReplicator) Available() error {
	if r.container == "" {
		return NewConfigurationError("azure container is not configured", nil)
	}
	return nil
}

// Provider names the backend
func (r *AzureReplicator) Provider() string { return string(SyncProviderAzure) }

// Target describes the remote destination
func (r *AzureReplicator) Target() string {
	return fmt.Sprintf("azure://%s/%s", r.container, r.prefix)
}

// Replicate mirrors localRoot into the container
func (r *AzureReplicator) Replicate(ctx context.Context, localRoot string, mirrorDeletes bool) error {
	start := time.Now()
	err := r.replicate(ctx, localRoot, mirrorDeletes)
	r.logger.LogReplication(r.Provider(), r.Target(), mirrorDeletes, time.Since(start), err)
	if err != nil {
		return NewReplicationError(fmt.Sprintf("replication to %s failed", r.Target()), err)
	}
	return nil
}

func (r *AzureReplicator) replicate(ctx context.Context, localRoot string, mirrorDeletes bool) error {
	local, err := indexLocalTree(localRoot)
	if err != nil {
		return err
	}

	remote, err := r.listRemote(ctx)
	if err != nil {
		return err
	}

	toUpload, remoteOnly := diffTrees(local, remote)

	for _, entry := range toUpload {
		data, err := os.ReadFile(entry.Path)
		if err != nil {
			return NewStorageError(fmt.Sprintf("failed to read %s", entry.Path), err)
		}
		blobURL := r.containerURL.NewBlockBlobURL(r.prefix + entry.Key)
		_, err = azblob.UploadBufferToBlockBlob(ctx, data, blobURL, azblob.UploadToBlockBlobOptions{
			BlockSize:   4 * 1024 * 1024,
			Parallelism: 16,
		})
		if err != nil {
			return NewStorageError(fmt.Sprintf("failed to upload %s", entry.Key), err)
		}
		r.logger.Debugf("Replication: uploaded azure://%s/%s%s", r.container, r.prefix, entry.Key)
	}

	if mirrorDeletes {
		for _, key := range remoteOnly {
			blobURL := r.containerURL.NewBlockBlobURL(r.prefix + key)
			_, err := blobURL.Delete(ctx, azblob.DeleteSnapshotsOptionNone, azblob.BlobAccessConditions{})
			if err != nil {
				return NewStorageError(fmt.Sprintf("failed to delete remote %s", key), err)
			}
			r.logger.Debugf("Replication: deleted remote azure://%s/%s%s", r.container, r.prefix, key)
		}
	}

	return nil
}

func (r *AzureReplicator) listRemote(ctx context.Context) (map[string]int64, error) {
	remote := make(map[string]int64)
	for marker := (azblob.Marker{}); marker.NotDone(); {
		listResponse, err := r.containerURL.ListBlobsFlatSegment(ctx, marker, azblob.ListBlobsSegmentOptions{
			Prefix: r.prefix,
		})
		if err != nil {
			return nil, NewStorageError("failed to list remote blobs", err)
		}
		marker = listResponse.NextMarker

		for _, blob := range listResponse.Segment.BlobItems {
			key := strings.TrimPrefix(blob.Name, r.prefix)
			if key == "" {
				continue
			}
			var size int64
			if blob.Properties.ContentLength != nil {
				size = *blob.Properties.ContentLength
			}
			remote[key] = size
		}
	}
	return remote, nil
}
