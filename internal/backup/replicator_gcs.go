package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"mysql-backup-sync/internal/logging"
)

// GCSReplicator implements Replicator against a Google Cloud Storage bucket,
// mirroring the archive tree under the target path as object name prefixes.
type GCSReplicator struct {
	config *GCSConfig
	prefix string
	logger *logging.Logger

	// newClient is swappable for tests
	newClient func(ctx context.Context) (*storage.Client, error)
}

// NewGCSReplicator creates a replicator mirroring into the configured bucket
func NewGCSReplicator(config *GCSConfig, targetPath string, logger *logging.Logger) (*GCSReplicator, error) {
	if config == nil {
		return nil, NewConfigurationError("gcs replication configuration is required", nil)
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	r := &GCSReplicator{
		config: config,
		prefix: normalizePrefix(targetPath),
		logger: logger,
	}
	r.newClient = func(ctx context.Context) (*storage.Client, error) {
		if config.CredentialsPath != "" {
			return storage.NewClient(ctx, option.WithCredentialsFile(config.CredentialsPath))
		}
		// Default credentials from the environment or metadata server.
		return storage.NewClient(ctx)
	}
	return r, nil
}

// Available reports whether the replicator is usable
func (r *GCSReplicator) Available() error {
	if r.config.Bucket == "" {
		return NewConfigurationError("gcs bucket is not configured", nil)
	}
	return nil
}

// Provider names the backend
func (r *GCSReplicator) Provider() string { return string(SyncProviderGCS) }

// Target describes the remote destination
func (r *GCSReplicator) Target() string {
	return fmt.Sprintf("gs://%s/%s", r.config.Bucket, r.prefix)
}

// Replicate mirrors localRoot into the bucket
func (r *GCSReplicator) Replicate(ctx context.Context, localRoot string, mirrorDeletes bool) error {
	start := time.Now()
	err := r.replicate(ctx, localRoot, mirrorDeletes)
	r.logger.LogReplication(r.Provider(), r.Target(), mirrorDeletes, time.Since(start), err)
	if err != nil {
		return NewReplicationError(fmt.Sprintf("replication to %s failed", r.Target()), err)
	}
	return nil
}

func (r *GCSReplicator) replicate(ctx context.Context, localRoot string, mirrorDeletes bool) error {
	local, err := indexLocalTree(localRoot)
	if err != nil {
		return err
	}

	client, err := r.newClient(ctx)
	if err != nil {
		return NewStorageError("failed to create GCS client", err)
	}
	defer client.Close()

	bucket := client.Bucket(r.config.Bucket)

	remote, err := r.listRemote(ctx, bucket)
	if err != nil {
		return err
	}

	toUpload, remoteOnly := diffTrees(local, remote)

	for _, entry := range toUpload {
		if err := r.upload(ctx, bucket, entry); err != nil {
			return err
		}
	}

	if mirrorDeletes {
		for _, key := range remoteOnly {
			if err := bucket.Object(r.prefix + key).Delete(ctx); err != nil {
				return NewStorageError(fmt.Sprintf("failed to delete remote %s", key), err)
			}
			r.logger.Debugf("Replication: deleted remote gs://%s/%s%s", r.config.Bucket, r.prefix, key)
		}
	}

	return nil
}

func (r *GCSReplicator) upload(ctx context.Context, bucket *storage.BucketHandle, entry treeEntry) error {
	file, err := os.Open(entry.Path)
	if err != nil {
		return NewStorageError(fmt.Sprintf("failed to read %s", entry.Path), err)
	}
	defer file.Close()

	writer := bucket.Object(r.prefix + entry.Key).NewWriter(ctx)
	if _, err := io.Copy(writer, file); err != nil {
		writer.Close()
		return NewStorageError(fmt.Sprintf("failed to upload %s", entry.Key), err)
	}
	if err := writer.Close(); err != nil {
		return NewStorageError(fmt.Sprintf("failed to upload %s", entry.Key), err)
	}
	r.logger.Debugf("Replication: uploaded gs://%s/%s%s", r.config.Bucket, r.prefix, entry.Key)
	return nil
}

func (r *GCSReplicator) listRemote(ctx context.Context, bucket *storage.BucketHandle) (map[string]int64, error) {
	remote := make(map[string]int64)
	it := bucket.Objects(ctx, &storage.Query{Prefix: r.prefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, NewStorageError("failed to list remote objects", err)
		}
		key := strings.TrimPrefix(attrs.Name, r.prefix)
		if key == "" {
			continue
		}
		remote[key] = attrs.Size
	}
	return remote, nil
}
