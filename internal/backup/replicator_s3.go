package backup

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"mysql-backup-sync/internal/logging"
)

// S3Replicator implements Replicator against an Amazon S3 bucket. The local
// YEAR/MONTH/DAY structure is preserved as object key prefixes under the
// configured target path. Files already present remotely with the same size
// are skipped; with mirror-delete mode, remote keys without a local
// counterpart are removed.
type S3Replicator struct {
	client s3iface
	bucket string
	prefix string
	logger *logging.Logger
}

// s3iface is the slice of the S3 API the replicator uses, extracted so tests
// can substitute a fake client.
type s3iface interface {
	ListObjectsV2PagesWithContext(ctx aws.Context, input *s3.ListObjectsV2Input, fn func(*s3.ListObjectsV2Output, bool) bool, opts ...interface{}) error
	PutObjectWithContext(ctx aws.Context, input *s3.PutObjectInput, opts ...interface{}) (*s3.PutObjectOutput, error)
	DeleteObjectWithContext(ctx aws.Context, input *s3.DeleteObjectInput, opts ...interface{}) (*s3.DeleteObjectOutput, error)
}

// s3Client adapts *s3.S3 to s3iface, dropping the variadic request options
// which carry an SDK-internal type.
type s3Client struct {
	api *s3.S3
}

func (c *s3Client) ListObjectsV2PagesWithContext(ctx aws.Context, input *s3.ListObjectsV2Input, fn func(*s3.ListObjectsV2Output, bool) bool, opts ...interface{}) error {
	return c.api.ListObjectsV2PagesWithContext(ctx, input, fn)
}

func (c *s3Client) PutObjectWithContext(ctx aws.Context, input *s3.PutObjectInput, opts ...interface{}) (*s3.PutObjectOutput, error) {
	return c.api.PutObjectWithContext(ctx, input)
}

func (c *s3Client) DeleteObjectWithContext(ctx aws.Context, input *s3.DeleteObjectInput, opts ...interface{}) (*s3.DeleteObjectOutput, error) {
	return c.api.DeleteObjectWithContext(ctx, input)
}

// NewS3Replicator creates a replicator mirroring into the configured bucket.
// targetPath becomes the key prefix; empty means the bucket root.
func NewS3Replicator(config *S3Config, targetPath string, logger *logging.Logger) (*S3Replicator, error) {
	if config == nil {
		return nil, NewConfigurationError("s3 replication configuration is required", nil)
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	awsConfig := &aws.Config{Region: aws.String(config.Region)}
	if config.AccessKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(config.AccessKey, config.SecretKey, "")
	}
	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, NewStorageError("failed to create AWS session", err)
	}

	return &S3Replicator{
		client: &s3Client{api: s3.New(sess)},
		bucket: config.Bucket,
		prefix: normalizePrefix(targetPath),
		logger: logger,
	}, nil
}

// Available reports whether the replicator is usable. Credentials are only
// exercised on first use; this is a configuration presence check.
func (r *S3Replicator) Available() error {
	if r.bucket == "" {
		return NewConfigurationError("s3 bucket is not configured", nil)
	}
	return nil
}

// Provider names the backend
func (r *S3Replicator) Provider() string { return string(SyncProviderS3) }

// Target describes the remote destination
func (r *S3Replicator) Target() string {
	return fmt.Sprintf("s3://%s/%s", r.bucket, r.prefix)
}

// Replicate mirrors localRoot into the bucket
func (r *S3Replicator) Replicate(ctx context.Context, localRoot string, mirrorDeletes bool) error {
	start := time.Now()
	err := r.replicate(ctx, localRoot, mirrorDeletes)
	r.logger.LogReplication(r.Provider(), r.Target(), mirrorDeletes, time.Since(start), err)
	if err != nil {
		return NewReplicationError(fmt.Sprintf("replication to %s failed", r.Target()), err)
	}
	return nil
}

func (r *S3Replicator) replicate(ctx context.Context, localRoot string, mirrorDeletes bool) error {
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
		_, err = r.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
			Bucket: aws.String(r.bucket),
			Key:    aws.String(r.prefix + entry.Key),
			Body:   bytes.NewReader(data),
		})
		if err != nil {
			return NewStorageError(fmt.Sprintf("failed to upload %s", entry.Key), err)
		}
		r.logger.Debugf("Replication: uploaded s3://%s/%s%s", r.bucket, r.prefix, entry.Key)
	}

	if mirrorDeletes {
		for _, key := range remoteOnly {
			_, err := r.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(r.bucket),
				Key:    aws.String(r.prefix + key),
			})
			if err != nil {
				return NewStorageError(fmt.Sprintf("failed to delete remote %s", key), err)
			}
			r.logger.Debugf("Replication: deleted remote s3://%s/%s%s", r.bucket, r.prefix, key)
		}
	}

	return nil
}

// listRemote returns the existing object keys (relative to the prefix) and
// their sizes.
func (r *S3Replicator) listRemote(ctx context.Context) (map[string]int64, error) {
	remote := make(map[string]int64)
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(r.bucket),
		Prefix: aws.String(r.prefix),
	}

	err := r.client.ListObjectsV2PagesWithContext(ctx, input, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, object := range page.Contents {
			key := strings.TrimPrefix(aws.StringValue(object.Key), r.prefix)
			if key == "" {
				continue
			}
			remote[key] = aws.Int64Value(object.Size)
		}
		return true
	})
	if err != nil {
		return nil, NewStorageError("failed to list remote objects", err)
	}
	return remote, nil
}

// normalizePrefix turns a target path into a clean key prefix ending in "/"
func normalizePrefix(targetPath string) string {
	prefix := strings.Trim(targetPath, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}
