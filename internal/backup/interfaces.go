package backup

import (
	"context"
)

// Exporter invokes the external database export collaborator to materialize
// one archive artifact at the destination path. Implementations treat the
// export tool's output as an opaque blob; the outcome is binary
// success/failure and no retry is performed here.
type Exporter interface {
	// Export writes one self-contained snapshot of the database to destPath.
	Export(ctx context.Context, database string, destPath string) error

	// Available reports whether the export collaborator is reachable. It is
	// a read-only check used by preflight.
	Available() error

	// Extension returns the artifact filename extension the exporter
	// produces, without a leading dot (for example "sql.gz").
	Extension() string
}

// Replicator mirrors the local archive tree to a remote store. The contract
// is one-way: local is always the source of truth and nothing is ever pulled
// from remote.
type Replicator interface {
	// Replicate mirrors localRoot to the remote target. When mirrorDeletes
	// is set, remote files absent locally are removed; otherwise remote-only
	// files are left untouched.
	Replicate(ctx context.Context, localRoot string, mirrorDeletes bool) error

	// Available reports whether the sync collaborator is reachable. It is a
	// read-only check used by preflight.
	Available() error

	// Provider names the replication backend ("rsync", "s3", "gcs", "azure").
	Provider() string

	// Target describes the remote destination for logging and audit records.
	Target() string
}

// HostResolver answers whether a remote host identifier has a known
// connection profile in the trusted host-alias configuration. Absence is a
// preflight failure, not a sync-time failure.
type HostResolver interface {
	Resolve(host string) error
}

// ConnectionChecker verifies that the database server is reachable before the
// export collaborator is invoked. The check is optional and read-only.
type ConnectionChecker interface {
	Check(ctx context.Context) error
}
