package backup

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"mysql-backup-sync/internal/logging"
)

// rsyncBinary is the sync collaborator invoked for rsync replication.
const rsyncBinary = "rsync"

// RsyncReplicator implements Replicator by shelling out to rsync over the
// authenticated ssh transport. Replication is strictly one-way: the local
// archive root is the source of truth and nothing is ever pulled back. When
// mirror-delete mode is on, rsync's --delete removes remote files absent
// locally; otherwise remote-only files accumulate untouched.
type RsyncReplicator struct {
	host       string
	targetPath string
	logger     *logging.Logger

	// lookPath and runCommand are swappable for tests
	lookPath   func(file string) (string, error)
	runCommand func(ctx context.Context, name string, args []string) error
}

// NewRsyncReplicator creates an rsync replicator for host:targetPath
func NewRsyncReplicator(host string, targetPath string, logger *logging.Logger) *RsyncReplicator {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	r := &RsyncReplicator{
		host:       host,
		targetPath: targetPath,
		logger:     logger,
		lookPath:   exec.LookPath,
	}
	r.runCommand = r.run
	return r
}

// Available reports whether rsync is reachable on PATH
func (r *RsyncReplicator) Available() error {
	if _, err := r.lookPath(rsyncBinary); err != nil {
		return NewConfigurationError(
			fmt.Sprintf("sync tool %s not found on PATH", rsyncBinary), err)
	}
	return nil
}

// Provider names the backend
func (r *RsyncReplicator) Provider() string { return string(SyncProviderRsync) }

// Target describes the remote destination
func (r *RsyncReplicator) Target() string {
	return fmt.Sprintf("%s:%s", r.host, r.targetPath)
}

// Replicate mirrors localRoot to the remote target
func (r *RsyncReplicator) Replicate(ctx context.Context, localRoot string, mirrorDeletes bool) error {
	start := time.Now()
	args := r.buildArgs(localRoot, mirrorDeletes)

	err := r.runCommand(ctx, rsyncBinary, args)
	r.logger.LogReplication(r.Provider(), r.Target(), mirrorDeletes, time.Since(start), err)
	if err != nil {
		return NewReplicationError(
			fmt.Sprintf("rsync to %s failed", r.Target()), err)
	}
	return nil
}

// buildArgs assembles the rsync invocation. The trailing slash on the source
// makes rsync mirror the tree's contents, preserving the YEAR/MONTH/DAY
// structure under the remote target.
func (r *RsyncReplicator) buildArgs(localRoot string, mirrorDeletes bool) []string {
	args := []string{"-az"}
	if mirrorDeletes {
		args = append(args, "--delete")
	}
	source := strings.TrimRight(localRoot, "/") + "/"
	return append(args, source, r.Target()+"/")
}

func (r *RsyncReplicator) run(ctx context.Context, name string, args []string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w", firstLine(msg), err)
		}
		return err
	}
	return nil
}
