package backup

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"mysql-backup-sync/internal/audit"
	"mysql-backup-sync/internal/logging"
)

// Enforcer applies the time-based retention policy to the archive tree. It
// deletes every artifact whose modification time is strictly older than the
// cutoff, then prunes directories left empty, bottom-up, never touching the
// root itself. Deletion is advisory bulk cleanup, not transactional: a
// per-file failure is counted and logged, and the sweep continues over the
// remaining candidates.
type Enforcer struct {
	root   string
	days   int
	logger *logging.Logger
	trail  *audit.Trail
	now    func() time.Time
}

// NewEnforcer creates a retention enforcer for the given backup root and
// retention window in days. A window of 0 disables the stage entirely.
func NewEnforcer(root string, days int, logger *logging.Logger, trail *audit.Trail) *Enforcer {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	if trail == nil {
		trail = audit.Nop()
	}
	return &Enforcer{
		root:   root,
		days:   days,
		logger: logger,
		trail:  trail,
		now:    time.Now,
	}
}

// Apply runs one retention sweep. It is idempotent: a second run against the
// same cutoff deletes nothing further and reports no errors on the empty
// candidate set. The returned error covers only failures to scan the tree;
// per-file deletion failures are reported inside the result.
func (e *Enforcer) Apply(ctx context.Context, dryRun bool) (*RetentionResult, error) {
	start := e.now()

	if e.days == 0 {
		// 0 is the sentinel for "retention disabled", not "keep nothing".
		e.logger.Debug("Retention window is 0, skipping retention stage")
		return &RetentionResult{Skipped: true, DryRun: dryRun}, nil
	}

	cutoff := start.AddDate(0, 0, -e.days)
	result := &RetentionResult{Cutoff: cutoff, DryRun: dryRun}

	if err := e.sweepFiles(ctx, cutoff, result); err != nil {
		return nil, err
	}
	if !dryRun {
		e.pruneEmptyDirs(result)
	}

	result.Duration = e.now().Sub(start)
	e.logger.LogRetentionSweep(e.root, result.FilesDeleted, result.DeleteFailures, result.DirsPruned, result.Duration)
	e.trail.Appendf("retention: removed %d artifacts older than %d days (%d failures, %d directories pruned)",
		result.FilesDeleted, e.days, result.DeleteFailures, result.DirsPruned)

	return result, nil
}

// sweepFiles deletes regular files older than the cutoff
func (e *Enforcer) sweepFiles(ctx context.Context, cutoff time.Time, result *RetentionResult) error {
	err := filepath.WalkDir(e.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are retention errors, not fatal ones.
			e.logger.Warnf("Retention: cannot access %s: %v", path, err)
			result.DeleteFailures++
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}

		// The audit log lives under the root and is never subject to
		// retention.
		if path == filepath.Join(e.root, audit.FileName) {
			return nil
		}

		result.FilesExamined++

		info, err := d.Info()
		if err != nil {
			e.logger.Warnf("Retention: cannot stat %s: %v", path, err)
			result.DeleteFailures++
			return nil
		}
		if !info.ModTime().Before(cutoff) {
			return nil
		}

		if result.DryRun {
			e.logger.Infof("Retention (dry run): would delete %s", path)
			result.FilesDeleted++
			result.BytesReclaimed += info.Size()
			return nil
		}

		if err := os.Remove(path); err != nil {
			e.logger.Warnf("Retention: failed to delete %s: %v", path, err)
			result.DeleteFailures++
			return nil
		}
		e.logger.Debugf("Retention: deleted %s (modified %s)", path, info.ModTime().Format(time.RFC3339))
		result.FilesDeleted++
		result.BytesReclaimed += info.Size()
		return nil
	})
	if err != nil {
		return NewRetentionError(fmt.Sprintf("failed to scan archive tree %s", e.root), err)
	}
	return nil
}

// pruneEmptyDirs removes directories left empty by the sweep, deepest first
// (DAY before MONTH before YEAR), and never removes the root itself.
func (e *Enforcer) pruneEmptyDirs(result *RetentionResult) {
	var dirs []string
	err := filepath.WalkDir(e.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && path != e.root {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		result.PruneFailures++
		return
	}

	// Deepest directories first, so a DAY dir empties its MONTH parent
	// before the parent is considered.
	sort.Slice(dirs, func(i, j int) bool {
		return strings.Count(dirs[i], string(filepath.Separator)) > strings.Count(dirs[j], string(filepath.Separator))
	})

	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			e.logger.Warnf("Retention: cannot read directory %s: %v", dir, err)
			result.PruneFailures++
			continue
		}
		if len(entries) > 0 {
			continue
		}
		if err := os.Remove(dir); err != nil {
			e.logger.Warnf("Retention: failed to prune %s: %v", dir, err)
			result.PruneFailures++
			continue
		}
		e.logger.Debugf("Retention: pruned empty directory %s", dir)
		result.DirsPruned++
	}
}
