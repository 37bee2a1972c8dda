package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mysql-backup-sync/internal/audit"
)

// seedArtifact creates a file under root with the given age.
func seedArtifact(t *testing.T, root string, relPath string, age time.Duration) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(relPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("dump data"), 0o640))

	mtime := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, mtime, mtime))
	return path
}

const day = 24 * time.Hour

func TestEnforcer_ZeroWindowSkips(t *testing.T) {
	root := t.TempDir()
	old := seedArtifact(t, root, "2020/01/01/appdb_old.sql.gz", 2000*day)

	e := NewEnforcer(root, 0, nil, nil)
	result, err := e.Apply(context.Background(), false)
	require.NoError(t, err)

	assert.True(t, result.Skipped)
	assert.FileExists(t, old)
}

func TestEnforcer_DeletesOnlyExpiredFiles(t *testing.T) {
	root := t.TempDir()
	ancient := seedArtifact(t, root, "2020/01/01/appdb_ancient.sql.gz", 31*day)
	expired := seedArtifact(t, root, "2026/08/20/appdb_expired.sql.gz", 10*day)
	fresh := seedArtifact(t, root, "2026/08/29/appdb_fresh.sql.gz", 1*day)

	e := NewEnforcer(root, 7, nil, nil)
	result, err := e.Apply(context.Background(), false)
	require.NoError(t, err)

	assert.NoFileExists(t, ancient)
	assert.NoFileExists(t, expired)
	assert.FileExists(t, fresh)
	assert.Equal(t, 2, result.FilesDeleted)
	assert.Equal(t, 0, result.DeleteFailures)
	assert.Equal(t, 3, result.FilesExamined)
}

func TestEnforcer_PrunesEmptyDirsButNeverRoot(t *testing.T) {
	root := t.TempDir()
	seedArtifact(t, root, "2020/01/01/appdb_old.sql.gz", 100*day)
	fresh := seedArtifact(t, root, "2026/08/29/appdb_fresh.sql.gz", 1*day)

	e := NewEnforcer(root, 7, nil, nil)
	result, err := e.Apply(context.Background(), false)
	require.NoError(t, err)

	// The emptied 2020 branch is gone, DAY then MONTH then YEAR.
	assert.NoDirExists(t, filepath.Join(root, "2020"))
	assert.Equal(t, 3, result.DirsPruned)

	// The root and the populated branch survive.
	assert.DirExists(t, root)
	assert.FileExists(t, fresh)
}

func TestEnforcer_Idempotent(t *testing.T) {
	root := t.TempDir()
	seedArtifact(t, root, "2020/01/01/appdb_old.sql.gz", 100*day)
	seedArtifact(t, root, "2026/08/29/appdb_fresh.sql.gz", 1*day)

	e := NewEnforcer(root, 7, nil, nil)

	first, err := e.Apply(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, first.FilesDeleted)

	second, err := e.Apply(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 0, second.FilesDeleted)
	assert.Equal(t, 0, second.DeleteFailures)
	assert.Equal(t, 0, second.DirsPruned)
}

func TestEnforcer_DryRunDeletesNothing(t *testing.T) {
	root := t.TempDir()
	old := seedArtifact(t, root, "2020/01/01/appdb_old.sql.gz", 100*day)

	e := NewEnforcer(root, 7, nil, nil)
	result, err := e.Apply(context.Background(), true)
	require.NoError(t, err)

	assert.True(t, result.DryRun)
	assert.Equal(t, 1, result.FilesDeleted)
	assert.Positive(t, result.BytesReclaimed)
	assert.FileExists(t, old)
	assert.DirExists(t, filepath.Join(root, "2020", "01", "01"))
}

func TestEnforcer_SparesAuditTrail(t *testing.T) {
	root := t.TempDir()

	trail, err := audit.Open(root)
	require.NoError(t, err)
	require.NoError(t, trail.Append("backup run deadbeef started for database appdb"))
	require.NoError(t, trail.Close())

	// Make the audit log itself older than the window.
	logPath := filepath.Join(root, audit.FileName)
	mtime := time.Now().Add(-100 * day)
	require.NoError(t, os.Chtimes(logPath, mtime, mtime))

	e := NewEnforcer(root, 7, nil, nil)
	result, err := e.Apply(context.Background(), false)
	require.NoError(t, err)

	assert.FileExists(t, logPath)
	assert.Equal(t, 0, result.FilesExamined)
}

func TestEnforcer_AppendsAuditRecord(t *testing.T) {
	root := t.TempDir()
	seedArtifact(t, root, "2020/01/01/appdb_old.sql.gz", 100*day)

	trail, err := audit.Open(root)
	require.NoError(t, err)

	e := NewEnforcer(root, 7, nil, trail)
	_, err = e.Apply(context.Background(), false)
	require.NoError(t, err)
	require.NoError(t, trail.Close())

	content, err := os.ReadFile(filepath.Join(root, audit.FileName))
	require.NoError(t, err)
	assert.Contains(t, string(content), "retention: removed 1 artifacts older than 7 days")
}

func TestEnforcer_MissingRootCountsAsFailure(t *testing.T) {
	e := NewEnforcer(filepath.Join(t.TempDir(), "missing"), 7, nil, nil)

	// An unreadable tree is advisory cleanup gone wrong, not a fatal error.
	result, err := e.Apply(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.DeleteFailures)
	assert.Equal(t, 0, result.FilesDeleted)
}
