package audit

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordLine matches "YYYY-MM-DD HH:MM:SS - message".
var recordLine = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} - .+$`)

func TestOpen_CreatesRootAndLogFile(t *testing.T) {
	root := filepath.Join(t.TempDir(), "backups")

	trail, err := Open(root)
	require.NoError(t, err)
	defer trail.Close()

	assert.Equal(t, filepath.Join(root, FileName), trail.Path())
	_, err = os.Stat(trail.Path())
	assert.NoError(t, err)
}

func TestOpen_EmptyRoot(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestTrail_AppendFormat(t *testing.T) {
	root := t.TempDir()
	trail, err := Open(root)
	require.NoError(t, err)

	require.NoError(t, trail.Append("backup started"))
	require.NoError(t, trail.Appendf("retention removed %d artifacts", 3))
	require.NoError(t, trail.Close())

	data, err := os.ReadFile(trail.Path())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.Regexp(t, recordLine, line)
	}
	assert.Contains(t, lines[0], "backup started")
	assert.Contains(t, lines[1], "retention removed 3 artifacts")
}

func TestTrail_AppendIsAppendOnly(t *testing.T) {
	root := t.TempDir()

	trail, err := Open(root)
	require.NoError(t, err)
	require.NoError(t, trail.Append("first run"))
	require.NoError(t, trail.Close())

	// Reopening must preserve existing records.
	trail, err = Open(root)
	require.NoError(t, err)
	require.NoError(t, trail.Append("second run"))
	require.NoError(t, trail.Close())

	data, err := os.ReadFile(trail.Path())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "first run")
	assert.Contains(t, lines[1], "second run")
}

func TestTrail_StripsEmbeddedNewlines(t *testing.T) {
	root := t.TempDir()
	trail, err := Open(root)
	require.NoError(t, err)

	require.NoError(t, trail.Append("export failed:\nexit status 2"))
	require.NoError(t, trail.Close())

	data, err := os.ReadFile(trail.Path())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "export failed: exit status 2")
}

func TestTrail_AppendAfterClose(t *testing.T) {
	trail, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, trail.Close())

	assert.Error(t, trail.Append("too late"))
}

func TestRecord_String(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	record := Record{Timestamp: ts, Message: "backup completed successfully"}
	assert.Equal(t, "2024-01-02 03:04:05 - backup completed successfully", record.String())
}

func TestNop_DiscardsRecords(t *testing.T) {
	trail := Nop()
	assert.NoError(t, trail.Append("goes nowhere"))
	assert.NoError(t, trail.Close())
}
