// Package audit provides the durable, append-only audit trail for backup runs.
//
// Every stage transition and every error of a run is recorded as one line in
// a plain text file stored under the backup root. Records are never rewritten
// or deleted by this system; the file survives process restarts and is safe
// for concurrent append where the filesystem guarantees atomic O_APPEND
// writes.
package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FileName is the name of the audit log file inside the backup root.
const FileName = "backup.log"

// timestampLayout is the record timestamp format: YYYY-MM-DD HH:MM:SS.
const timestampLayout = "2006-01-02 15:04:05"

// Record is one timestamped audit entry.
type Record struct {
	Timestamp time.Time
	Message   string
}

// String renders the record in its on-disk line format.
func (r Record) String() string {
	return fmt.Sprintf("%s - %s", r.Timestamp.Format(timestampLayout), r.Message)
}

// Trail is an append-only audit log backed by a file under the backup root.
type Trail struct {
	mu   sync.Mutex
	path string
	file *os.File
	nop  bool
	now  func() time.Time
}

// Open creates (if needed) the backup root and opens the audit log file for
// appending. The returned Trail must be closed by the caller.
func Open(root string) (*Trail, error) {
	if root == "" {
		return nil, fmt.Errorf("audit: backup root cannot be empty")
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("audit: failed to create backup root %s: %w", root, err)
	}

	path := filepath.Join(root, FileName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("audit: failed to open audit log %s: %w", path, err)
	}

	return &Trail{
		path: path,
		file: file,
		now:  time.Now,
	}, nil
}

// Path returns the location of the audit log file.
func (t *Trail) Path() string {
	return t.path
}

// Append writes one timestamped record to the log.
func (t *Trail) Append(message string) error {
	return t.appendRecord(Record{Timestamp: t.now(), Message: message})
}

// Appendf writes one timestamped record built from a format string.
func (t *Trail) Appendf(format string, args ...interface{}) error {
	return t.Append(fmt.Sprintf(format, args...))
}

func (t *Trail) appendRecord(record Record) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.nop {
		return nil
	}
	if t.file == nil {
		return fmt.Errorf("audit: trail is closed")
	}

	// One record per line; strip embedded newlines so the line format holds.
	message := strings.ReplaceAll(record.Message, "\n", " ")
	line := fmt.Sprintf("%s - %s\n", record.Timestamp.Format(timestampLayout), message)
	if _, err := t.file.WriteString(line); err != nil {
		return fmt.Errorf("audit: failed to append record: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file. Appending after Close fails.
func (t *Trail) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.file == nil {
		return nil
	}
	err := t.file.Close()
	t.file = nil
	return err
}

// Nop returns a trail that discards all records. It is used when the audit
// log cannot be opened (for example when preflight rejects the backup root)
// so callers never need a nil check.
func Nop() *Trail {
	return &Trail{nop: true, now: time.Now}
}
