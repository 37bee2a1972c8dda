package backup

import (
	"context"
	"os"
	"testing"
)

// fakeExporter implements Exporter without invoking mysqldump.
type fakeExporter struct {
	ext          string
	availableErr error
	exportErr    error
	payload      []byte

	exportCalls int
	lastDest    string
}

func (f *fakeExporter) Available() error { return f.availableErr }

func (f *fakeExporter) Extension() string {
	if f.ext == "" {
		return "sql.gz"
	}
	return f.ext
}

func (f *fakeExporter) Export(ctx context.Context, database string, destPath string) error {
	f.exportCalls++
	f.lastDest = destPath
	if f.exportErr != nil {
		return f.exportErr
	}
	payload := f.payload
	if payload == nil {
		payload = []byte("-- fake dump\n")
	}
	return os.WriteFile(destPath, payload, 0o640)
}

// fakeReplicator implements Replicator without touching any remote.
type fakeReplicator struct {
	availableErr error
	replicateErr error

	replicateCalls int
	gotRoot        string
	gotMirror      bool
}

func (f *fakeReplicator) Available() error { return f.availableErr }
func (f *fakeReplicator) Provider() string { return "fake" }
func (f *fakeReplicator) Target() string   { return "fake-host:/srv/backups" }

func (f *fakeReplicator) Replicate(ctx context.Context, localRoot string, mirrorDeletes bool) error {
	f.replicateCalls++
	f.gotRoot = localRoot
	f.gotMirror = mirrorDeletes
	return f.replicateErr
}

// fakeResolver implements HostResolver against a fixed alias set.
type fakeResolver struct {
	known map[string]bool
}

func (f *fakeResolver) Resolve(host string) error {
	if f.known[host] {
		return nil
	}
	return NewConfigurationError("remote host "+host+" has no connection profile", nil)
}

// fakeChecker implements ConnectionChecker.
type fakeChecker struct {
	err   error
	calls int
}

func (f *fakeChecker) Check(ctx context.Context) error {
	f.calls++
	return f.err
}

// validRunConfig returns a minimal valid configuration rooted in a temp dir.
func validRunConfig(t *testing.T) RunConfig {
	t.Helper()
	return RunConfig{
		Database:   "appdb",
		BackupRoot: t.TempDir(),
	}
}

// validSyncRunConfig enables rsync sync on top of validRunConfig.
func validSyncRunConfig(t *testing.T) RunConfig {
	t.Helper()
	cfg := validRunConfig(t)
	cfg.Sync = SyncConfig{
		Enabled:    true,
		Provider:   string(SyncProviderRsync),
		RemoteHost: "backup-host",
		TargetPath: "/srv/backups",
	}
	return cfg
}
