package backup

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"mysql-backup-sync/internal/logging"
)

// mysqldumpBinary is the export collaborator invoked for every artifact.
const mysqldumpBinary = "mysqldump"

// MysqldumpExporter implements Exporter by shelling out to mysqldump and
// streaming its stdout through the configured compression pipeline into the
// artifact file. The dump output is treated as an opaque blob; a non-zero
// exit status is the only failure signal. On failure any partially written
// artifact is left in place, since telling a partial dump from a complete
// one is not attempted here.
type MysqldumpExporter struct {
	mysql       MySQLConfig
	compression CompressionConfig
	encryption  EncryptionConfig
	compressor  Compressor
	logger      *logging.Logger

	// lookPath is swappable for tests
	lookPath func(file string) (string, error)
}

// NewMysqldumpExporter creates an exporter for the given connection and
// pipeline configuration.
func NewMysqldumpExporter(mysql MySQLConfig, compression CompressionConfig, encryption EncryptionConfig, logger *logging.Logger) (*MysqldumpExporter, error) {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	compressor, err := NewCompressor(compression.Algorithm)
	if err != nil {
		return nil, err
	}

	return &MysqldumpExporter{
		mysql:       mysql,
		compression: compression,
		encryption:  encryption,
		compressor:  compressor,
		logger:      logger,
		lookPath:    exec.LookPath,
	}, nil
}

// Available reports whether mysqldump is reachable on PATH
func (e *MysqldumpExporter) Available() error {
	if _, err := e.lookPath(mysqldumpBinary); err != nil {
		return NewConfigurationError(
			fmt.Sprintf("export tool %s not found on PATH", mysqldumpBinary), err)
	}
	return nil
}

// Extension returns the artifact extension produced by the configured
// pipeline, e.g. "sql.gz" or "sql.zst.enc".
func (e *MysqldumpExporter) Extension() string {
	ext := "sql"
	if compExt := e.compressor.Extension(); compExt != "" {
		ext += "." + compExt
	}
	if e.encryption.Enabled {
		ext += "." + EncryptedExtension
	}
	return ext
}

// Export runs mysqldump for the database and writes the compressed (and
// optionally encrypted) snapshot to destPath.
func (e *MysqldumpExporter) Export(ctx context.Context, database string, destPath string) error {
	start := time.Now()

	cmd := exec.CommandContext(ctx, mysqldumpBinary, e.buildArgs(database)...)
	// The password goes through the environment so it never shows up in the
	// process list.
	cmd.Env = append(os.Environ(), fmt.Sprintf("MYSQL_PWD=%s", e.mysql.Password))

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := e.runPipeline(cmd, destPath)
	e.logger.LogExport(database, destPath, time.Since(start), err)
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return NewExportError(fmt.Sprintf("mysqldump failed: %s", firstLine(msg)), err)
		}
		return NewExportError("mysqldump failed", err)
	}
	return nil
}

// buildArgs assembles the mysqldump argument list for one database
func (e *MysqldumpExporter) buildArgs(database string) []string {
	args := []string{
		"--single-transaction",
		"--quick",
		"--routines",
		"--triggers",
		"--events",
	}
	if e.mysql.Host != "" {
		args = append(args, "--host="+e.mysql.Host)
	}
	if e.mysql.Port > 0 {
		args = append(args, "--port="+strconv.Itoa(e.mysql.Port))
	}
	if e.mysql.Username != "" {
		args = append(args, "--user="+e.mysql.Username)
	}
	return append(args, database)
}

func (e *MysqldumpExporter) runPipeline(cmd *exec.Cmd, destPath string) error {
	if e.encryption.Enabled {
		return e.runEncryptedPipeline(cmd, destPath)
	}

	file, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return NewStorageError(fmt.Sprintf("failed to create artifact %s", destPath), err)
	}
	defer file.Close()

	zw, err := e.compressor.NewWriter(file, e.compression.Level)
	if err != nil {
		return err
	}

	cmd.Stdout = zw
	if err := cmd.Run(); err != nil {
		zw.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		return NewCompressionError("failed to flush compressed artifact", err)
	}
	return file.Sync()
}

// runEncryptedPipeline buffers the compressed dump in memory because AES-GCM
// seals whole messages, then writes the sealed artifact in one pass.
func (e *MysqldumpExporter) runEncryptedPipeline(cmd *exec.Cmd, destPath string) error {
	passphrase, err := e.encryption.Passphrase()
	if err != nil {
		return err
	}
	artifactCipher, err := NewArtifactCipher(passphrase)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	zw, err := e.compressor.NewWriter(&buf, e.compression.Level)
	if err != nil {
		return err
	}

	cmd.Stdout = zw
	if err := cmd.Run(); err != nil {
		zw.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		return NewCompressionError("failed to flush compressed artifact", err)
	}

	sealed, err := artifactCipher.Encrypt(buf.Bytes())
	if err != nil {
		return err
	}

	if err := os.WriteFile(destPath, sealed, 0o640); err != nil {
		return NewStorageError(fmt.Sprintf("failed to write artifact %s", destPath), err)
	}
	return nil
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
