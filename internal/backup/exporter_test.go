package backup

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExporter(t *testing.T, compression CompressionConfig, encryption EncryptionConfig) *MysqldumpExporter {
	t.Helper()
	e, err := NewMysqldumpExporter(MySQLConfig{
		Host:     "db.example.com",
		Port:     3307,
		Username: "backup",
		Password: "secret",
	}, compression, encryption, nil)
	require.NoError(t, err)
	return e
}

func TestMysqldumpExporter_BuildArgs(t *testing.T) {
	e := newTestExporter(t, CompressionConfig{}, EncryptionConfig{})

	args := e.buildArgs("appdb")

	assert.Equal(t, []string{
		"--single-transaction",
		"--quick",
		"--routines",
		"--triggers",
		"--events",
		"--host=db.example.com",
		"--port=3307",
		"--user=backup",
		"appdb",
	}, args)

	// The password never appears on the command line.
	for _, arg := range args {
		assert.NotContains(t, arg, "secret")
	}
}

func TestMysqldumpExporter_BuildArgsOmitsEmptyConnection(t *testing.T) {
	e, err := NewMysqldumpExporter(MySQLConfig{}, CompressionConfig{}, EncryptionConfig{}, nil)
	require.NoError(t, err)

	args := e.buildArgs("appdb")
	for _, arg := range args {
		assert.NotContains(t, arg, "--host")
		assert.NotContains(t, arg, "--port")
		assert.NotContains(t, arg, "--user")
	}
	assert.Equal(t, "appdb", args[len(args)-1])
}

func TestMysqldumpExporter_Extension(t *testing.T) {
	tests := []struct {
		name        string
		compression CompressionConfig
		encryption  EncryptionConfig
		want        string
	}{
		{"default gzip", CompressionConfig{}, EncryptionConfig{}, "sql.gz"},
		{"explicit gzip", CompressionConfig{Algorithm: "gzip"}, EncryptionConfig{}, "sql.gz"},
		{"zstd", CompressionConfig{Algorithm: "zstd"}, EncryptionConfig{}, "sql.zst"},
		{"lz4", CompressionConfig{Algorithm: "lz4"}, EncryptionConfig{}, "sql.lz4"},
		{"none", CompressionConfig{Algorithm: "none"}, EncryptionConfig{}, "sql"},
		{"gzip encrypted", CompressionConfig{}, EncryptionConfig{Enabled: true}, "sql.gz.enc"},
		{"none encrypted", CompressionConfig{Algorithm: "none"}, EncryptionConfig{Enabled: true}, "sql.enc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestExporter(t, tt.compression, tt.encryption)
			assert.Equal(t, tt.want, e.Extension())
		})
	}
}

func TestMysqldumpExporter_Available(t *testing.T) {
	e := newTestExporter(t, CompressionConfig{}, EncryptionConfig{})

	e.lookPath = func(file string) (string, error) { return "/usr/bin/mysqldump", nil }
	assert.NoError(t, e.Available())

	e.lookPath = func(file string) (string, error) { return "", errors.New("not found") }
	err := e.Available()
	require.Error(t, err)
	assert.True(t, IsErrorType(err, BackupErrorTypeConfiguration))
	assert.Contains(t, err.Error(), "mysqldump")
}

func TestNewMysqldumpExporter_UnsupportedCompression(t *testing.T) {
	_, err := NewMysqldumpExporter(MySQLConfig{}, CompressionConfig{Algorithm: "brotli"}, EncryptionConfig{}, nil)
	require.Error(t, err)
	assert.True(t, IsErrorType(err, BackupErrorTypeCompression))
}
