package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mysql-backup-sync/internal/config"
	"mysql-backup-sync/internal/logging"
)

var cfgFile string

// CLI flag variables
var (
	// Backup flags
	database      string
	backupRoot    string
	retentionDays int

	// MySQL connection flags
	mysqlHost     string
	mysqlPort     int
	mysqlUser     string
	mysqlPassword string
	skipPing      bool

	// Sync flags
	syncEnabled  bool
	syncProvider string
	syncHost     string
	syncTarget   string
	syncDelete   bool

	// Artifact flags
	compression string
	encrypt     bool

	// Output flags
	verbose   bool
	quiet     bool
	logFile   string
	logFormat string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mysql-backup-sync",
	Short: "Scheduled MySQL backup runs with retention and remote replication",
	Long: `MySQL Backup Sync exports a MySQL database with mysqldump into a dated
archive tree (root/YYYY/MM/DD), enforces a time-based retention window over
the tree, and optionally replicates the tree to a remote or cloud target.

Every run appends to an audit trail (backup.log) under the backup root, so
the full history of backups, retention sweeps, and replication passes stays
next to the artifacts they describe.

Examples:
  # Run a backup from a configuration file
  mysql-backup-sync run --config=config.yaml

  # Run a backup entirely from flags
  mysql-backup-sync run --database=appdb --backup-root=/var/backups/mysql \
                        --retention-days=7 --mysql-user=backup

  # Backup with rsync replication to a remote host
  mysql-backup-sync run --database=appdb --backup-root=/var/backups/mysql \
                        --sync --sync-host=backup-host --sync-target=/srv/backups

  # Preview what a retention sweep would delete
  mysql-backup-sync prune --config=config.yaml --dry-run

  # Show the effective configuration with secrets redacted
  mysql-backup-sync config show --config=config.yaml`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Configuration file flag
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.mysql-backup-sync.yaml)")

	// Backup flags
	rootCmd.PersistentFlags().StringVar(&database, "database", "", "database to back up")
	rootCmd.PersistentFlags().StringVar(&backupRoot, "backup-root", "", "root directory of the backup archive tree")
	rootCmd.PersistentFlags().IntVar(&retentionDays, "retention-days", 0, "retention window in days (0 disables retention)")

	// MySQL connection flags
	rootCmd.PersistentFlags().StringVar(&mysqlHost, "mysql-host", "127.0.0.1", "MySQL server host")
	rootCmd.PersistentFlags().IntVar(&mysqlPort, "mysql-port", 3306, "MySQL server port")
	rootCmd.PersistentFlags().StringVar(&mysqlUser, "mysql-user", "", "MySQL username")
	rootCmd.PersistentFlags().StringVar(&mysqlPassword, "mysql-password", "", "MySQL password (prefer MYSQL_BACKUP_SYNC_MYSQL_PASSWORD)")
	rootCmd.PersistentFlags().BoolVar(&skipPing, "skip-ping", false, "skip the MySQL connectivity check during preflight")

	// Sync flags
	rootCmd.PersistentFlags().BoolVar(&syncEnabled, "sync", false, "replicate the backup tree after a successful export")
	rootCmd.PersistentFlags().StringVar(&syncProvider, "sync-provider", "rsync", "replication provider (rsync, s3, gcs, azure)")
	rootCmd.PersistentFlags().StringVar(&syncHost, "sync-host", "", "remote host for rsync replication")
	rootCmd.PersistentFlags().StringVar(&syncTarget, "sync-target", "", "target path on the replication destination")
	rootCmd.PersistentFlags().BoolVar(&syncDelete, "sync-delete", false, "mirror deletions to the replication target")

	// Artifact flags
	rootCmd.PersistentFlags().StringVar(&compression, "compression", "gzip", "artifact compression (gzip, zstd, lz4, none)")
	rootCmd.PersistentFlags().BoolVar(&encrypt, "encrypt", false, "encrypt artifacts with the configured passphrase")

	// Output flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to file instead of stderr")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	// Bind flags to viper
	viper.BindPFlag("database", rootCmd.PersistentFlags().Lookup("database"))
	viper.BindPFlag("backup_root", rootCmd.PersistentFlags().Lookup("backup-root"))
	viper.BindPFlag("retention_days", rootCmd.PersistentFlags().Lookup("retention-days"))

	viper.BindPFlag("mysql.host", rootCmd.PersistentFlags().Lookup("mysql-host"))
	viper.BindPFlag("mysql.port", rootCmd.PersistentFlags().Lookup("mysql-port"))
	viper.BindPFlag("mysql.username", rootCmd.PersistentFlags().Lookup("mysql-user"))
	viper.BindPFlag("mysql.password", rootCmd.PersistentFlags().Lookup("mysql-password"))

	viper.BindPFlag("sync.enabled", rootCmd.PersistentFlags().Lookup("sync"))
	viper.BindPFlag("sync.provider", rootCmd.PersistentFlags().Lookup("sync-provider"))
	viper.BindPFlag("sync.remote_host", rootCmd.PersistentFlags().Lookup("sync-host"))
	viper.BindPFlag("sync.target_path", rootCmd.PersistentFlags().Lookup("sync-target"))
	viper.BindPFlag("sync.delete_remote", rootCmd.PersistentFlags().Lookup("sync-delete"))

	viper.BindPFlag("compression.algorithm", rootCmd.PersistentFlags().Lookup("compression"))
	viper.BindPFlag("encryption.enabled", rootCmd.PersistentFlags().Lookup("encrypt"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".mysql-backup-sync")
	}

	viper.SetEnvPrefix("MYSQL_BACKUP_SYNC")
	viper.AutomaticEnv()

	config.SetDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		if verbose {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

// validateOutputFlags checks mutually exclusive output options.
func validateOutputFlags() error {
	if verbose && quiet {
		return fmt.Errorf("--verbose and --quiet flags are mutually exclusive")
	}
	if logFormat != "text" && logFormat != "json" {
		return fmt.Errorf("invalid log format %q, must be text or json", logFormat)
	}
	return nil
}

// newLogger builds the logger from output flags.
func newLogger() (*logging.Logger, error) {
	level := logging.LogLevelNormal
	switch {
	case quiet:
		level = logging.LogLevelQuiet
	case verbose:
		level = logging.LogLevelVerbose
	}

	return logging.NewLogger(logging.Config{
		Level:   level,
		Output:  os.Stderr,
		Format:  logFormat,
		LogFile: logFile,
	})
}
