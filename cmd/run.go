package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mysql-backup-sync/internal/audit"
	"mysql-backup-sync/internal/backup"
	"mysql-backup-sync/internal/config"
	dbcheck "mysql-backup-sync/internal/database"
	"mysql-backup-sync/internal/display"
	"mysql-backup-sync/internal/logging"
)

// runCmd executes one full backup pass
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one backup pass: preflight, export, retention, replication",
	Long: `Run executes a single backup pass for the configured database.

The pass moves through a fixed sequence: preflight checks, mysqldump export
into the dated archive tree, retention enforcement over the tree, and
optional replication to the sync target. Preflight and export failures abort
the run; retention failures are logged but never abort it; replication
failures abort the run after the local artifact is already in place.

The exit code identifies the failure class: 0 on success, 2 when preflight
fails, 3 when the export fails, 4 when replication fails.`,
	RunE: runBackup,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runBackup(cmd *cobra.Command, args []string) error {
	if err := validateOutputFlags(); err != nil {
		return err
	}

	// Validation happens inside preflight so that configuration errors land
	// in the audit trail and map to the preflight exit code.
	cfg, err := config.LoadUnvalidated(viper.GetViper())
	if err != nil {
		return err
	}
	if skipPing {
		cfg.MySQL.PingOnPreflight = false
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}

	trail := audit.Nop()
	if cfg.BackupRoot != "" {
		if t, openErr := audit.Open(cfg.BackupRoot); openErr == nil {
			trail = t
		} else {
			logger.Warnf("audit trail unavailable: %v", openErr)
		}
	}

	orchestrator := backup.NewOrchestrator(*cfg, buildCollaborators(cfg, logger), trail, logger)
	result := orchestrator.Run(cmd.Context())

	if !quiet {
		display.NewRenderer().RenderRunSummary(result)
	}

	if err := trail.Close(); err != nil {
		logger.Warnf("failed to close audit trail: %v", err)
	}

	os.Exit(result.Outcome.ExitCode())
	return nil
}

// buildCollaborators wires the concrete exporter, replicator, host resolver
// and connection checker for the run. Construction errors leave the
// collaborator nil; preflight reports them with full context.
func buildCollaborators(cfg *backup.RunConfig, logger *logging.Logger) backup.Collaborators {
	collab := backup.Collaborators{
		Hosts: backup.NewSSHConfigResolver(cfg.Sync.SSHConfigPath),
	}

	exporter, err := backup.NewMysqldumpExporter(cfg.MySQL, cfg.Compression, cfg.Encryption, logger)
	if err != nil {
		logger.Errorf("exporter unavailable: %v", err)
	} else {
		collab.Exporter = exporter
	}

	if cfg.Sync.Enabled {
		replicator, err := backup.NewReplicator(cfg.Sync, logger)
		if err != nil {
			logger.Errorf("replicator unavailable: %v", err)
		} else {
			collab.Replicator = replicator
		}
	}

	if cfg.MySQL.PingOnPreflight {
		collab.Connection = dbcheck.NewChecker(cfg.MySQL, cfg.Database)
	}

	return collab
}
