package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mysql-backup-sync/internal/audit"
	"mysql-backup-sync/internal/backup"
	"mysql-backup-sync/internal/config"
	"mysql-backup-sync/internal/confirmation"
	"mysql-backup-sync/internal/display"
)

var (
	pruneDryRun bool
	pruneYes    bool
)

// pruneCmd runs a standalone retention sweep without a backup
var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Enforce the retention window without running a backup",
	Long: `Prune applies the configured retention window to the backup archive tree:
files older than the window are deleted and directories left empty by the
sweep are removed. The backup root itself and the audit trail are never
touched.

With --dry-run the sweep reports what it would delete without removing
anything. Without --yes, a preview is shown and the sweep asks for
confirmation before deleting.`,
	RunE: runPrune,
}

func init() {
	pruneCmd.Flags().BoolVar(&pruneDryRun, "dry-run", false, "report deletions without performing them")
	pruneCmd.Flags().BoolVarP(&pruneYes, "yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(pruneCmd)
}

func runPrune(cmd *cobra.Command, args []string) error {
	if err := validateOutputFlags(); err != nil {
		return err
	}

	cfg, err := config.LoadUnvalidated(viper.GetViper())
	if err != nil {
		return err
	}
	if cfg.BackupRoot == "" {
		return fmt.Errorf("backup root path is required")
	}
	if cfg.RetentionDays < 0 {
		return fmt.Errorf("retention_days must be non-negative, got %d", cfg.RetentionDays)
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}

	// Interactive runs preview the sweep and ask before deleting.
	if !pruneDryRun && !pruneYes {
		preview := backup.NewEnforcer(cfg.BackupRoot, cfg.RetentionDays, logger, audit.Nop())
		dry, err := preview.Apply(cmd.Context(), true)
		if err != nil {
			return err
		}
		if dry.Skipped || dry.FilesDeleted == 0 {
			if !quiet {
				display.NewRenderer().RenderRetentionSummary(dry)
			}
			return nil
		}

		ok, err := confirmation.NewService().Confirm(
			fmt.Sprintf("Retention would delete %d files under %s.", dry.FilesDeleted, cfg.BackupRoot))
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	// A dry run must leave the tree untouched, audit trail included.
	trail := audit.Nop()
	if !pruneDryRun {
		t, openErr := audit.Open(cfg.BackupRoot)
		if openErr != nil {
			return fmt.Errorf("failed to open audit trail: %w", openErr)
		}
		trail = t
		defer trail.Close()
	}

	enforcer := backup.NewEnforcer(cfg.BackupRoot, cfg.RetentionDays, logger, trail)
	result, err := enforcer.Apply(cmd.Context(), pruneDryRun)
	if err != nil {
		return err
	}

	if !quiet {
		display.NewRenderer().RenderRetentionSummary(result)
	}
	return nil
}
