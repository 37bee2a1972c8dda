package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mysql-backup-sync/internal/config"
)

// configCmd groups configuration inspection subcommands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the backup configuration",
}

// configShowCmd prints the effective configuration
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with secrets redacted",
	Long: `Show prints the configuration that a run would use after merging
defaults, the config file, environment variables and command-line flags.
Passwords and account keys are replaced with a redaction marker.

An incomplete configuration is still printed; validation happens when a
run starts, not here.`,
	RunE: runConfigShow,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadUnvalidated(viper.GetViper())
	if err != nil {
		return err
	}

	out, err := config.ToYAML(*cfg)
	if err != nil {
		return err
	}

	fmt.Print(out)
	return nil
}
