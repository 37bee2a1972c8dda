package backup

import (
	"context"
	"strings"

	"mysql-backup-sync/internal/logging"
)

// Preflight validates the run configuration and collaborator reachability
// before any side effect occurs. Checks run in order and short-circuit on
// the first failure; all of them are read-only, so a preflight failure never
// leaves partial state behind and prevents archive directory creation.
type Preflight struct {
	cfg    RunConfig
	collab Collaborators
	logger *logging.Logger
}

// NewPreflight creates a preflight validator for one run
func NewPreflight(cfg RunConfig, collab Collaborators, logger *logging.Logger) *Preflight {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Preflight{cfg: cfg, collab: collab, logger: logger}
}

// Run executes the checks. A non-nil result is always a configuration error.
func (p *Preflight) Run(ctx context.Context) error {
	// 1. Required fields.
	if err := p.cfg.Validate(); err != nil {
		p.logger.LogPreflightCheck("config_fields", false, err.Error())
		return err
	}
	p.logger.LogPreflightCheck("config_fields", true, "")

	// 2. Export collaborator reachability.
	if p.collab.Exporter == nil {
		err := NewConfigurationError("no export collaborator configured", nil)
		p.logger.LogPreflightCheck("export_tool", false, err.Error())
		return err
	}
	if err := p.collab.Exporter.Available(); err != nil {
		p.logger.LogPreflightCheck("export_tool", false, err.Error())
		return err
	}
	p.logger.LogPreflightCheck("export_tool", true, "")

	// 3. Sync collaborator, target fields and host profile.
	if p.cfg.Sync.Enabled {
		if err := p.checkSync(); err != nil {
			return err
		}
	}

	// 4. Optional database connectivity check.
	if p.cfg.MySQL.PingOnPreflight && p.collab.Connection != nil {
		if err := p.collab.Connection.Check(ctx); err != nil {
			p.logger.LogPreflightCheck("database_connection", false, err.Error())
			return NewConfigurationError("database server is not reachable", err)
		}
		p.logger.LogPreflightCheck("database_connection", true, "")
	}

	return nil
}

func (p *Preflight) checkSync() error {
	if p.collab.Replicator == nil {
		err := NewConfigurationError("sync is enabled but no sync collaborator is configured", nil)
		p.logger.LogPreflightCheck("sync_tool", false, err.Error())
		return err
	}
	if err := p.collab.Replicator.Available(); err != nil {
		p.logger.LogPreflightCheck("sync_tool", false, err.Error())
		return err
	}
	p.logger.LogPreflightCheck("sync_tool", true, "")

	// Host alias resolution only applies to the rsync transport; object
	// store providers authenticate through their own credentials, validated
	// by SyncConfig.Validate above.
	if p.cfg.Sync.ProviderType() == SyncProviderRsync {
		if strings.TrimSpace(p.cfg.Sync.TargetPath) == "" || strings.TrimSpace(p.cfg.Sync.RemoteHost) == "" {
			err := NewConfigurationError("sync requires both target_path and remote_host", nil)
			p.logger.LogPreflightCheck("sync_target", false, err.Error())
			return err
		}
		p.logger.LogPreflightCheck("sync_target", true, "")

		if p.collab.Hosts == nil {
			err := NewConfigurationError("no host alias resolver configured", nil)
			p.logger.LogPreflightCheck("host_alias", false, err.Error())
			return err
		}
		if err := p.collab.Hosts.Resolve(p.cfg.Sync.RemoteHost); err != nil {
			p.logger.LogPreflightCheck("host_alias", false, err.Error())
			return err
		}
		p.logger.LogPreflightCheck("host_alias", true, "")
	}

	return nil
}
