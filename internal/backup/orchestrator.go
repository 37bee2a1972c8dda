package backup

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"mysql-backup-sync/internal/audit"
	"mysql-backup-sync/internal/logging"
)

// Collaborators bundles the external collaborators one run depends on. The
// export and sync tools are modeled as narrow interfaces so the orchestrator
// is testable with fakes without invoking real processes.
type Collaborators struct {
	Exporter   Exporter
	Replicator Replicator
	Hosts      HostResolver
	Connection ConnectionChecker
}

// Orchestrator sequences the backup lifecycle:
//
//	Init -> Preflight -> Exporting -> {RetentionPending|SyncPending|Done} -> Terminal
//
// Execution is single-threaded and strictly linear; each stage blocks until
// its collaborator completes and a fatal stage failure short-circuits all
// subsequent stages. Every state transition emits an audit record. The
// orchestrator owns the RunConfig and RunOutcome for the lifetime of one
// invocation; concurrent runs against the same backup root are not
// coordinated here and must be prevented by the external scheduler.
type Orchestrator struct {
	cfg    RunConfig
	collab Collaborators
	trail  *audit.Trail
	logger *logging.Logger
	now    func() time.Time
}

// NewOrchestrator creates an orchestrator for one run
func NewOrchestrator(cfg RunConfig, collab Collaborators, trail *audit.Trail, logger *logging.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	if trail == nil {
		trail = audit.Nop()
	}
	return &Orchestrator{
		cfg:    cfg,
		collab: collab,
		trail:  trail,
		logger: logger,
		now:    time.Now,
	}
}

// Run executes one orchestration pass and returns its terminal result. Run
// never returns a nil result; the error conditions are captured in the
// result's Outcome and Err fields.
func (o *Orchestrator) Run(ctx context.Context) *RunResult {
	start := o.now()
	result := &RunResult{
		RunID:     newRunID(),
		Database:  o.cfg.Database,
		StartedAt: start,
	}
	state := StateInit

	defer func() {
		result.Duration = o.now().Sub(start)
		if result.Err != nil {
			result.ErrorMessage = result.Err.Error()
		}
	}()

	o.trail.Appendf("backup run %s started for database %s", result.RunID, o.cfg.Database)

	// Preflight: fail fast before any mutation.
	state = o.transition(result, state, StatePreflight)
	preflight := NewPreflight(o.cfg, o.collab, o.logger)
	if err := preflight.Run(ctx); err != nil {
		o.trail.Appendf("preflight failed: %v", err)
		return o.terminate(result, state, OutcomePreflightFailed, err)
	}

	// Export: materialize exactly one artifact under today's date path.
	state = o.transition(result, state, StateExporting)
	plan, err := NewPlanner(o.cfg.BackupRoot, o.cfg.Database, o.collab.Exporter.Extension()).Plan()
	if err != nil {
		o.trail.Appendf("export failed: %v", err)
		return o.terminate(result, state, OutcomeExportFailed, err)
	}
	if err := o.collab.Exporter.Export(ctx, o.cfg.Database, plan.ArtifactPath); err != nil {
		// A partially written artifact is left in place; telling partial
		// from complete output of an opaque tool is not attempted.
		o.trail.Appendf("export failed: %v", err)
		return o.terminate(result, state, OutcomeExportFailed, err)
	}
	result.ArtifactPath = plan.ArtifactPath
	if info, err := os.Stat(plan.ArtifactPath); err == nil {
		result.ArtifactSize = info.Size()
	}
	o.trail.Appendf("export completed: %s", plan.ArtifactPath)

	// Retention: internal errors are downgraded, the run always proceeds.
	if o.cfg.RetentionDays > 0 {
		state = o.transition(result, state, StateRetentionPending)
		enforcer := NewEnforcer(o.cfg.BackupRoot, o.cfg.RetentionDays, o.logger, o.trail)
		retention, err := enforcer.Apply(ctx, false)
		if err != nil {
			o.logger.Errorf("Retention stage error: %v", err)
			o.trail.Appendf("retention error: %v", err)
		} else {
			result.Retention = retention
		}
	}

	// Replication: one-way mirror; failure is fatal but local state,
	// including anything retention already deleted, is not rolled back.
	if o.cfg.Sync.Enabled {
		state = o.transition(result, state, StateSyncPending)
		if err := o.collab.Replicator.Replicate(ctx, o.cfg.BackupRoot, o.cfg.Sync.DeleteRemote); err != nil {
			o.trail.Appendf("replication failed: %v", err)
			return o.terminate(result, state, OutcomeReplicationFailed, err)
		}
		result.Replicated = true
		o.trail.Appendf("replication completed: %s", o.collab.Replicator.Target())
	}

	state = o.transition(result, state, StateDone)
	o.trail.Appendf("backup run %s completed successfully", result.RunID)
	return o.terminate(result, state, OutcomeSuccess, nil)
}

// transition moves the state machine forward, emitting an audit record
func (o *Orchestrator) transition(result *RunResult, from State, to State) State {
	o.logger.LogStageTransition(result.RunID, string(from), string(to))
	o.trail.Appendf("run %s: %s -> %s", result.RunID, from, to)
	return to
}

func (o *Orchestrator) terminate(result *RunResult, from State, outcome RunOutcome, err error) *RunResult {
	o.transition(result, from, StateTerminal)
	result.Outcome = outcome
	result.Err = err

	if outcome.Success() {
		o.logger.Infof("Backup run %s finished: %s", result.RunID, outcome)
	} else {
		o.logger.Errorf("Backup run %s finished: %s: %v", result.RunID, outcome, err)
	}
	return result
}

// newRunID returns the short correlation ID attached to every record and log
// line of one run.
func newRunID() string {
	id := uuid.New().String()
	return strings.ReplaceAll(id, "-", "")[:8]
}
