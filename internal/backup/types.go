package backup

import (
	"time"
)

// State represents a state of the orchestrator state machine
type State string

const (
	StateInit             State = "INIT"
	StatePreflight        State = "PREFLIGHT"
	StateExporting        State = "EXPORTING"
	StateRetentionPending State = "RETENTION_PENDING"
	StateSyncPending      State = "SYNC_PENDING"
	StateDone             State = "DONE"
	StateTerminal         State = "TERMINAL"
)

// RunOutcome is the terminal state of one orchestration pass
type RunOutcome string

const (
	OutcomeSuccess           RunOutcome = "SUCCESS"
	OutcomePreflightFailed   RunOutcome = "PREFLIGHT_FAILED"
	OutcomeExportFailed      RunOutcome = "EXPORT_FAILED"
	OutcomeReplicationFailed RunOutcome = "REPLICATION_FAILED"
)

// ExitCode maps the outcome to the process exit status: 0 on success and a
// distinct non-zero code per failure class.
func (o RunOutcome) ExitCode() int {
	switch o {
	case OutcomeSuccess:
		return 0
	case OutcomePreflightFailed:
		return 2
	case OutcomeExportFailed:
		return 3
	case OutcomeReplicationFailed:
		return 4
	default:
		return 1
	}
}

// Success reports whether the run reached its terminal state without a fatal
// error. Retention failures never change the outcome class.
func (o RunOutcome) Success() bool {
	return o == OutcomeSuccess
}

// RunResult holds the result of one orchestration pass
type RunResult struct {
	RunID        string           `json:"run_id"`
	Database     string           `json:"database"`
	Outcome      RunOutcome       `json:"outcome"`
	ArtifactPath string           `json:"artifact_path,omitempty"`
	ArtifactSize int64            `json:"artifact_size,omitempty"`
	Retention    *RetentionResult `json:"retention,omitempty"`
	Replicated   bool             `json:"replicated"`
	StartedAt    time.Time        `json:"started_at"`
	Duration     time.Duration    `json:"duration"`
	Err          error            `json:"-"`
	ErrorMessage string           `json:"error,omitempty"`
}

// RetentionResult summarizes one retention enforcement pass. Per-file delete
// failures are counted, not fatal.
type RetentionResult struct {
	Skipped        bool          `json:"skipped"`
	Cutoff         time.Time     `json:"cutoff,omitempty"`
	FilesExamined  int           `json:"files_examined"`
	FilesDeleted   int           `json:"files_deleted"`
	DeleteFailures int           `json:"delete_failures"`
	DirsPruned     int           `json:"dirs_pruned"`
	PruneFailures  int           `json:"prune_failures"`
	BytesReclaimed int64         `json:"bytes_reclaimed"`
	DryRun         bool          `json:"dry_run"`
	Duration       time.Duration `json:"duration"`
}

// ArtifactPlan is the planner's output: the dated destination directory and
// the full artifact path inside it.
type ArtifactPlan struct {
	DestDir      string    `json:"dest_dir"`
	ArtifactPath string    `json:"artifact_path"`
	Timestamp    time.Time `json:"timestamp"`
}
