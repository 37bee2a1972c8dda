// Package backup implements the backup lifecycle orchestrator for scheduled
// MySQL database backups with hierarchical local storage, time-based
// retention, and optional one-way replication to a remote store.
//
// The orchestrator runs a strictly linear, single-threaded pipeline:
//
//	Preflight -> Export -> Retention (conditional) -> Replication (conditional)
//
// Each stage's failure short-circuits all subsequent stages. Preflight and
// export failures are fatal before and after the artifact is attempted;
// retention failures are downgraded to per-file warnings and never change the
// run outcome; replication failures are fatal but nothing retention already
// deleted is rolled back.
//
// Core Components:
//
//   - Orchestrator: sequences the stages, owns the RunOutcome and exit behavior
//   - Preflight: validates configuration and collaborator reachability before
//     any side effect
//   - Planner: maps (root, now, database) to the root/YYYY/MM/DD archive path
//   - Exporter: invokes mysqldump and streams its output through the
//     configured compression (and optional encryption) pipeline
//   - Enforcer: deletes artifacts older than the retention window and prunes
//     empty directories bottom-up
//   - Replicator: mirrors the archive tree via rsync or a cloud object store
//     (S3, GCS, Azure Blob), optionally deleting remote-only files
//
// External processes (mysqldump, rsync) are modeled as narrow collaborator
// interfaces so the orchestrator logic is testable with fakes without
// invoking real tools.
//
// Example usage:
//
//	trail, err := audit.Open(cfg.BackupRoot)
//	if err != nil {
//		return err
//	}
//	defer trail.Close()
//
//	exporter, err := backup.NewMysqldumpExporter(cfg.MySQL, cfg.Compression, cfg.Encryption, logger)
//	if err != nil {
//		return err
//	}
//
//	orch := backup.NewOrchestrator(cfg, backup.Collaborators{
//		Exporter:   exporter,
//		Replicator: replicator,
//		Hosts:      backup.NewSSHConfigResolver(""),
//	}, trail, logger)
//
//	result := orch.Run(ctx)
//	os.Exit(result.Outcome.ExitCode())
package backup
