package display

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"mysql-backup-sync/internal/backup"
)

const defaultWidth = 80

// Renderer writes human-readable run summaries to a terminal or plain writer.
type Renderer struct {
	writer io.Writer
	colors ColorSystem
	width  func() int
}

// NewRenderer creates a renderer for stdout with automatic color detection.
func NewRenderer() *Renderer {
	return &Renderer{
		writer: os.Stdout,
		colors: NewColorSystem(DefaultTheme()),
		width:  terminalWidth,
	}
}

// NewRendererWithWriter creates a renderer for an arbitrary writer without
// colors. Used for tests and piped output.
func NewRendererWithWriter(w io.Writer) *Renderer {
	return &Renderer{
		writer: w,
		colors: NewPlainColorSystem(DefaultTheme()),
		width:  func() int { return defaultWidth },
	}
}

// terminalWidth returns the current terminal width or a default when stdout
// is not a terminal.
func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return defaultWidth
	}
	return width
}

// RenderRunSummary prints the outcome of one backup run.
func (r *Renderer) RenderRunSummary(result *backup.RunResult) {
	theme := r.colors.Theme()

	r.separator()
	fmt.Fprintf(r.writer, "Backup run %s\n", result.RunID)
	r.separator()

	r.row("Database", result.Database)
	r.row("Started", result.StartedAt.Format("2006-01-02 15:04:05"))
	r.row("Duration", formatDuration(result.Duration))

	switch result.Outcome {
	case backup.OutcomeSuccess:
		r.row("Outcome", r.colors.Colorize(string(result.Outcome), theme.Success))
	default:
		r.row("Outcome", r.colors.Colorize(string(result.Outcome), theme.Error))
	}

	if result.ArtifactPath != "" {
		r.row("Artifact", result.ArtifactPath)
		if result.ArtifactSize > 0 {
			r.row("Size", formatBytes(result.ArtifactSize))
		}
	}

	if result.Retention != nil {
		r.renderRetentionRows(result.Retention)
	}

	if result.Replicated {
		r.row("Replicated", r.colors.Colorize("yes", theme.Success))
	}

	if result.ErrorMessage != "" {
		r.row("Error", r.colors.Colorize(result.ErrorMessage, theme.Error))
	}

	r.separator()
}

// RenderRetentionSummary prints the outcome of a standalone retention pass.
func (r *Renderer) RenderRetentionSummary(result *backup.RetentionResult) {
	r.separator()
	if result.DryRun {
		fmt.Fprintln(r.writer, "Retention sweep (dry run)")
	} else {
		fmt.Fprintln(r.writer, "Retention sweep")
	}
	r.separator()
	r.renderRetentionRows(result)
	r.separator()
}

func (r *Renderer) renderRetentionRows(result *backup.RetentionResult) {
	theme := r.colors.Theme()

	if result.Skipped {
		r.row("Retention", r.colors.Colorize("disabled", theme.Muted))
		return
	}

	r.row("Cutoff", result.Cutoff.Format("2006-01-02 15:04:05"))
	r.row("Examined", fmt.Sprintf("%d files", result.FilesExamined))

	deleted := fmt.Sprintf("%d files (%s)", result.FilesDeleted, formatBytes(result.BytesReclaimed))
	if result.DryRun {
		r.row("Would delete", deleted)
	} else {
		r.row("Deleted", deleted)
		r.row("Pruned", fmt.Sprintf("%d empty directories", result.DirsPruned))
	}

	if result.DeleteFailures > 0 || result.PruneFailures > 0 {
		failures := fmt.Sprintf("%d delete, %d prune", result.DeleteFailures, result.PruneFailures)
		r.row("Failures", r.colors.Colorize(failures, theme.Warning))
	}
}

func (r *Renderer) row(label, value string) {
	fmt.Fprintf(r.writer, "  %-14s %s\n", label+":", value)
}

func (r *Renderer) separator() {
	width := r.width()
	if width > defaultWidth {
		width = defaultWidth
	}
	fmt.Fprintln(r.writer, strings.Repeat("-", width))
}

// formatBytes renders a byte count in a human-readable unit.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// formatDuration renders a duration rounded to a readable precision.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second / 10).String()
}
