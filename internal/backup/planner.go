package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TimestampFormat is the second-precision timestamp embedded in artifact
// names: YYYY-MM-DD-HH-MM-SS.
const TimestampFormat = "2006-01-02-15-04-05"

// Planner maps (backup root, current date, database identifier) to the dated
// destination directory and artifact filename. The archive tree is organized
// as root/YYYY/MM/DD with zero-padded calendar components; every artifact
// lives at depth exactly three under the root.
type Planner struct {
	root      string
	database  string
	extension string
	now       func() time.Time
}

// NewPlanner creates a planner for the given root and database. extension is
// the artifact filename extension without a leading dot, e.g. "sql.gz".
func NewPlanner(root string, database string, extension string) *Planner {
	return &Planner{
		root:      root,
		database:  database,
		extension: extension,
		now:       time.Now,
	}
}

// Plan computes the destination for a new artifact and creates the dated
// directory (with any missing ancestors) before returning, since the archive
// directory is a precondition for export.
//
// Calling twice within the same second for the same database would collide on
// the artifact name; instead of silently overwriting, a numeric suffix is
// appended until the path is free.
func (p *Planner) Plan() (*ArtifactPlan, error) {
	now := p.now()

	destDir := filepath.Join(p.root,
		fmt.Sprintf("%04d", now.Year()),
		fmt.Sprintf("%02d", now.Month()),
		fmt.Sprintf("%02d", now.Day()),
	)

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, NewStorageError(
			fmt.Sprintf("failed to create archive directory %s", destDir), err)
	}

	base := fmt.Sprintf("%s_%s", p.database, now.Format(TimestampFormat))
	artifactPath := filepath.Join(destDir, base+"."+p.extension)

	// Same-second collision: disambiguate with a numeric suffix rather than
	// overwrite an existing artifact.
	for i := 1; pathExists(artifactPath); i++ {
		artifactPath = filepath.Join(destDir, fmt.Sprintf("%s_%d.%s", base, i, p.extension))
	}

	return &ArtifactPlan{
		DestDir:      destDir,
		ArtifactPath: artifactPath,
		Timestamp:    now,
	}, nil
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
