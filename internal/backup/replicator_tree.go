package backup

import (
	"io/fs"
	"path/filepath"
	"sort"
)

// treeEntry describes one local artifact as seen by the object-store
// replicators: its key relative to the archive root (forward slashes) and
// its size for cheap change detection.
type treeEntry struct {
	Path string // absolute local path
	Key  string // relative key, e.g. "2024/01/02/appdb_....sql.gz"
	Size int64
}

// indexLocalTree walks the archive root and returns every regular file as a
// replication entry, in deterministic key order. The whole tree is mirrored,
// audit log included, so the remote copy is a faithful mirror of local state.
func indexLocalTree(root string) ([]treeEntry, error) {
	var entries []treeEntry
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}

		entries = append(entries, treeEntry{
			Path: path,
			Key:  filepath.ToSlash(rel),
			Size: info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, NewStorageError("failed to index local archive tree", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

// diffTrees computes which local entries must be uploaded (missing remotely
// or different size) and which remote keys have no local counterpart.
func diffTrees(local []treeEntry, remote map[string]int64) (toUpload []treeEntry, remoteOnly []string) {
	localKeys := make(map[string]struct{}, len(local))
	for _, entry := range local {
		localKeys[entry.Key] = struct{}{}
		if size, ok := remote[entry.Key]; !ok || size != entry.Size {
			toUpload = append(toUpload, entry)
		}
	}

	for key := range remote {
		if _, ok := localKeys[key]; !ok {
			remoteOnly = append(remoteOnly, key)
		}
	}
	sort.Strings(remoteOnly)
	return toUpload, remoteOnly
}
