package storage

import (
	"fmt"
	"os"
)

// snapshotSidecars are the files SQLite keeps next to a database in WAL mode.
var snapshotSidecars = []string{"", "-wal", "-shm"}

// SnapshotBytes returns the on-disk size of a SQLite snapshot including its
// write-ahead log and shared-memory files. Files that do not exist count as
// zero, so a missing snapshot is 0 bytes.
func SnapshotBytes(dbPath string) (int64, error) {
	var total int64
	for _, suffix := range snapshotSidecars {
		info, err := os.Stat(dbPath + suffix)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return 0, err
		}
		if info.IsDir() {
			return 0, fmt.Errorf("snapshot path %s is a directory", dbPath+suffix)
		}
		total += info.Size()
	}
	return total, nil
}
