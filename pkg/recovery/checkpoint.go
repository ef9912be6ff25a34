package recovery

import (
	"os"
	"path/filepath"
	"strings"

	"stegodb/pkg/config"
	"stegodb/pkg/database"

	"github.com/otiai10/copy"
	"github.com/pkg/errors"
)

// CheckpointDatabase flushes every open table's buffer pool to disk, writes a
// checkpoint record, and snapshots the data folder so Prime can restore from
// it after a crash.
func CheckpointDatabase(db *database.Database, lm *LogManager) error {
	if err := db.FlushAll(); err != nil {
		return errors.Wrap(err, "flushing tables for checkpoint")
	}
	if _, err := lm.Checkpoint(); err != nil {
		return err
	}
	return delta(db.GetBasePath())
}

// delta copies the entire database folder to a backup recovery folder.
// Should be called at the end of a checkpoint.
func delta(folder string) error {
	folder = strings.TrimSuffix(folder, "/")
	recoveryFolder := folder + "-recovery/"
	os.RemoveAll(recoveryFolder)
	return errors.Wrap(copy.Copy(folder+"/", recoveryFolder), "snapshotting data folder")
}

// Prime readies the database folder for opening. If a checkpoint snapshot
// exists, the data folder is replaced with it (keeping the newer log file);
// otherwise the folder is opened as-is.
func Prime(folder string) (*database.Database, error) {
	base := filepath.Clean(folder)
	recoveryFolder := base + "-recovery/"
	dbFolder := base + "/"

	// If no snapshot exists yet, create its folder and open the db as normal.
	if _, err := os.Stat(recoveryFolder); err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(recoveryFolder, 0775); err != nil {
				return nil, err
			}
			return database.Open(dbFolder)
		}
		return nil, err
	}

	// A snapshot exists; replace the db folder with it. The log file may be
	// newer than the snapshot, so carry it over.
	logSrcPath := filepath.Join(base, config.LogFileName)
	if _, err := os.Stat(logSrcPath); err == nil {
		logDstPath := filepath.Join(recoveryFolder, config.LogFileName)
		if err = copy.Copy(logSrcPath, logDstPath); err != nil {
			return nil, errors.Wrap(err, "carrying log file into snapshot")
		}
	}
	os.RemoveAll(dbFolder)
	if err := copy.Copy(recoveryFolder, dbFolder); err != nil {
		return nil, errors.Wrap(err, "restoring data folder from snapshot")
	}
	return database.Open(dbFolder)
}
