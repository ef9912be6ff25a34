package recovery_test

import (
	"os"
	"path/filepath"
	"testing"

	"stegodb/pkg/config"
	"stegodb/pkg/database"
	"stegodb/pkg/recovery"

	"github.com/stretchr/testify/require"
)

// setupFolder picks a scratch database folder next to the test's working
// directory and cleans up both it and its checkpoint snapshot.
func setupFolder(t *testing.T) string {
	t.Helper()
	folder, err := os.MkdirTemp(".", "rectest-*")
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(folder))
	t.Cleanup(func() {
		os.RemoveAll(folder)
		os.RemoveAll(filepath.Clean(folder) + "-recovery")
	})
	return folder
}

func TestCheckpointAndPrime(t *testing.T) {
	folder := setupFolder(t)
	db, err := recovery.Prime(folder)
	require.NoError(t, err)
	logFilename := filepath.Join(db.GetBasePath(), config.LogFileName)
	require.NoError(t, db.CreateLogFile(logFilename))
	lm, err := recovery.NewLogManager(logFilename)
	require.NoError(t, err)

	_, err = database.HandleCreateTable(db, "create btree table t")
	require.NoError(t, err)
	for _, cmd := range []string{"insert 1 10 into t", "insert 2 20 into t"} {
		require.NoError(t, database.HandleInsert(db, cmd))
	}
	require.NoError(t, recovery.CheckpointDatabase(db, lm))
	require.NoError(t, db.Close())
	require.NoError(t, lm.Close())

	// Priming again restores the checkpointed state.
	db, err = recovery.Prime(folder)
	require.NoError(t, err)
	defer db.Close()
	out, err := database.HandleFind(db, "find 2 from t")
	require.NoError(t, err)
	require.Contains(t, out, "(2, 20)")

	// The log survived the restore and keeps its LSN numbering.
	lm, err = recovery.NewLogManager(filepath.Join(db.GetBasePath(), config.LogFileName))
	require.NoError(t, err)
	defer lm.Close()
	require.EqualValues(t, 1, lm.LastLSN())
}
