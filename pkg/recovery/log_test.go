package recovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func tempLogFile(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "db.log")
}

func TestAppendAssignsAscendingLSNs(t *testing.T) {
	lm, err := NewLogManager(tempLogFile(t))
	require.NoError(t, err)
	defer lm.Close()

	lsn, err := lm.Table("btree", "t")
	require.NoError(t, err)
	require.EqualValues(t, 1, lsn)

	client := uuid.New()
	lsn, err = lm.Edit(client, "t", INSERT_ACTION, 5, 0, 50)
	require.NoError(t, err)
	require.EqualValues(t, 2, lsn)

	lsn, err = lm.Checkpoint()
	require.NoError(t, err)
	require.EqualValues(t, 3, lsn)
	require.EqualValues(t, 3, lm.LastLSN())
}

func TestReopenContinuesNumbering(t *testing.T) {
	filename := tempLogFile(t)
	lm, err := NewLogManager(filename)
	require.NoError(t, err)
	client := uuid.New()
	for i := int64(1); i <= 5; i++ {
		_, err = lm.Edit(client, "t", UPDATE_ACTION, i, i-1, i)
		require.NoError(t, err)
	}
	require.NoError(t, lm.Close())

	lm, err = NewLogManager(filename)
	require.NoError(t, err)
	defer lm.Close()
	require.EqualValues(t, 5, lm.LastLSN())
	lsn, err := lm.Checkpoint()
	require.NoError(t, err)
	require.EqualValues(t, 6, lsn)
}

func TestLogRoundTrip(t *testing.T) {
	client := uuid.New()
	records := []log{
		tableLog{lsn: 1, tblType: "btree", tblName: "accounts"},
		editLog{lsn: 2, id: client, tablename: "accounts", action: DELETE_ACTION, key: 7, oldval: 70, newval: 0},
		checkpointLog{lsn: 3},
	}
	for _, record := range records {
		parsed, err := logFromString(record.toString())
		require.NoError(t, err)
		require.Equal(t, record, parsed)
	}
}

func TestUnparseableLinesIgnoredOnReopen(t *testing.T) {
	filename := tempLogFile(t)
	require.NoError(t, os.WriteFile(filename, []byte("garbage\nmore garbage\n"), 0666))
	lm, err := NewLogManager(filename)
	require.NoError(t, err)
	defer lm.Close()
	require.EqualValues(t, 0, lm.LastLSN())
}
