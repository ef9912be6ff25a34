package database_test

import (
	"os"
	"strconv"
	"testing"

	"stegodb/pkg/database"

	"github.com/stretchr/testify/require"
)

// setupDatabase opens a database in a scratch folder next to the test's
// working directory (data files need a filesystem with O_DIRECT support).
func setupDatabase(t *testing.T) *database.Database {
	t.Helper()
	folder, err := os.MkdirTemp(".", "dbtest-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(folder) })
	db, err := database.Open(folder)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCreateAndGetTable(t *testing.T) {
	db := setupDatabase(t)
	_, err := db.CreateTable("t", database.BTreeIndexType)
	require.NoError(t, err)
	// Creating the same table twice fails.
	_, err = db.CreateTable("t", database.BTreeIndexType)
	require.Error(t, err)
	// Non-alphanumeric names are rejected.
	_, err = db.CreateTable("bad name", database.BTreeIndexType)
	require.Error(t, err)

	table, err := db.GetTable("t")
	require.NoError(t, err)
	require.Equal(t, "t", table.GetName())
	_, err = db.GetTable("missing")
	require.Error(t, err)
}

func TestHandlersRoundTrip(t *testing.T) {
	db := setupDatabase(t)
	_, err := database.HandleCreateTable(db, "create btree table t")
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		require.NoError(t, database.HandleInsert(db, "insert "+itoa(i)+" "+itoa(i*10)+" into t"))
	}
	require.Error(t, database.HandleInsert(db, "insert 3 99 into t"))

	out, err := database.HandleFind(db, "find 3 from t")
	require.NoError(t, err)
	require.Contains(t, out, "(3, 30)")

	require.NoError(t, database.HandleUpdate(db, "update t 3 33"))
	out, err = database.HandleFind(db, "find 3 from t")
	require.NoError(t, err)
	require.Contains(t, out, "(3, 33)")

	require.NoError(t, database.HandleDelete(db, "delete 2 from t"))
	out, err = database.HandleSelect(db, "select from t")
	require.NoError(t, err)
	require.Equal(t, "(1, 10)\n(3, 33)\n(4, 40)\n(5, 50)\n", out)
}

func TestVerifyHandler(t *testing.T) {
	db := setupDatabase(t)
	_, err := database.HandleCreateTable(db, "create btree table t")
	require.NoError(t, err)
	for i := 1; i <= 100; i++ {
		require.NoError(t, database.HandleInsert(db, "insert "+itoa(i)+" "+itoa(i)+" into t"))
	}
	out, err := database.HandleVerify(db, "verify t")
	require.NoError(t, err)
	require.Contains(t, out, "ok")
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
