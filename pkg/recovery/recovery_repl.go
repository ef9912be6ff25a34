package recovery

import (
	"fmt"
	"strconv"
	"strings"

	"stegodb/pkg/database"
	"stegodb/pkg/repl"
)

// LoggedRepl builds the database REPL with every state-changing command
// writing a record through the log manager, plus a checkpoint command.
func LoggedRepl(db *database.Database, lm *LogManager) *repl.REPL {
	base := database.DatabaseRepl(db)
	r := repl.NewRepl()
	for trigger, command := range base.GetCommands() {
		switch trigger {
		case "create", "insert", "update", "delete":
			// Replaced with logged variants below.
		default:
			r.AddCommand(trigger, command, base.GetHelp()[trigger])
		}
	}

	r.AddCommand("create", func(payload string, replConfig *repl.REPLConfig) (string, error) {
		output, err := database.HandleCreateTable(db, payload)
		if err != nil {
			return "", err
		}
		fields := strings.Fields(payload)
		if _, lerr := lm.Table(fields[1], fields[3]); lerr != nil {
			return "", lerr
		}
		return output, nil
	}, "Create a table. usage: create btree table <table>")

	r.AddCommand("insert", func(payload string, replConfig *repl.REPLConfig) (string, error) {
		key, value, tableName, err := parseEdit(payload, "insert", 1, 2, 4)
		if err != nil {
			return "", err
		}
		if err = database.HandleInsert(db, payload); err != nil {
			return "", err
		}
		_, err = lm.Edit(replConfig.GetAddr(), tableName, INSERT_ACTION, key, 0, value)
		return "", err
	}, "Insert an element. usage: insert <key> <value> into <table>")

	r.AddCommand("update", func(payload string, replConfig *repl.REPLConfig) (string, error) {
		key, value, tableName, err := parseEdit(payload, "update", 2, 3, 1)
		if err != nil {
			return "", err
		}
		oldval, err := findOldValue(db, tableName, key)
		if err != nil {
			return "", err
		}
		if err = database.HandleUpdate(db, payload); err != nil {
			return "", err
		}
		_, err = lm.Edit(replConfig.GetAddr(), tableName, UPDATE_ACTION, key, oldval, value)
		return "", err
	}, "Update an element. usage: update <table> <key> <value>")

	r.AddCommand("delete", func(payload string, replConfig *repl.REPLConfig) (string, error) {
		fields := strings.Fields(payload)
		if len(fields) != 4 || fields[2] != "from" {
			return "", fmt.Errorf("usage: delete <key> from <table>")
		}
		key, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return "", fmt.Errorf("delete error: %v", err)
		}
		tableName := fields[3]
		oldval, err := findOldValue(db, tableName, key)
		if err != nil {
			return "", err
		}
		if err = database.HandleDelete(db, payload); err != nil {
			return "", err
		}
		_, err = lm.Edit(replConfig.GetAddr(), tableName, DELETE_ACTION, key, oldval, 0)
		return "", err
	}, "Delete an element. usage: delete <key> from <table>")

	r.AddCommand("checkpoint", func(payload string, replConfig *repl.REPLConfig) (string, error) {
		if err := CheckpointDatabase(db, lm); err != nil {
			return "", err
		}
		return "checkpoint complete\n", nil
	}, "Flush and snapshot the database. usage: checkpoint")

	return r
}

// parseEdit pulls the key, value and table name fields out of an insert or
// update command line.
func parseEdit(payload string, verb string, keyIdx, valIdx, tblIdx int) (int64, int64, string, error) {
	fields := strings.Fields(payload)
	maxIdx := keyIdx
	if valIdx > maxIdx {
		maxIdx = valIdx
	}
	if tblIdx > maxIdx {
		maxIdx = tblIdx
	}
	if len(fields) <= maxIdx {
		return 0, 0, "", fmt.Errorf("%s error: malformed command", verb)
	}
	key, err := strconv.ParseInt(fields[keyIdx], 10, 64)
	if err != nil {
		return 0, 0, "", fmt.Errorf("%s error: %v", verb, err)
	}
	value, err := strconv.ParseInt(fields[valIdx], 10, 64)
	if err != nil {
		return 0, 0, "", fmt.Errorf("%s error: %v", verb, err)
	}
	return key, value, fields[tblIdx], nil
}

// findOldValue looks up the value an edit is about to overwrite or delete.
func findOldValue(db *database.Database, tableName string, key int64) (int64, error) {
	table, err := db.GetTable(tableName)
	if err != nil {
		return 0, err
	}
	entry, err := table.Find(key)
	if err != nil {
		return 0, err
	}
	return entry.Value, nil
}
