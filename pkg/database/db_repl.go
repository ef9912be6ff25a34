package database

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"stegodb/pkg/entry"
	"stegodb/pkg/repl"
)

// DatabaseRepl creates a DB Repl for the given database.
func DatabaseRepl(db *Database) *repl.REPL {
	r := repl.NewRepl()
	r.AddCommand("create", func(payload string, replConfig *repl.REPLConfig) (string, error) {
		return HandleCreateTable(db, payload)
	}, "Create a table. usage: create btree table <table>")

	r.AddCommand("find", func(payload string, replConfig *repl.REPLConfig) (string, error) {
		return HandleFind(db, payload)
	}, "Find an element. usage: find <key> from <table>")

	r.AddCommand("insert", func(payload string, replConfig *repl.REPLConfig) (string, error) {
		return "", HandleInsert(db, payload)
	}, "Insert an element. usage: insert <key> <value> into <table>")

	r.AddCommand("update", func(payload string, replConfig *repl.REPLConfig) (string, error) {
		return "", HandleUpdate(db, payload)
	}, "Update an element. usage: update <table> <key> <value>")

	r.AddCommand("delete", func(payload string, replConfig *repl.REPLConfig) (string, error) {
		return "", HandleDelete(db, payload)
	}, "Delete an element. usage: delete <key> from <table>")

	r.AddCommand("select", func(payload string, replConfig *repl.REPLConfig) (string, error) {
		return HandleSelect(db, payload)
	}, "Select elements from a table. usage: select from <table>")

	r.AddCommand("range", func(payload string, replConfig *repl.REPLConfig) (string, error) {
		return HandleSelectRange(db, payload)
	}, "Select a key range. usage: range <start> <end> from <table>")

	r.AddCommand("pretty", func(payload string, replConfig *repl.REPLConfig) (string, error) {
		return HandlePretty(db, payload)
	}, "Print out the internal data representation. usage: pretty <optional pagenumber> from <table>")

	r.AddCommand("verify", func(payload string, replConfig *repl.REPLConfig) (string, error) {
		return HandleVerify(db, payload)
	}, "Check the structural invariants of a table. usage: verify <table>")

	return r
}

// HandleCreateTable handles the create command.
func HandleCreateTable(d *Database, payload string) (output string, err error) {
	fields := strings.Fields(payload)
	// Usage: create btree table <table>
	if len(fields) != 4 || fields[1] != string(BTreeIndexType) || fields[2] != "table" {
		return "", fmt.Errorf("usage: create btree table <table>")
	}
	tableName := fields[3]
	if _, err = d.CreateTable(tableName, IndexType(fields[1])); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s table %s created.\n", fields[1], tableName), nil
}

// HandleFind handles the find command.
func HandleFind(d *Database, payload string) (output string, err error) {
	fields := strings.Fields(payload)
	// Usage: find <key> from <table>
	var key int
	if len(fields) != 4 || fields[2] != "from" {
		return "", fmt.Errorf("usage: find <key> from <table>")
	}
	if key, err = strconv.Atoi(fields[1]); err != nil {
		return "", fmt.Errorf("find error: %v", err)
	}
	table, err := d.GetTable(fields[3])
	if err != nil {
		return "", fmt.Errorf("find error: %v", err)
	}
	entry, err := table.Find(int64(key))
	if err != nil {
		return "", fmt.Errorf("find error: %v", err)
	}
	return fmt.Sprintf("found entry: (%d, %d)\n", entry.Key, entry.Value), nil
}

// HandleInsert handles the insert command.
func HandleInsert(d *Database, payload string) (err error) {
	fields := strings.Fields(payload)
	// Usage: insert <key> <value> into <table>
	var key, value int
	if len(fields) != 5 || fields[3] != "into" {
		return fmt.Errorf("usage: insert <key> <value> into <table>")
	}
	if key, err = strconv.Atoi(fields[1]); err != nil {
		return fmt.Errorf("insert error: %v", err)
	}
	if value, err = strconv.Atoi(fields[2]); err != nil {
		return fmt.Errorf("insert error: %v", err)
	}
	table, err := d.GetTable(fields[4])
	if err != nil {
		return fmt.Errorf("insert error: %v", err)
	}
	if err = table.Insert(int64(key), int64(value)); err != nil {
		return fmt.Errorf("insert error: %v", err)
	}
	return nil
}

// HandleUpdate handles the update command.
func HandleUpdate(d *Database, payload string) (err error) {
	fields := strings.Fields(payload)
	// Usage: update <table> <key> <value>
	var key, value int
	if len(fields) != 4 {
		return fmt.Errorf("usage: update <table> <key> <value>")
	}
	if key, err = strconv.Atoi(fields[2]); err != nil {
		return fmt.Errorf("update error: %v", err)
	}
	if value, err = strconv.Atoi(fields[3]); err != nil {
		return fmt.Errorf("update error: %v", err)
	}
	table, err := d.GetTable(fields[1])
	if err != nil {
		return fmt.Errorf("update error: %v", err)
	}
	if err = table.Update(int64(key), int64(value)); err != nil {
		return fmt.Errorf("update error: %v", err)
	}
	return nil
}

// HandleDelete handles the delete command.
func HandleDelete(d *Database, payload string) (err error) {
	fields := strings.Fields(payload)
	// Usage: delete <key> from <table>
	var key int
	if len(fields) != 4 || fields[2] != "from" {
		return fmt.Errorf("usage: delete <key> from <table>")
	}
	if key, err = strconv.Atoi(fields[1]); err != nil {
		return fmt.Errorf("delete error: %v", err)
	}
	table, err := d.GetTable(fields[3])
	if err != nil {
		return fmt.Errorf("delete error: %v", err)
	}
	if err = table.Delete(int64(key)); err != nil {
		return fmt.Errorf("delete error: %v", err)
	}
	return nil
}

// HandleSelect handles the select command.
func HandleSelect(d *Database, payload string) (output string, err error) {
	fields := strings.Fields(payload)
	w := new(strings.Builder)
	// Usage: select from <table>
	if len(fields) != 3 || fields[1] != "from" {
		return "", fmt.Errorf("usage: select from <table>")
	}
	table, err := d.GetTable(fields[2])
	if err != nil {
		return "", fmt.Errorf("select error: %v", err)
	}
	var results []entry.Entry
	if results, err = table.Select(); err != nil {
		return "", err
	}
	printResults(results, w)
	return w.String(), nil
}

// HandleSelectRange handles the range command.
func HandleSelectRange(d *Database, payload string) (output string, err error) {
	fields := strings.Fields(payload)
	w := new(strings.Builder)
	// Usage: range <start> <end> from <table>
	var start, end int
	if len(fields) != 5 || fields[3] != "from" {
		return "", fmt.Errorf("usage: range <start> <end> from <table>")
	}
	if start, err = strconv.Atoi(fields[1]); err != nil {
		return "", fmt.Errorf("range error: %v", err)
	}
	if end, err = strconv.Atoi(fields[2]); err != nil {
		return "", fmt.Errorf("range error: %v", err)
	}
	table, err := d.GetTable(fields[4])
	if err != nil {
		return "", fmt.Errorf("range error: %v", err)
	}
	results, err := table.SelectRange(int64(start), int64(end))
	if err != nil {
		return "", fmt.Errorf("range error: %v", err)
	}
	printResults(results, w)
	return w.String(), nil
}

// HandlePretty handles pretty printing.
func HandlePretty(d *Database, payload string) (output string, err error) {
	fields := strings.Fields(payload)
	w := new(strings.Builder)
	// Usage: pretty <optional pagenumber> from <table>
	if len(fields) == 3 && fields[1] == "from" {
		table, err := d.GetTable(fields[2])
		if err != nil {
			return "", fmt.Errorf("pretty error: %v", err)
		}
		table.Print(w)
	} else if len(fields) == 4 && fields[2] == "from" {
		var pn int
		if pn, err = strconv.Atoi(fields[1]); err != nil {
			return "", fmt.Errorf("pretty error: %v", err)
		}
		table, err := d.GetTable(fields[3])
		if err != nil {
			return "", fmt.Errorf("pretty error: %v", err)
		}
		table.PrintPN(pn, w)
	} else {
		return "", fmt.Errorf("usage: pretty <optional pagenumber> from <table>")
	}
	return w.String(), nil
}

// HandleVerify handles the verify command.
func HandleVerify(d *Database, payload string) (output string, err error) {
	fields := strings.Fields(payload)
	// Usage: verify <table>
	if len(fields) != 2 {
		return "", fmt.Errorf("usage: verify <table>")
	}
	table, err := d.GetTable(fields[1])
	if err != nil {
		return "", fmt.Errorf("verify error: %v", err)
	}
	if err = table.CheckInvariants(); err != nil {
		return "", fmt.Errorf("verify error: %v", err)
	}
	return "ok\n", nil
}

// printResults prints all given entries in a standard format.
func printResults(entries []entry.Entry, w io.Writer) {
	for _, entry := range entries {
		io.WriteString(w, fmt.Sprintf("(%v, %v)\n", entry.Key, entry.Value))
	}
}
