// Package recovery carries the durability hooks of the storage engine: an
// append-only operation log with monotonically increasing LSNs, and
// whole-folder checkpoint snapshots. Replaying the log to recover individual
// transactions is out of scope; the log manager is a collaborator that other
// components can rely on for ordering and durability of their records.
package recovery

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/google/uuid"
)

/*
   Logs come in the following forms:

   TABLE log -- create a table:
   < lsn, create tblType table tblName >

   EDIT log -- actions that modify database state:
   < lsn, client, table, INSERT|DELETE|UPDATE, key, oldval, newval >

   CHECKPOINT log -- the database was flushed and snapshotted:
   < lsn, checkpoint >
*/

// Interface that all log structs share.
type log interface {
	toString() string // Serializes the log to a string
	getLSN() int64
}

// Log for creating a table.
type tableLog struct {
	lsn     int64
	tblType string // The type of table created
	tblName string // The name of the table created
}

func (tl tableLog) toString() string {
	return fmt.Sprintf("< %d, create %s table %s >\n", tl.lsn, tl.tblType, tl.tblName)
}

func (tl tableLog) getLSN() int64 { return tl.lsn }

// The type of edit action. Either insert, delete, or update.
type action string

const (
	INSERT_ACTION action = "INSERT"
	UPDATE_ACTION action = "UPDATE"
	DELETE_ACTION action = "DELETE"
)

// Log for making a change to a database entry.
type editLog struct {
	lsn       int64
	id        uuid.UUID // The id of the client that made the edit
	tablename string    // The name of the table where the edit took place
	action    action    // The type of edit action taken
	key       int64     // The key of the entry that was edited
	oldval    int64     // The old value before the edit
	newval    int64     // The new value after the edit
}

func (el editLog) toString() string {
	return fmt.Sprintf("< %d, %s, %s, %s, %v, %v, %v >\n",
		el.lsn, el.id.String(), el.tablename, el.action, el.key, el.oldval, el.newval)
}

func (el editLog) getLSN() int64 { return el.lsn }

// Log for making a checkpoint.
type checkpointLog struct {
	lsn int64
}

func (cl checkpointLog) toString() string {
	return fmt.Sprintf("< %d, checkpoint >\n", cl.lsn)
}

func (cl checkpointLog) getLSN() int64 { return cl.lsn }

// Regex pattern for a uuid
const uuidPattern = "[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}"

var tableExp = regexp.MustCompile(`< (?P<lsn>\d+), create (?P<tblType>\w+) table (?P<tblName>\w+) >`)
var editExp = regexp.MustCompile(fmt.Sprintf(`< (?P<lsn>\d+), (?P<uuid>%s), (?P<table>\w+), (?P<action>UPDATE|INSERT|DELETE), (?P<key>-?\d+), (?P<oldval>-?\d+), (?P<newval>-?\d+) >`, uuidPattern))
var checkpointExp = regexp.MustCompile(`< (?P<lsn>\d+), checkpoint >`)

// logFromString converts the textual representation of a log to its
// respective struct. Returns an error if the string could not be parsed.
func logFromString(s string) (log, error) {
	switch {
	case tableExp.MatchString(s):
		expStrs := tableExp.FindStringSubmatch(s)
		lsn, _ := strconv.ParseInt(expStrs[1], 10, 64)
		return tableLog{
			lsn:     lsn,
			tblType: expStrs[2],
			tblName: expStrs[3],
		}, nil
	case editExp.MatchString(s):
		expStrs := editExp.FindStringSubmatch(s)
		lsn, _ := strconv.ParseInt(expStrs[1], 10, 64)
		key, _ := strconv.ParseInt(expStrs[5], 10, 64)
		oldval, _ := strconv.ParseInt(expStrs[6], 10, 64)
		newval, _ := strconv.ParseInt(expStrs[7], 10, 64)
		return editLog{
			lsn:       lsn,
			id:        uuid.MustParse(expStrs[2]),
			tablename: expStrs[3],
			action:    action(expStrs[4]),
			key:       key,
			oldval:    oldval,
			newval:    newval,
		}, nil
	case checkpointExp.MatchString(s):
		expStrs := checkpointExp.FindStringSubmatch(s)
		lsn, _ := strconv.ParseInt(expStrs[1], 10, 64)
		return checkpointLog{lsn: lsn}, nil
	default:
		return nil, errors.New("could not parse log")
	}
}
