package recovery

import (
	"io"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/icza/backscanner"
	"github.com/pkg/errors"
)

// LogManager appends operation records to the database's log file and hands
// out monotonically increasing LSNs. Every append is fsynced before the LSN
// is returned.
type LogManager struct {
	logFile *os.File
	nextLSN int64
	mtx     sync.Mutex // A mutex used for allowing safe concurrent use of this struct.
}

// NewLogManager opens (or creates) the log file at the given path and picks
// up LSN numbering where the last run left off.
func NewLogManager(logFilename string) (*LogManager, error) {
	logFile, err := os.OpenFile(logFilename, os.O_APPEND|os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		return nil, errors.Wrap(err, "opening log file")
	}
	last, err := lastLSN(logFile)
	if err != nil {
		logFile.Close()
		return nil, err
	}
	return &LogManager{
		logFile: logFile,
		nextLSN: last + 1,
	}, nil
}

// lastLSN scans the log file backwards for the most recent parseable record
// and returns its LSN, or 0 for an empty or unparseable log.
func lastLSN(file *os.File) (int64, error) {
	fstats, err := file.Stat()
	if err != nil {
		return 0, errors.Wrap(err, "stating log file")
	}
	if fstats.Size() == 0 {
		return 0, nil
	}
	scanner := backscanner.New(file, int(fstats.Size()))
	for {
		line, _, err := scanner.Line()
		if err != nil {
			if err == io.EOF {
				return 0, nil
			}
			return 0, errors.Wrap(err, "scanning log file")
		}
		if record, perr := logFromString(line); perr == nil {
			return record.getLSN(), nil
		}
	}
}

// flushLog serializes the specified log and immediately appends it to the end
// of the log file on disk. Expects lm.mtx to be locked.
func (lm *LogManager) flushLog(record log) error {
	if _, err := lm.logFile.WriteString(record.toString()); err != nil {
		return errors.Wrap(err, "appending log record")
	}
	return errors.Wrap(lm.logFile.Sync(), "syncing log file")
}

// append stamps the record's LSN, writes it out, and advances the counter.
func (lm *LogManager) append(build func(lsn int64) log) (int64, error) {
	lm.mtx.Lock()
	defer lm.mtx.Unlock()
	record := build(lm.nextLSN)
	if err := lm.flushLog(record); err != nil {
		return 0, err
	}
	lm.nextLSN++
	return record.getLSN(), nil
}

// Table records the creation of a table.
func (lm *LogManager) Table(tblType string, tblName string) (int64, error) {
	return lm.append(func(lsn int64) log {
		return tableLog{lsn: lsn, tblType: tblType, tblName: tblName}
	})
}

// Edit records an individual entry change (insert, update, deletion).
func (lm *LogManager) Edit(clientId uuid.UUID, tablename string, act action, key int64, oldval int64, newval int64) (int64, error) {
	return lm.append(func(lsn int64) log {
		return editLog{lsn: lsn, id: clientId, tablename: tablename, action: act, key: key, oldval: oldval, newval: newval}
	})
}

// Checkpoint records that the database was flushed and snapshotted.
func (lm *LogManager) Checkpoint() (int64, error) {
	return lm.append(func(lsn int64) log {
		return checkpointLog{lsn: lsn}
	})
}

// LastLSN returns the LSN of the most recently appended record, or 0 if no
// record has ever been written.
func (lm *LogManager) LastLSN() int64 {
	lm.mtx.Lock()
	defer lm.mtx.Unlock()
	return lm.nextLSN - 1
}

// Close closes the log file.
func (lm *LogManager) Close() error {
	lm.mtx.Lock()
	defer lm.mtx.Unlock()
	return lm.logFile.Close()
}
