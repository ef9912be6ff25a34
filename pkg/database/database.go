// Package database manages a folder of named indexes and the command
// handlers that drive them.
package database

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"stegodb/pkg/btree"

	"go.uber.org/zap"
)

// Database interface.
type Database struct {
	basepath string
	tables   map[string]Index
	logger   *zap.Logger
}

// Open opens a database given a data folder, creating the folder if needed.
func Open(folder string) (*Database, error) {
	return OpenWithLogger(folder, zap.NewNop())
}

// OpenWithLogger is Open with a logger attached for operational events.
func OpenWithLogger(folder string, logger *zap.Logger) (*Database, error) {
	// Ensure folder is of the form */
	if !strings.HasSuffix(folder, "/") {
		folder += "/"
	}
	// Make the data directory.
	err := os.MkdirAll(folder, 0775)
	if err != nil {
		return nil, err
	}
	return &Database{
		basepath: folder,
		tables:   make(map[string]Index),
		logger:   logger,
	}, nil
}

// Close each table in the database, then close the database.
func (db *Database) Close() (err error) {
	for name, table := range db.tables {
		curErr := table.Close()
		if curErr != nil {
			db.logger.Error("failed to close table",
				zap.String("table", name), zap.Error(curErr))
		}
		if err == nil {
			err = curErr
		}
	}
	return err
}

// CreateLogFile creates a log file for the database if one doesn't exist yet.
func (db *Database) CreateLogFile(filename string) error {
	if _, err := os.Stat(filename); err == nil {
		return nil
	}
	file, err := os.OpenFile(filename, os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		return err
	}
	return file.Close()
}

// CreateTable creates a table with the given type.
func (db *Database) CreateTable(name string, indexType IndexType) (index Index, err error) {
	// Ensure the table name is alphanumeric.
	alphanumeric, _ := regexp.Compile(`\W`)
	if alphanumeric.MatchString(name) {
		return nil, errors.New("table name must be alphanumeric")
	}
	// Refuse if a backing file already exists.
	path := filepath.Join(db.basepath, name)
	if _, err := os.Stat(path); err == nil {
		return nil, errors.New("table already exists")
	}
	switch indexType {
	case BTreeIndexType:
		index, err = btree.OpenIndex(path)
		if err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("invalid index type")
	}
	db.logger.Info("created table",
		zap.String("table", name), zap.String("type", string(indexType)))
	db.tables[name] = index
	return index, nil
}

// GetTable returns a table by its name, either from the set of open tables,
// or by opening its backing file from disk.
func (db *Database) GetTable(name string) (index Index, err error) {
	if idx, ok := db.tables[name]; ok {
		return idx, nil
	}
	path := filepath.Join(db.basepath, name)
	if _, err := os.Stat(path); err != nil {
		return nil, errors.New("table not found")
	}
	index, err = btree.OpenIndex(path)
	if err != nil {
		return nil, err
	}
	db.tables[name] = index
	return index, nil
}

// GetTables returns the database's open tables.
func (db *Database) GetTables() map[string]Index {
	return db.tables
}

// GetBasePath returns the basepath of the database.
func (db *Database) GetBasePath() string {
	return db.basepath
}

// FlushAll checkpoints every open table's buffer pool to disk.
func (db *Database) FlushAll() error {
	var firstErr error
	for name, table := range db.tables {
		if err := table.GetPool().Checkpoint(); err != nil {
			db.logger.Error("failed to flush table",
				zap.String("table", name), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
