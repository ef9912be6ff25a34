package database

import (
	"io"

	"stegodb/pkg/buffer"
	"stegodb/pkg/cursor"
	"stegodb/pkg/entry"
)

// IndexType enumerates the kinds of indexes a table can be backed by.
type IndexType string

const (
	BTreeIndexType IndexType = "btree"
)

// Index interface.
type Index interface {
	Close() error
	GetName() string
	GetPool() *buffer.Manager
	Find(int64) (entry.Entry, error)
	Insert(int64, int64) error
	Update(int64, int64) error
	Delete(int64) error
	Select() ([]entry.Entry, error)
	SelectRange(int64, int64) ([]entry.Entry, error)
	Print(io.Writer)
	PrintPN(int, io.Writer)
	CursorAtStart() (cursor.Cursor, error)
	CheckInvariants() error
}
