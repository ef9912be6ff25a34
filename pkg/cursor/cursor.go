// Package cursor defines the interface for iterating over an index's entries
// in ascending key order.
package cursor

import (
	"stegodb/pkg/entry"
)

// Cursor is an iterator over an index's entries. A cursor pins (and read
// latches) the page it is pointing into, so it must be closed after use.
type Cursor interface {
	// Next moves the cursor ahead by one entry. Returns true at the end of the index.
	Next() (atEnd bool)
	// GetEntry returns the entry currently pointed to by the cursor.
	GetEntry() (entry.Entry, error)
	// Close releases the cursor's hold on the index's pages.
	Close()
}
