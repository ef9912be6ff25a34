package entry

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Entry is a fixed-width key-value pair; the unit of data stored in the
// leaves of a B+Tree index.
type Entry struct {
	Key   int64
	Value int64
}

// New constructs and returns a new Entry with the specified key and value.
func New(key int64, value int64) Entry {
	return Entry{key, value}
}

// Marshal serializes a given entry into a byte array.
func (entry Entry) Marshal() []byte {
	newdata := make([]byte, 2*binary.MaxVarintLen64)
	binary.PutVarint(newdata[:binary.MaxVarintLen64], entry.Key)
	binary.PutVarint(newdata[binary.MaxVarintLen64:], entry.Value)
	return newdata
}

// UnmarshalEntry deserializes a byte array into an entry.
func UnmarshalEntry(data []byte) Entry {
	k, _ := binary.Varint(data[:len(data)/2])
	v, _ := binary.Varint(data[len(data)/2:])
	return Entry{Key: k, Value: v}
}

// Print writes the entry to the specified writer in the following format: (<key>, <value>),
func (entry Entry) Print(w io.Writer) {
	fmt.Fprintf(w, "(%d, %d), ", entry.Key, entry.Value)
}
