package types

import "time"

// ObjectInfo describes an object discovered by listing a store
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// RawObject is the fetched content of a single object.
// It is owned by the stage currently processing it and is never retained after parsing.
type RawObject struct {
	Key  string
	Data []byte
}
