package sync

import (
	"encoding/hex"
	"time"
)

// LocalFile is a regular file found under the site root.
type LocalFile struct {
	// RelPath is slash separated and relative to the site root.
	RelPath string
	AbsPath string
	// Fingerprint is the MD5 sum of the file content, comparable with S3 ETags
	// of single part uploads.
	Fingerprint []byte
	Size        int64
}

// Hex returns the fingerprint as lower case hex.
func (f LocalFile) Hex() string {
	return hex.EncodeToString(f.Fingerprint)
}

// RemoteObject is a snapshot of one object from the bucket listing.
type RemoteObject struct {
	Key          string
	ETag         string
	Size         int64
	LastModified time.Time
}

// Listing maps object keys to their remote state.
type Listing map[string]RemoteObject

// Reason tells why an Action was planned.
type Reason int

const (
	ReasonNew Reason = iota + 1
	ReasonChanged
)

func (r Reason) String() string {
	switch r {
	case ReasonNew:
		return "new"
	case ReasonChanged:
		return "changed"
	default:
		return "unknown"
	}
}

// Action is a single planned upload.
type Action struct {
	Key          string
	File         LocalFile
	CacheControl string
	Reason       Reason
}

// Plan is the ordered list of uploads for one run, in walk order.
type Plan []Action

// Keys returns the object keys of the plan, in order.
func (p Plan) Keys() []string {
	keys := make([]string, len(p))
	for i, a := range p {
		keys[i] = a.Key
	}
	return keys
}

// Size returns the number of bytes the plan would upload.
func (p Plan) Size() (n int64) {
	for _, a := range p {
		n += a.File.Size
	}
	return
}
