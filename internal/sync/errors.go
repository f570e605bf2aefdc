package sync

import "fmt"

// FilesystemError reports a local tree that cannot be read.
type FilesystemError struct {
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("filesystem %s: %v", e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }

// UploadError reports a single failed upload. It never aborts a run.
type UploadError struct {
	Key string
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Key, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// InvalidationError reports a failed edge cache purge. Uploads stay live.
type InvalidationError struct {
	Err error
}

func (e *InvalidationError) Error() string {
	return fmt.Sprintf("invalidation: %v", e.Err)
}

func (e *InvalidationError) Unwrap() error { return e.Err }
