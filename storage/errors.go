package storage

import "errors"

// Error kinds returned by store operations. Every error is terminal and
// reported directly to the caller; the store never retries and never needs
// rollback because validation precedes any mutation.
var (
	ErrFileNotFound      = errors.New("file not found")
	ErrFileAlreadyExists = errors.New("file already exists")
	ErrInvalidOperation  = errors.New("invalid operation")
	ErrStorageLimit      = errors.New("storage limit exceeded")
	ErrInvalidFileType   = errors.New("invalid file type")
	ErrSystem            = errors.New("system error")
)
