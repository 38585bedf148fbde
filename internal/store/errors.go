package store

import (
	"errors"
	"fmt"
)

// StorageError reports a failed read or write at the persistence boundary
type StorageError struct {
	Op  string
	Key string
	ID  string
	Err error
}

func (e *StorageError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s (%s): %v", e.Op, e.Key, e.ID, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorageError reports whether err wraps a StorageError
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
