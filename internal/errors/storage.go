package errors

import (
	stdErrors "errors"
	"fmt"
)

// StorageUnavailableError is returned when the backing database cannot be opened
// or an operation is attempted while the store is closed.
type StorageUnavailableError struct {
	Path string
	Err  error
}

func (e *StorageUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("storage unavailable: %s", e.Path)
	}
	return fmt.Sprintf("storage unavailable: %s: %v", e.Path, e.Err)
}

func (e *StorageUnavailableError) Unwrap() error {
	return e.Err
}

// NewStorageUnavailableError wraps cause as a StorageUnavailableError for path.
func NewStorageUnavailableError(path string, cause error) *StorageUnavailableError {
	return &StorageUnavailableError{Path: path, Err: cause}
}

// IsStorageUnavailable reports whether err is a StorageUnavailableError (even when wrapped).
func IsStorageUnavailable(err error) bool {
	var storageErr *StorageUnavailableError
	return stdErrors.As(err, &storageErr)
}

// RecordNotFoundError reports that no movie exists with the given id.
// Update and delete treat this as a benign no-op.
type RecordNotFoundError struct {
	ID int64
}

func (e *RecordNotFoundError) Error() string {
	return fmt.Sprintf("movie %d not found", e.ID)
}

// NewRecordNotFoundError creates a RecordNotFoundError for id.
func NewRecordNotFoundError(id int64) *RecordNotFoundError {
	return &RecordNotFoundError{ID: id}
}

// IsRecordNotFound reports whether err is a RecordNotFoundError (even when wrapped).
func IsRecordNotFound(err error) bool {
	var notFound *RecordNotFoundError
	return stdErrors.As(err, &notFound)
}

// ErrCursorClosed is returned by every cursor method called after Close,
// including a second Close. Seeing it means a cursor was used incorrectly.
var ErrCursorClosed = stdErrors.New("cursor is closed")

// IsCursorClosed reports whether err is or wraps ErrCursorClosed.
func IsCursorClosed(err error) bool {
	return stdErrors.Is(err, ErrCursorClosed)
}
