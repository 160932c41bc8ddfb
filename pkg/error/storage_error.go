package error

import (
	"errors"
	"net/http"
)

// StorageError marks a row-store or blob-store failure.
type StorageError string

func (err StorageError) Error() string {
	return string(err)
}

func (err StorageError) ErrCode() string {
	return "STORAGE_ERROR"
}

func (err StorageError) StatusCode() int {
	return http.StatusInternalServerError
}

// IsStorage reports whether err comes from a storage backend.
func IsStorage(err error) bool {
	var storageErr StorageError
	return errors.As(err, &storageErr)
}
