package blog

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrStorage     = errors.New("storage_error")
	ErrNotFound    = errors.New("not_found")
	ErrDuplicateID = errors.New("duplicate_id")
	ErrInvalidID   = errors.New("invalid_id")
)

// TransportError means no response was received from the remote store.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RemoteError means the remote store answered outside the 2xx range.
type RemoteError struct {
	Op         string
	StatusCode int
	Body       []byte
	Header     http.Header
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: remote store answered %d %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode))
}

// Is lets callers match a 404 rejection against ErrNotFound.
func (e *RemoteError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}
