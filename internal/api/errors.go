package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrInvalidID is returned for ids that cannot name a resource path
// segment: empty, ".", ".." or containing "/".
var ErrInvalidID = errors.New("api: invalid id")

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Status string
	Body   string // first bytes of the response body, for logs
}

func (e *StatusError) Error() string {
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("%s %s: %s", e.Method, e.Path, status)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

func IsNotFound(err error) bool { return IsStatus(err, http.StatusNotFound) }
