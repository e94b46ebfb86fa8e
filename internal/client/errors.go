package client

import (
	"errors"
	"fmt"
)

// Sentinel kinds for client errors.
var (
	ErrInvalidTier  = errors.New("invalid tier spec")
	ErrImportFailed = errors.New("import failed")
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("http %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("http %d %s: %s", e.Status, e.Code, e.Message)
}
