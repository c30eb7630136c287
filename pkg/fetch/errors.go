package fetch

import (
	"fmt"
)

// ErrorClass represents a classification of fetch failures.
type ErrorClass string

const (
	// ErrorClassNetwork represents transport failures, unreadable bodies and
	// unusable URLs.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassClient represents 4xx responses.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx responses.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassStatus represents any other non-2xx response.
	ErrorClassStatus ErrorClass = "status"
)

// Error is returned by Fetch for every failed attempt.
type Error struct {
	Class      ErrorClass
	StatusCode int

	// Path is the fragment path passed to Fetch
	Path string

	// URL is the resolved request URL, empty when Path could not be resolved
	URL string

	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	target := e.URL
	if target == "" {
		target = e.Path
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: %s error (status %d)", target, e.Class, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %s error: %v", target, e.Class, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsStatus reports whether the failure came from a non-2xx response.
func (e *Error) IsStatus() bool {
	return e.Class != ErrorClassNetwork
}

// classifyStatus maps a non-2xx status code to its error class.
func classifyStatus(statusCode int) ErrorClass {
	switch {
	case statusCode >= 400 && statusCode < 500:
		return ErrorClassClient
	case statusCode >= 500 && statusCode < 600:
		return ErrorClassServer
	default:
		return ErrorClassStatus
	}
}
