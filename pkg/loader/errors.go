package loader

import (
	"errors"
	"fmt"

	"github.com/Sternrassler/fragment-loader/pkg/dom"
	"github.com/Sternrassler/fragment-loader/pkg/fetch"
)

// Kind classifies why a load or preload failed.
type Kind string

const (
	// KindInvalidPath is returned for an empty fragment path.
	KindInvalidPath Kind = "invalid_path"

	// KindNetwork covers transport failures and unreadable responses.
	KindNetwork Kind = "network"

	// KindStatus covers non-2xx responses.
	KindStatus Kind = "status"

	// KindTargetNotFound is returned when the document has no element with
	// the requested id. The fragment is cached regardless.
	KindTargetNotFound Kind = "target_not_found"

	// KindInject covers fragments the document could not accept.
	KindInject Kind = "inject"

	// KindCache covers cache backend failures on write.
	KindCache Kind = "cache"
)

// Error describes a failed Load, Preload or ClearCache.
type Error struct {
	Kind       Kind
	Path       string
	TargetID   string
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("load %q: %s", e.Path, e.Kind)
	if e.TargetID != "" {
		msg += fmt.Sprintf(" (target #%s)", e.TargetID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or "" if err is not a loader error.
func KindOf(err error) Kind {
	var loadErr *Error
	if errors.As(err, &loadErr) {
		return loadErr.Kind
	}
	return ""
}

// OK reports whether a Load or Preload succeeded.
func OK(err error) bool {
	return err == nil
}

// fromFetchError classifies a fetch failure.
func fromFetchError(path string, err error) *Error {
	var fetchErr *fetch.Error
	if errors.As(err, &fetchErr) && fetchErr.IsStatus() {
		return &Error{Kind: KindStatus, Path: path, StatusCode: fetchErr.StatusCode, Err: err}
	}
	return &Error{Kind: KindNetwork, Path: path, Err: err}
}

// fromInjectError classifies an injection failure.
func fromInjectError(path, targetID string, err error) *Error {
	kind := KindInject
	if errors.Is(err, dom.ErrTargetNotFound) {
		kind = KindTargetNotFound
	}
	return &Error{Kind: kind, Path: path, TargetID: targetID, Err: err}
}
