// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package exc

import (
	"errors"
	"fmt"

	"gopkg.microglot.org/avdl.go/internal/idl"
)

type Exception interface {
	error
	Code() string
	Message() string
	Location() Location
}

type Location struct {
	idl.Location
	URI string
}

func (l Location) String() string {
	if l.Line < 1 {
		return l.URI
	}
	return fmt.Sprintf("%s:%d:%d", l.URI, l.Line, l.Column)
}

type exc struct {
	code     string
	message  string
	location Location
}

func (e *exc) Error() string {
	return fmt.Sprintf("%s -- %s: %s", e.location, e.code, e.message)
}

func (e *exc) Code() string {
	return e.code
}

func (e *exc) Message() string {
	return e.message
}

func (e *exc) Location() Location {
	return e.location
}

type excUnwrap struct {
	Exception
	cause error
}

func (e *excUnwrap) Unwrap() error {
	return e.cause
}

func New(location Location, code string, message string) Exception {
	return &exc{
		location: location,
		message:  message,
		code:     code,
	}
}

func Wrap(location Location, code string, err error) Exception {
	if err == nil {
		return nil
	}
	if e, ok := err.(Exception); ok {
		return &excUnwrap{
			Exception: New(location, code, e.Message()),
			cause:     e,
		}
	}
	return &excUnwrap{
		cause:     err,
		Exception: New(location, code, err.Error()),
	}
}

func WrapUnknown(location Location, err error) Exception {
	return Wrap(location, CodeUnknownFatal, err)
}

// WithURI attaches the file an error originated from. Exceptions that already
// name a file are returned unchanged so the innermost file of a nested import
// chain is the one reported. Other errors are wrapped with the given code.
func WithURI(err error, uri string, code string) Exception {
	if err == nil {
		return nil
	}
	var e Exception
	if errors.As(err, &e) {
		if e.Location().URI != "" {
			return e
		}
		loc := e.Location()
		loc.URI = uri
		return &excUnwrap{
			Exception: New(loc, e.Code(), e.Message()),
			cause:     err,
		}
	}
	return Wrap(Location{URI: uri}, code, err)
}

// CodeOf returns the code of the first Exception in the chain of err, or the
// empty string.
func CodeOf(err error) string {
	var e Exception
	if errors.As(err, &e) {
		return e.Code()
	}
	return ""
}
