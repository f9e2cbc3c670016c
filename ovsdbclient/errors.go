/*
Copyright 2020 The OVSDB Manager Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package ovsdbclient

import (
	"fmt"

	"github.com/pkg/errors"
)

/*
ErrorKind classifies a failure reported by the server, either inside a
transaction result or as the "error" member of a response.
*/
type ErrorKind int

// Kinds of server-reported errors.
const (
	KindCommit ErrorKind = iota
	KindReferentialIntegrityViolation
	KindConstraintViolation
	KindResourcesExhausted
	KindIOError
	KindSyntaxError
	KindUnknownDatabase
	KindResourceNotFound
	KindQuery
)

// Error strings as sent by ovsdb-server.
const (
	referentialIntegrityString = "referential integrity violation"
	constraintViolationString  = "constraint violation"
	resourcesExhaustedString   = "resources exhausted"
	ioErrorString              = "I/O error"
	syntaxErrorString          = "syntax error"
	unknownDatabaseString      = "unknown database"
)

func (k ErrorKind) String() string {
	switch k {
	case KindCommit:
		return "commit error"
	case KindReferentialIntegrityViolation:
		return referentialIntegrityString
	case KindConstraintViolation:
		return constraintViolationString
	case KindResourcesExhausted:
		return resourcesExhaustedString
	case KindIOError:
		return ioErrorString
	case KindSyntaxError:
		return syntaxErrorString
	case KindUnknownDatabase:
		return unknownDatabaseString
	case KindResourceNotFound:
		return "resource not found"
	case KindQuery:
		return "query error"
	default:
		return fmt.Sprintf("ErrorKind(%d)", k)
	}
}

/*
IsCommit returns true for the kinds that the server reports when a
transaction could not be committed. The generic kind is one of them.
*/
func (k ErrorKind) IsCommit() bool {
	switch k {
	case KindCommit, KindReferentialIntegrityViolation, KindConstraintViolation,
		KindResourcesExhausted, KindIOError:
		return true
	default:
		return false
	}
}

func kindFor(s string) ErrorKind {
	switch s {
	case referentialIntegrityString:
		return KindReferentialIntegrityViolation
	case constraintViolationString:
		return KindConstraintViolation
	case resourcesExhaustedString:
		return KindResourcesExhausted
	case ioErrorString:
		return KindIOError
	case syntaxErrorString:
		return KindSyntaxError
	case unknownDatabaseString:
		return KindUnknownDatabase
	default:
		return KindCommit
	}
}

/*
Error is returned when the server rejects a request or an operation in a
transaction. Code holds the error string exactly as the server sent it, and
Index is the position in the result array that carried it, or -1 when the
error did not come from a transaction result.
*/
type Error struct {
	Kind    ErrorKind
	Code    string
	Details string
	Index   int
}

// NewError returns an error of the given kind that did not come from the server.
func NewError(kind ErrorKind, details string) *Error {
	return &Error{
		Kind:    kind,
		Details: details,
		Index:   -1,
	}
}

/*
NewServerError maps an error string from the server to an Error.
Unknown strings produce the generic commit kind.
*/
func NewServerError(code, details string) *Error {
	return &Error{
		Kind:    kindFor(code),
		Code:    code,
		Details: details,
		Index:   -1,
	}
}

func (e *Error) Error() string {
	if e.Details != "" {
		return e.Details
	}
	if e.Code != "" {
		return e.Code
	}
	return e.Kind.String()
}

/*
ConnectionError is returned when the transport fails: the peer could not be
reached, the stream broke or could not be parsed, or the call deadline
passed. Timeout is set in the last case.
*/
type ConnectionError struct {
	Op      string
	Addr    string
	Timeout bool
	Err     error
}

func (e *ConnectionError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("ovsdb %s %s: timed out", e.Op, e.Addr)
	}
	return fmt.Sprintf("ovsdb %s %s: %s", e.Op, e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Errors returned before anything is sent.
var (
	ErrUnsupportedFunction = errors.New("unsupported condition function")
	ErrNonNumericValue     = errors.New("relational condition requires a numeric value")
	ErrDuplicateUUIDName   = errors.New("uuid-name used more than once in a transaction")
	ErrInvalidOperation    = errors.New("invalid operation")
	ErrClosed              = errors.New("connection closed")
	ErrBroken              = errors.New("connection unusable after a previous failure")
)

// IsConnectionError returns true if the transport failed.
func IsConnectionError(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// IsTimeout returns true if a connect or call deadline passed.
func IsTimeout(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce) && ce.Timeout
}

// IsKind returns true if err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var oe *Error
	return errors.As(err, &oe) && oe.Kind == kind
}

// IsCommitError returns true for any of the commit-family kinds.
func IsCommitError(err error) bool {
	var oe *Error
	return errors.As(err, &oe) && oe.Kind.IsCommit()
}

func IsSyntaxError(err error) bool {
	return IsKind(err, KindSyntaxError)
}

func IsUnknownDatabase(err error) bool {
	return IsKind(err, KindUnknownDatabase)
}

func IsNotFound(err error) bool {
	return IsKind(err, KindResourceNotFound)
}
