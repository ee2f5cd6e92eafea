// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"errors"
	"fmt"
	"time"
)

// MatrixError is an error response from the homeserver. Extract it
// with errors.As:
//
//	var matrixErr *MatrixError
//	if errors.As(err, &matrixErr) && matrixErr.Code == ErrCodeForbidden { ... }
type MatrixError struct {
	// Code is the Matrix errcode, e.g. "M_FORBIDDEN".
	Code string `json:"errcode"`
	// Message is the server's human-readable description.
	Message string `json:"error"`
	// RetryAfterMillis is set on M_LIMIT_EXCEEDED.
	RetryAfterMillis int64 `json:"retry_after_ms,omitempty"`
	// StatusCode is the HTTP status of the response.
	StatusCode int `json:"-"`
}

func (e *MatrixError) Error() string {
	return fmt.Sprintf("matrix: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// RetryAfter is how long the server asked the client to back off, or
// zero when it did not say.
func (e *MatrixError) RetryAfter() time.Duration {
	return time.Duration(e.RetryAfterMillis) * time.Millisecond
}

// Matrix error codes deploywatch reacts to.
const (
	ErrCodeForbidden     = "M_FORBIDDEN"
	ErrCodeUnknownToken  = "M_UNKNOWN_TOKEN"
	ErrCodeNotFound      = "M_NOT_FOUND"
	ErrCodeLimitExceeded = "M_LIMIT_EXCEEDED"
	ErrCodeUnknown       = "M_UNKNOWN"
)

// IsMatrixError reports whether err wraps a *MatrixError with code.
func IsMatrixError(err error, code string) bool {
	var matrixErr *MatrixError
	if errors.As(err, &matrixErr) {
		return matrixErr.Code == code
	}
	return false
}
