// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// MaxResponseSize bounds homeserver response bodies. An initial /sync
// of one busy room is the largest legitimate response.
const MaxResponseSize int64 = 64 << 20

// ReadResponse reads a response body, failing if it exceeds
// MaxResponseSize rather than silently truncating it.
func ReadResponse(body io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, MaxResponseSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > MaxResponseSize {
		return nil, fmt.Errorf("response body exceeds %d bytes", MaxResponseSize)
	}
	return data, nil
}

// ErrorBody reads at most a few kilobytes of an error response for
// inclusion in an error message. Read failures yield what was read.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, 4096))
	return strings.TrimSpace(string(data))
}

// IsSuccess reports whether an HTTP status code is 2xx.
func IsSuccess(statusCode int) bool {
	return statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices
}
