// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec is the CBOR wire format of the deploywatch service
// socket. Requests from deployctl and replies from the daemon are
// encoded here so both ends agree on one configuration.
//
// Encoding uses Core Deterministic Encoding (RFC 8949 §4.2). Decoding
// ignores unknown fields, so an older deployctl keeps working against
// a newer daemon, and decodes any-typed maps as map[string]any.
//
// Struct fields use `cbor:"name"` tags. Times are encoded as RFC 3339
// text strings with nanosecond precision so that status replies keep
// sub-second start times.
package codec
