// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package logging builds the *slog.Logger used by the deploywatch
// binaries.
//
// Code logs through log/slog with key/value pairs. Output is produced
// by zap: records pass through a level gate, then
// logr.ToSlogHandler, then the zapr sink, so the JSON and console
// encoders, timestamps and caller fields are zap's. The gate owns
// level filtering; zap itself is opened all the way to debug so that
// the two never disagree about what is enabled.
package logging
