// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package messaging is the Matrix client-server API client deploywatch
// announces through.
//
// A [Client] holds the homeserver URL and HTTP transport. A
// [DirectSession] adds the bot's access token and carries the calls the
// daemon makes: joining the announcement room, sending messages,
// setting the topic, reading state and long-polling /sync.
//
// Failed calls return errors wrapping *[MatrixError] when the
// homeserver answered with a Matrix error body; use [IsMatrixError]
// to test for a specific errcode.
package messaging
