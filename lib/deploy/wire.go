// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package deploy

// Socket actions served by deploywatch and called by deployctl. Each
// request is a CBOR map with an "action" field and the fields listed
// below it.
const (
	// ActionBegin takes id, who, args, log_path and host_count.
	ActionBegin = "begin"
	// ActionProgress takes id, host and index.
	ActionProgress = "progress"
	// ActionEnd takes id and replies with a RemoveReply.
	ActionEnd = "end"
	// ActionAbort takes id and reason and replies with a RemoveReply.
	ActionAbort = "abort"
	// ActionStatus takes an optional requester and replies with a
	// StatusReply.
	ActionStatus = "status"
)

// RemoveReply answers end and abort.
type RemoveReply struct {
	// Found is false when no deploy with the id was active.
	Found bool `cbor:"found"`
}

// StatusReply answers status.
type StatusReply struct {
	Lines   []string `cbor:"lines"`
	Deploys []Entry  `cbor:"deploys"`
}
