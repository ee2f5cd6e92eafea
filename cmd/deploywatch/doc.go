// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Deploywatch announces deploys in a Matrix room.
//
// Deploy scripts report lifecycle events (begin, progress, end,
// abort) over HTTP form requests or the CBOR service socket used by
// deployctl. Deploywatch announces each deploy's start, its 25/50/75/100%
// milestones and its outcome, keeps the room topic listing the deploys
// in flight, and restores the room's own topic when the last one
// finishes. Members can ask "status" in the room for a summary.
//
// Configuration is a YAML file named by --config or DEPLOYWATCH_CONFIG,
// with DEPLOYWATCH_* environment overrides; see lib/config.
package main
