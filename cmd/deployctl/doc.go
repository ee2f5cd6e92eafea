// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Deployctl reports deploy lifecycle events to a running deploywatch
// over its service socket, and prints the deploys in flight.
//
// A deploy script typically runs:
//
//	ID=$(deployctl begin --args "$*" --log-path "$LOG" --hosts ${#HOSTS[@]})
//	for i in "${!HOSTS[@]}"; do
//	    deployctl progress --id "$ID" --host "${HOSTS[$i]}" --index $((i+1))
//	    ...
//	done
//	deployctl end --id "$ID"
package main
