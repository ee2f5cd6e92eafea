// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package deploy

import (
	"fmt"
	"strings"
	"time"
)

var spanUnits = []struct {
	name string
	size time.Duration
}{
	{"day", 24 * time.Hour},
	{"hour", time.Hour},
	{"minute", time.Minute},
	{"second", time.Second},
}

// FormatSpan renders a duration exactly, to the second, in words:
// "1 hour, 2 minutes and 3 seconds". Units that are zero are left
// out. Anything under a second is "less than a second".
func FormatSpan(span time.Duration) string {
	if span < time.Second {
		return "less than a second"
	}

	var parts []string
	remaining := span
	for _, unit := range spanUnits {
		count := remaining / unit.size
		if count == 0 {
			continue
		}
		remaining -= count * unit.size
		name := unit.name
		if count != 1 {
			name += "s"
		}
		parts = append(parts, fmt.Sprintf("%d %s", count, name))
	}

	if len(parts) == 1 {
		return parts[0]
	}
	return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
}
