// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package deploy

import (
	"testing"
	"time"
)

func TestStatusLines(t *testing.T) {
	idle := Deploy{
		ID: "d1", Who: "alice", Args: "-r main", LogPath: "/logs/d1",
		StartedAt: epoch, HostCount: 10,
	}
	busy := Deploy{
		ID: "d2", Who: "bob", Args: "--all", LogPath: "/logs/d2",
		StartedAt: epoch.Add(5 * time.Minute), HostCount: 3,
		LastHost: "web2", LastIndex: 2, HasProgress: true,
	}
	hostless := Deploy{
		ID: "d3", Who: "carol", Args: "", LogPath: "/logs/d3",
		StartedAt: epoch.Add(6 * time.Minute),
		LastHost: "web9", LastIndex: 1, HasProgress: true,
	}

	tests := []struct {
		name      string
		deploys   []Deploy
		requester string
		want      []string
	}{
		{
			name:      "empty",
			requester: "dave",
			want:      []string{"dave, there are currently no active pushes."},
		},
		{
			name: "empty without requester",
			want: []string{"there are currently no active pushes."},
		},
		{
			name:      "with and without progress",
			deploys:   []Deploy{idle, busy},
			requester: "dave",
			want: []string{
				`dave, alice started push "d1" at 09:30 with args "-r main". log: /logs/d1`,
				`dave, bob started push "d2" (which is on web2 -- 66% done) at 09:35 with args "--all". log: /logs/d2`,
			},
		},
		{
			name:    "no host count omits percent",
			deploys: []Deploy{hostless},
			want: []string{
				`carol started push "d3" (which is on web9) at 09:36 with args "". log: /logs/d3`,
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := StatusLines(test.deploys, test.requester, nil)
			if len(got) != len(test.want) {
				t.Fatalf("StatusLines = %q, want %q", got, test.want)
			}
			for i := range test.want {
				if got[i] != test.want[i] {
					t.Errorf("line %d = %q, want %q", i, got[i], test.want[i])
				}
			}
		})
	}
}

func TestEntriesPreserveOrder(t *testing.T) {
	deploys := []Deploy{
		{ID: "a", StartedAt: epoch, HostCount: 4},
		{ID: "b", StartedAt: epoch.Add(time.Second), LastHost: "web1", LastIndex: 1, HasProgress: true},
	}
	entries := Entries(deploys)
	if len(entries) != 2 || entries[0].ID != "a" || entries[1].ID != "b" {
		t.Fatalf("Entries = %+v", entries)
	}
	if entries[0].HostCount != 4 || !entries[1].HasProgress || entries[1].LastHost != "web1" {
		t.Errorf("Entries lost fields: %+v", entries)
	}
}
