// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package deploy

// DefaultMinHosts is the smallest host count whose progress is
// announced. Smaller deploys finish too quickly to be worth narrating.
const DefaultMinHosts = 8

// lastQuadrant is the 100% milestone.
const lastQuadrant = 4

// Throttle decides which completion milestones get announced.
type Throttle struct {
	// MinHosts overrides DefaultMinHosts when positive.
	MinHosts int
}

func (t Throttle) minHosts() int {
	if t.MinHosts > 0 {
		return t.MinHosts
	}
	return DefaultMinHosts
}

// Advance checks the deploy's latest progress against its next
// milestone. When the milestone is reached it returns the milestone
// percentage and moves NextQuadrant on by one.
//
// Only one milestone is considered per call: a report that jumps from
// 10% to 95% announces 25% and leaves 50, 75 and 100 to later reports
// that clear them individually.
func (t Throttle) Advance(deploy *Deploy) (percent int, announce bool) {
	if !deploy.HasProgress || deploy.HostCount < t.minHosts() {
		return 0, false
	}
	if deploy.NextQuadrant > lastQuadrant {
		return 0, false
	}
	fraction := deploy.LastIndex / float64(deploy.HostCount)
	if fraction < float64(deploy.NextQuadrant)*0.25 {
		return 0, false
	}
	percent = deploy.NextQuadrant * 25
	deploy.NextQuadrant++
	return percent, true
}
