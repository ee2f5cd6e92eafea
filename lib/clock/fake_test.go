// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeClockNow(t *testing.T) {
	clock := Fake(epoch)
	if got := clock.Now(); !got.Equal(epoch) {
		t.Fatalf("Now() = %v, want %v", got, epoch)
	}
	clock.Advance(5 * time.Second)
	if got, want := clock.Now(), epoch.Add(5*time.Second); !got.Equal(want) {
		t.Fatalf("Now() after Advance = %v, want %v", got, want)
	}
}

func TestFakeClockAfter(t *testing.T) {
	clock := Fake(epoch)
	channel := clock.After(3 * time.Second)

	clock.Advance(2 * time.Second)
	select {
	case <-channel:
		t.Fatal("After fired before its deadline")
	default:
	}

	clock.Advance(time.Second)
	select {
	case <-channel:
	default:
		t.Fatal("After did not fire at its deadline")
	}

	immediate := clock.After(0)
	select {
	case <-immediate:
	default:
		t.Fatal("After(0) should be ready immediately")
	}
}

func TestFakeClockAfterFuncFiresOnce(t *testing.T) {
	clock := Fake(epoch)
	calls := 0
	clock.AfterFunc(time.Minute, func() { calls++ })

	clock.Advance(59 * time.Second)
	if calls != 0 {
		t.Fatalf("callback ran %d times before deadline", calls)
	}
	clock.Advance(time.Second)
	clock.Advance(time.Hour)
	if calls != 1 {
		t.Fatalf("callback ran %d times, want 1", calls)
	}
	if pending := clock.Pending(); pending != 0 {
		t.Fatalf("Pending() = %d after firing, want 0", pending)
	}
}

func TestFakeClockAfterFuncStop(t *testing.T) {
	clock := Fake(epoch)
	fired := false
	timer := clock.AfterFunc(time.Second, func() { fired = true })

	if !timer.Stop() {
		t.Fatal("first Stop should report the timer as pending")
	}
	if timer.Stop() {
		t.Fatal("second Stop should be a no-op")
	}
	clock.Advance(time.Minute)
	if fired {
		t.Fatal("stopped timer fired")
	}
}

func TestFakeClockStopAfterFire(t *testing.T) {
	clock := Fake(epoch)
	timer := clock.AfterFunc(time.Second, func() {})
	clock.Advance(time.Second)
	if timer.Stop() {
		t.Fatal("Stop after firing should return false")
	}
}

func TestFakeClockAfterFuncReset(t *testing.T) {
	clock := Fake(epoch)
	calls := 0
	timer := clock.AfterFunc(10*time.Second, func() { calls++ })

	clock.Advance(8 * time.Second)
	if !timer.Reset(10 * time.Second) {
		t.Fatal("Reset of a pending timer should return true")
	}
	clock.Advance(8 * time.Second)
	if calls != 0 {
		t.Fatal("timer fired at its original deadline after Reset")
	}
	clock.Advance(2 * time.Second)
	if calls != 1 {
		t.Fatalf("calls = %d after reset deadline, want 1", calls)
	}
	if clock.Pending() != 0 {
		t.Fatal("Reset must not leave a duplicate waiter behind")
	}
}

func TestFakeClockResetRearmsFiredTimer(t *testing.T) {
	clock := Fake(epoch)
	calls := 0
	timer := clock.AfterFunc(time.Second, func() { calls++ })
	clock.Advance(time.Second)

	if timer.Reset(time.Second) {
		t.Fatal("Reset of a fired timer should return false")
	}
	clock.Advance(time.Second)
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestFakeClockFiresInDeadlineOrder(t *testing.T) {
	clock := Fake(epoch)
	var order []string
	clock.AfterFunc(3*time.Second, func() { order = append(order, "c") })
	clock.AfterFunc(time.Second, func() { order = append(order, "a") })
	clock.AfterFunc(2*time.Second, func() { order = append(order, "b") })
	clock.AfterFunc(2*time.Second, func() { order = append(order, "b2") })

	clock.Advance(time.Minute)
	want := []string{"a", "b", "b2", "c"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for index := range want {
		if order[index] != want[index] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestFakeClockCallbackCanStopSibling(t *testing.T) {
	clock := Fake(epoch)
	siblingFired := false
	var sibling *Timer
	clock.AfterFunc(time.Second, func() { sibling.Stop() })
	sibling = clock.AfterFunc(2*time.Second, func() { siblingFired = true })

	clock.Advance(5 * time.Second)
	if siblingFired {
		t.Fatal("timer stopped by an earlier callback in the same Advance still fired")
	}
}

func TestClockImplementations(t *testing.T) {
	var _ Clock = Fake(epoch)
	var _ Clock = Real()
}

func TestFakeClockWaitForTimers(t *testing.T) {
	clock := Fake(epoch)
	fired := make(chan struct{})
	go func() {
		<-clock.After(time.Second)
		close(fired)
	}()

	clock.WaitForTimers(1)
	clock.Advance(time.Second)
	<-fired
}
