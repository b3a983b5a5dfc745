package oracle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
)

// #region script-tests
func TestScript_ReplaysInOrder(t *testing.T) {
	s := NewScript(Reply("a"), Fail("boom"), Reply("b"))
	ctx := context.Background()

	if got, err := s.Query(ctx, Request{Model: "m"}); err != nil || got != "a" {
		t.Fatalf("step 1: got %q, %v", got, err)
	}
	if _, err := s.Query(ctx, Request{Model: "m"}); err == nil {
		t.Fatal("step 2: expected failure")
	}
	if got, err := s.Query(ctx, Request{Model: "m"}); err != nil || got != "b" {
		t.Fatalf("step 3: got %q, %v", got, err)
	}
	_, err := s.Query(ctx, Request{Model: "m"})
	var f *Failure
	if !errors.As(err, &f) || f.Reason != "script exhausted" {
		t.Fatalf("exhausted: got %v", err)
	}
	if len(s.Requests()) != 4 {
		t.Errorf("requests: got %d, want 4", len(s.Requests()))
	}
}

func TestFailureText(t *testing.T) {
	if got := FailureText(&Failure{Model: "m", Reason: "timed out after 1m0s"}); got != "ERROR: timed out after 1m0s" {
		t.Errorf("got %q", got)
	}
	if got := FailureText(errors.New("plain")); got != "ERROR: plain" {
		t.Errorf("got %q", got)
	}
}

// #endregion script-tests

// #region throttle-tests
func TestThrottle_ZeroDelayNeverBlocks(t *testing.T) {
	th := NewThrottle(0)
	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := th.Wait(context.Background()); err != nil {
			t.Fatalf("wait: %v", err)
		}
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Error("zero-delay throttle should not block")
	}
}

func TestThrottle_SpacesCalls(t *testing.T) {
	th := NewThrottle(40 * time.Millisecond)
	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := th.Wait(context.Background()); err != nil {
			t.Fatalf("wait: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 70*time.Millisecond {
		t.Errorf("3 calls finished in %s, expected ~80ms spacing", elapsed)
	}
}

func TestThrottle_CancelledContext(t *testing.T) {
	th := NewThrottle(time.Hour)
	_ = th.Wait(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := th.Wait(ctx); err == nil {
		t.Error("expected error from cancelled context")
	}
}

// #endregion throttle-tests

// #region tally-tests
func TestTally_FirstSeenOrder(t *testing.T) {
	tally := NewTally()
	tally.Add("mistral", RoleResponder)
	tally.Add("llama3", RoleCritic)
	tally.Add("mistral", RoleResponder)

	want := []TallyEntry{
		{Model: "mistral", Role: RoleResponder, Count: 2},
		{Model: "llama3", Role: RoleCritic, Count: 1},
	}
	if diff := cmp.Diff(want, tally.Entries()); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
	if tally.Total() != 3 {
		t.Errorf("total: got %d", tally.Total())
	}
	if tally.Count("llama3", RoleResponder) != 0 {
		t.Error("unexpected count for unseen role")
	}
}

func TestTally_Merge(t *testing.T) {
	run := NewTally()
	run.Add("llama3", RoleCritic)

	pair := NewTally()
	pair.Add("mistral", RoleResponder)
	pair.Add("llama3", RoleCritic)

	run.Merge(pair)
	run.Merge(nil)

	want := []TallyEntry{
		{Model: "llama3", Role: RoleCritic, Count: 2},
		{Model: "mistral", Role: RoleResponder, Count: 1},
	}
	if diff := cmp.Diff(want, run.Entries()); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestTally_NilIsEmpty(t *testing.T) {
	var tally *Tally
	tally.Add("llama3", RoleSampler)
	tally.Merge(NewTally())

	if tally.Count("llama3", RoleSampler) != 0 {
		t.Error("nil tally must count nothing")
	}
	if tally.Total() != 0 {
		t.Errorf("total: got %d", tally.Total())
	}
	if got := tally.Entries(); len(got) != 0 {
		t.Errorf("entries: got %v", got)
	}

	run := NewTally()
	run.Add("llama3", RoleSampler)
	var empty *Tally
	run.Merge(empty)
	if run.Total() != 1 {
		t.Errorf("merge of nil tally changed total: %d", run.Total())
	}
}

func TestTally_ZeroValue(t *testing.T) {
	var tally Tally
	tally.Add("mistral", RoleCritic)
	if tally.Count("mistral", RoleCritic) != 1 {
		t.Errorf("zero-value tally count: got %d", tally.Count("mistral", RoleCritic))
	}
}

// #endregion tally-tests

// #region caller-tests
func TestCaller_RecordsFailureAsText(t *testing.T) {
	tally := NewTally()
	c := &Caller{
		Client: NewScript(Fail("exit status 1")),
		Tally:  tally,
		Logger: zerolog.Nop(),
	}

	rec, err := c.Call(context.Background(), RoleSampler, "llama3", "adaptive_sample_1", "item", "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rec.Failed {
		t.Error("expected Failed")
	}
	if rec.Response != "ERROR: exit status 1" {
		t.Errorf("response: got %q", rec.Response)
	}
	if tally.Count("llama3", RoleSampler) != 1 {
		t.Error("failed call should still be counted")
	}
}

func TestCaller_CancelledContextIsError(t *testing.T) {
	c := &Caller{Client: NewScript(Reply("x")), Logger: zerolog.Nop()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Call(ctx, RoleSampler, "m", "mode", "item", "p"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestCaller_PassesTimeout(t *testing.T) {
	s := NewScript(Reply("ok"))
	c := &Caller{Client: s, Timeout: 7 * time.Second, Logger: zerolog.Nop()}

	rec, err := c.Call(context.Background(), RoleCritic, "llama3", "critique_1", "item", "p")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Response != "ok" || rec.Role != RoleCritic || rec.Mode != "critique_1" {
		t.Errorf("unexpected record %+v", rec)
	}
	if got := s.Requests()[0].Timeout; got != 7*time.Second {
		t.Errorf("timeout: got %s", got)
	}
}

// #endregion caller-tests
