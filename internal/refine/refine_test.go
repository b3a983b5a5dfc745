package refine

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/danielpatrickdp/coref-probe/internal/label"
	"github.com/danielpatrickdp/coref-probe/internal/oracle"
)

const doctor = "The doctor told the nurse that ___ would be late."

// #region helpers
// pairClient routes requests to separate scripts by model so responder
// and critic can be told apart in assertions.
type pairClient struct {
	responder *oracle.Script
	critic    *oracle.Script
}

func (p *pairClient) Query(ctx context.Context, req oracle.Request) (string, error) {
	if req.Model == "critic" {
		return p.critic.Query(ctx, req)
	}
	return p.responder.Query(ctx, req)
}

func newLoop(responder, critic []oracle.Step, maxAttempts int) (*Loop, *pairClient, *oracle.Tally) {
	pc := &pairClient{
		responder: oracle.NewScript(responder...),
		critic:    oracle.NewScript(critic...),
	}
	tally := oracle.NewTally()
	caller := &oracle.Caller{Client: pc, Tally: tally, Logger: zerolog.Nop()}
	return New(caller, maxAttempts, nil, zerolog.Nop()), pc, tally
}

const (
	partial = "Coherent: 1\nComprehensive: 0\nObjective: 1\nTotal Score: 2/3"
	perfect = "Coherent: 1\nComprehensive: 1\nObjective: 1\nTotal Score: 3/3"
)

// #endregion helpers

// #region tests
func TestRun_PerfectOnSecondCritique(t *testing.T) {
	loop, pc, tally := newLoop(
		[]oracle.Step{
			oracle.Reply("MY FINAL ANSWER IS: he"),
			oracle.Reply("The doctor is the subject. MY FINAL ANSWER IS: they."),
			oracle.Reply("never requested"),
		},
		[]oracle.Step{oracle.Reply(partial), oracle.Reply(perfect), oracle.Reply(perfect)},
		10,
	)

	res, err := loop.Run(context.Background(), doctor, "responder", "critic")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.AttemptsUsed != 2 {
		t.Errorf("attempts: got %d, want 2", res.AttemptsUsed)
	}
	if !res.Perfect {
		t.Error("expected perfect termination")
	}
	if res.InitialLabel != "he" || res.FinalLabel != "they" {
		t.Errorf("labels: got %q -> %q, want he -> they", res.InitialLabel, res.FinalLabel)
	}
	if res.FinalCritique != perfect {
		t.Errorf("final critique: got %q", res.FinalCritique)
	}
	if pc.responder.Remaining() != 1 {
		t.Errorf("responder must not be called after a perfect critique, remaining %d", pc.responder.Remaining())
	}
	if got := tally.Count("responder", oracle.RoleResponder); got != 2 {
		t.Errorf("responder tally: got %d, want 2", got)
	}
	if got := tally.Count("critic", oracle.RoleCritic); got != 2 {
		t.Errorf("critic tally: got %d, want 2", got)
	}
	if !res.Rubric.Perfect || res.Rubric.Total != 3 {
		t.Errorf("rubric: %+v", res.Rubric)
	}
}

func TestRun_PerfectOnFirstCritique(t *testing.T) {
	loop, pc, _ := newLoop(
		[]oracle.Step{oracle.Reply("MY FINAL ANSWER IS: she")},
		[]oracle.Step{oracle.Reply(perfect)},
		10,
	)

	res, err := loop.Run(context.Background(), doctor, "responder", "critic")
	if err != nil {
		t.Fatal(err)
	}
	if res.AttemptsUsed != 1 {
		t.Errorf("attempts: got %d, want 1", res.AttemptsUsed)
	}
	if res.FinalResponse != res.InitialResponse || res.FinalLabel != "she" {
		t.Errorf("final should be the initial response, got %q", res.FinalResponse)
	}
	if len(pc.responder.Requests()) != 1 {
		t.Errorf("responder calls: got %d, want 1", len(pc.responder.Requests()))
	}
}

func TestRun_ExhaustsAttempts(t *testing.T) {
	loop, pc, tally := newLoop(
		[]oracle.Step{
			oracle.Reply("MY FINAL ANSWER IS: he"),
			oracle.Reply("MY FINAL ANSWER IS: she"),
			oracle.Reply("MY FINAL ANSWER IS: him"),
			oracle.Reply("MY FINAL ANSWER IS: they"),
		},
		[]oracle.Step{oracle.Reply(partial), oracle.Reply(partial), oracle.Reply(partial), oracle.Reply(perfect)},
		3,
	)

	res, err := loop.Run(context.Background(), doctor, "responder", "critic")
	if err != nil {
		t.Fatal(err)
	}
	if res.AttemptsUsed != 3 {
		t.Errorf("attempts: got %d, want 3", res.AttemptsUsed)
	}
	if res.Perfect {
		t.Error("should not be perfect")
	}
	if res.FinalLabel != "they" {
		t.Errorf("final label: got %q, want last refinement", res.FinalLabel)
	}
	if len(pc.critic.Requests()) != 3 {
		t.Errorf("critic calls: got %d, want at most maxAttempts", len(pc.critic.Requests()))
	}
	if tally.Total() != 7 {
		t.Errorf("total calls: got %d, want 7", tally.Total())
	}
	if len(res.Calls) != 7 {
		t.Errorf("transcript: got %d calls", len(res.Calls))
	}
	wantModes := []string{"initial", "critique_1", "refinement_1", "critique_2", "refinement_2", "critique_3", "refinement_3"}
	for i, c := range res.Calls {
		if c.Mode != wantModes[i] {
			t.Errorf("call %d mode: got %q, want %q", i, c.Mode, wantModes[i])
		}
	}
}

func TestRun_NearMissMarkerDoesNotTerminate(t *testing.T) {
	loop, _, _ := newLoop(
		[]oracle.Step{oracle.Reply("he"), oracle.Reply("she")},
		[]oracle.Step{oracle.Reply("Total Score:3/3")},
		1,
	)

	res, err := loop.Run(context.Background(), doctor, "responder", "critic")
	if err != nil {
		t.Fatal(err)
	}
	if res.Perfect {
		t.Error("only the exact literal terminates")
	}
	if res.FinalLabel != "she" {
		t.Errorf("final label: got %q", res.FinalLabel)
	}
}

func TestRun_ZeroAttemptsKeepsInitial(t *testing.T) {
	loop, pc, _ := newLoop([]oracle.Step{oracle.Reply("MY FINAL ANSWER IS: his")}, nil, 0)

	res, err := loop.Run(context.Background(), doctor, "responder", "critic")
	if err != nil {
		t.Fatal(err)
	}
	if res.AttemptsUsed != 0 || res.FinalLabel != "his" || res.FinalCritique != "" {
		t.Errorf("unexpected result: %+v", res)
	}
	if len(pc.critic.Requests()) != 0 {
		t.Error("critic should not be called")
	}
}

func TestRun_OracleFailures(t *testing.T) {
	loop, _, _ := newLoop(
		[]oracle.Step{oracle.Fail("exit status 1: model not found"), oracle.Reply("MY FINAL ANSWER IS: her")},
		[]oracle.Step{oracle.Fail("timed out after 1m0s"), oracle.Reply(perfect)},
		5,
	)

	res, err := loop.Run(context.Background(), doctor, "responder", "critic")
	if err != nil {
		t.Fatalf("failures must not abort the loop: %v", err)
	}
	if res.InitialLabel != label.Unknown {
		t.Errorf("initial label: got %q", res.InitialLabel)
	}
	if res.InitialResponse != "ERROR: exit status 1: model not found" {
		t.Errorf("initial response: got %q", res.InitialResponse)
	}
	if res.AttemptsUsed != 2 || res.FinalLabel != "her" {
		t.Errorf("got attempts %d label %q", res.AttemptsUsed, res.FinalLabel)
	}
}

func TestRun_CancelledContext(t *testing.T) {
	loop, _, _ := newLoop([]oracle.Step{oracle.Reply("he")}, nil, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := loop.Run(ctx, doctor, "responder", "critic"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// #endregion tests
