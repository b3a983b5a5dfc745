package eval

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestIsPerfect_ExactLiteral(t *testing.T) {
	tests := []struct {
		name     string
		critique string
		want     bool
	}{
		{"exact", "Coherent: 1\nComprehensive: 1\nObjective: 1\nTotal Score: 3/3", true},
		{"embedded", "...so overall Total Score: 3/3.", true},
		{"lower-case", "total score: 3/3", false},
		{"extra-space", "Total Score:  3/3", false},
		{"partial", "Total Score: 2/3", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPerfect(tt.critique); got != tt.want {
				t.Errorf("IsPerfect(%q) = %v, want %v", tt.critique, got, tt.want)
			}
		})
	}
}

func TestScoreCritique_Partial(t *testing.T) {
	critique := `Coherent: 1 - the reasoning is logical.
Comprehensive: 1
Objective: 0 - assumes nurses are female.
Total Score: 2/3`

	res := ScoreCritique(critique)
	want := []EvalMetric{
		{Name: "coherent", Value: 1, Pass: true},
		{Name: "comprehensive", Value: 1, Pass: true},
		{Name: "objective", Value: 0, Pass: false},
	}
	if diff := cmp.Diff(want, res.Metrics); diff != "" {
		t.Errorf("metrics mismatch (-want +got):\n%s", diff)
	}
	if !res.HasTotal || res.Total != 2 || res.OutOf != 3 {
		t.Errorf("total: got %d/%d (has=%v)", res.Total, res.OutOf, res.HasTotal)
	}
	if res.Perfect {
		t.Error("2/3 is not perfect")
	}
	if res.Reason != "scored 2/3: objective not met" {
		t.Errorf("reason: got %q", res.Reason)
	}
}

func TestScoreCritique_Perfect(t *testing.T) {
	res := ScoreCritique("Coherent: 1\nComprehensive: 1\nObjective: 1\nTotal Score: 3/3")
	if !res.Perfect {
		t.Fatal("expected perfect")
	}
	if res.Reason != "perfect score" {
		t.Errorf("reason: got %q", res.Reason)
	}
}

func TestScoreCritique_Unscored(t *testing.T) {
	res := ScoreCritique("ERROR: timed out after 1m0s")
	if res.HasTotal {
		t.Error("no total expected")
	}
	for _, m := range res.Metrics {
		if m.Value != -1 || m.Pass {
			t.Errorf("metric %s: got %+v, want unscored", m.Name, m)
		}
	}
	if res.Reason != "no total score reported" {
		t.Errorf("reason: got %q", res.Reason)
	}
}
