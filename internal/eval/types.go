package eval

// #region rubric
// Rubric aspects the critic scores 0 or 1.
var Rubric = []string{"coherent", "comprehensive", "objective"}

// PerfectScore is the exact literal that ends the refinement loop.
const PerfectScore = "Total Score: 3/3"

// #endregion rubric

// #region eval-metric
// EvalMetric captures one rubric aspect as reported by the critic.
type EvalMetric struct {
	Name  string
	Value int  // 0 or 1, -1 when the critic did not score it
	Pass  bool
}

// #endregion eval-metric

// #region eval-result
// EvalResult is the parsed critique. Observability only: termination is
// decided by IsPerfect on the raw text.
type EvalResult struct {
	Metrics  []EvalMetric
	Total    int
	OutOf    int
	HasTotal bool
	Perfect  bool
	Reason   string
}

// #endregion eval-result
