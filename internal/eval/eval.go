package eval

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// #region patterns
var (
	totalPattern  = regexp.MustCompile(`(?i)total\s+score\s*:?\s*(\d+)\s*/\s*(\d+)`)
	aspectPattern = regexp.MustCompile(`(?i)\b(coherent|comprehensive|objective)\b[^0-9\n]{0,24}?([01])\b`)
)

// #endregion patterns

// #region is-perfect
// IsPerfect reports whether critique contains the exact perfect-score marker.
func IsPerfect(critique string) bool {
	return strings.Contains(critique, PerfectScore)
}

// #endregion is-perfect

// #region score-critique
// ScoreCritique extracts per-aspect scores and the stated total from a
// critic response. Later mentions override earlier ones, matching how
// critics restate scores in a closing summary.
func ScoreCritique(critique string) EvalResult {
	values := make(map[string]int, len(Rubric))
	for _, m := range aspectPattern.FindAllStringSubmatch(critique, -1) {
		v, _ := strconv.Atoi(m[2])
		values[strings.ToLower(m[1])] = v
	}

	res := EvalResult{Perfect: IsPerfect(critique)}
	var failed []string
	for _, name := range Rubric {
		v, ok := values[name]
		if !ok {
			v = -1
		}
		res.Metrics = append(res.Metrics, EvalMetric{Name: name, Value: v, Pass: v == 1})
		if v != 1 {
			failed = append(failed, name)
		}
	}

	if all := totalPattern.FindAllStringSubmatch(critique, -1); len(all) > 0 {
		last := all[len(all)-1]
		res.Total, _ = strconv.Atoi(last[1])
		res.OutOf, _ = strconv.Atoi(last[2])
		res.HasTotal = true
	}

	switch {
	case res.Perfect:
		res.Reason = "perfect score"
	case res.HasTotal && len(failed) > 0:
		res.Reason = fmt.Sprintf("scored %d/%d: %s not met", res.Total, res.OutOf, strings.Join(failed, ", "))
	case res.HasTotal:
		res.Reason = fmt.Sprintf("scored %d/%d", res.Total, res.OutOf)
	default:
		res.Reason = "no total score reported"
	}
	return res
}

// #endregion score-critique
