package sampler

import "math"

// #region stop-probability
// StopProbability estimates the confidence that the current plurality is
// still the plurality once maxSamples answers have been drawn.
//
// The Dirichlet-multinomial term below is a heuristic carried over
// unchanged from the study design: natural-log lgamma terms fed into a
// base-10 exponential. Changing it changes when sampling stops.
func StopProbability(c *Counts, maxSamples int) float64 {
	remaining := maxSamples - c.Total()
	if remaining <= 0 {
		return 1.0
	}

	plural, pluralCount := c.Plurality()
	if pluralCount-c.Second() > remaining {
		return 1.0
	}

	r := float64(remaining)
	var sumAlpha, priorTerm, posteriorTerm float64
	for _, l := range c.order {
		alpha := float64(c.counts[l] + 1)
		sumAlpha += alpha
		priorTerm += lgamma(alpha)
		if l == plural {
			posteriorTerm += lgamma(alpha + r)
		} else {
			posteriorTerm += lgamma(alpha)
		}
	}
	logP := priorTerm - lgamma(sumAlpha) + lgamma(sumAlpha+r) - posteriorTerm

	return 1 - math.Pow(10, -logP)
}

// stopReason classifies a stop decision; only meaningful when stopping.
func stopReason(c *Counts, maxSamples int) StopReason {
	remaining := maxSamples - c.Total()
	if remaining <= 0 {
		return StopBudget
	}
	_, pluralCount := c.Plurality()
	if pluralCount-c.Second() > remaining {
		return StopLocked
	}
	return StopConfident
}

func lgamma(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}

// #endregion stop-probability
