package sampler

import "github.com/danielpatrickdp/coref-probe/internal/label"

// #region counts
// Counts is a label frequency map that remembers first-seen order, which
// breaks plurality ties.
type Counts struct {
	order  []label.Label
	counts map[label.Label]int
	total  int
}

// NewCounts creates an empty frequency map.
func NewCounts() *Counts {
	return &Counts{counts: make(map[label.Label]int)}
}

// CountsOf builds a frequency map from labels in order.
func CountsOf(labels ...label.Label) *Counts {
	c := NewCounts()
	for _, l := range labels {
		c.Add(l)
	}
	return c
}

// Add records one observation of l.
func (c *Counts) Add(l label.Label) {
	if _, ok := c.counts[l]; !ok {
		c.order = append(c.order, l)
	}
	c.counts[l]++
	c.total++
}

// Total is the number of observations.
func (c *Counts) Total() int { return c.total }

// Get returns the count for l.
func (c *Counts) Get(l label.Label) int { return c.counts[l] }

// Labels returns observed labels in first-seen order.
func (c *Counts) Labels() []label.Label {
	out := make([]label.Label, len(c.order))
	copy(out, c.order)
	return out
}

// Plurality returns the most frequent label; ties go to the label seen first.
func (c *Counts) Plurality() (label.Label, int) {
	var best label.Label
	bestCount := 0
	for _, l := range c.order {
		if n := c.counts[l]; n > bestCount {
			best, bestCount = l, n
		}
	}
	return best, bestCount
}

// Second returns the highest count among labels other than the plurality.
func (c *Counts) Second() int {
	plural, _ := c.Plurality()
	second := 0
	for _, l := range c.order {
		if l == plural {
			continue
		}
		if n := c.counts[l]; n > second {
			second = n
		}
	}
	return second
}

// #endregion counts

// #region majority
// MajorityKnown returns the plurality among labels other than Unknown,
// or Unknown when every label is Unknown.
func MajorityKnown(labels []label.Label) label.Label {
	c := NewCounts()
	for _, l := range labels {
		if l != label.Unknown {
			c.Add(l)
		}
	}
	if c.Total() == 0 {
		return label.Unknown
	}
	l, _ := c.Plurality()
	return l
}

// #endregion majority
