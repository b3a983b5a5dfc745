package replay

import (
	"context"
	"strings"
	"sync"

	"github.com/danielpatrickdp/coref-probe/internal/oracle"
)

// #region client

// Client answers oracle queries from a Recording so a run can be repeated
// without the model. Each recorded response is served once, in order;
// repeated prompts (every adaptive sample shares one) walk the queue.
type Client struct {
	mu     sync.Mutex
	queues map[key][]answer
	hits   int
	misses int
}

// NewClient creates a replay client over a copy of rec.
func NewClient(rec *Recording) *Client {
	queues := make(map[key][]answer, len(rec.responses))
	for k, v := range rec.responses {
		queues[k] = append([]answer(nil), v...)
	}
	return &Client{queues: queues}
}

// Query returns the next recorded response for the request. Calls logged
// as failed and exhausted queues are reported as Failures.
func (c *Client) Query(ctx context.Context, req oracle.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &oracle.Failure{Model: req.Model, Reason: "cancelled", Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	k := key{model: req.Model, prompt: req.Prompt}
	q := c.queues[k]
	if len(q) == 0 {
		c.misses++
		return "", &oracle.Failure{Model: req.Model, Reason: "no recorded response"}
	}
	next := q[0]
	c.queues[k] = q[1:]
	c.hits++

	if next.failed {
		reason, _ := strings.CutPrefix(next.text, oracle.FailurePrefix)
		return "", &oracle.Failure{Model: req.Model, Reason: reason}
	}
	return next.text, nil
}

// #endregion client

// #region summary

// ReplaySummary reports how well a recording covered a replayed run.
type ReplaySummary struct {
	Hits   int
	Misses int
	Unused int
}

// Summarize counts served, missing and never-requested responses.
func (c *Client) Summarize() ReplaySummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	unused := 0
	for _, q := range c.queues {
		unused += len(q)
	}
	return ReplaySummary{Hits: c.hits, Misses: c.misses, Unused: unused}
}

// #endregion summary
