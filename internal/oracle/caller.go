package oracle

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// #region caller
// Caller wraps a Client with the courtesy throttle, the per-call timeout
// and query accounting shared by the sampler and the refinement loop.
type Caller struct {
	Client   Client
	Throttle *Throttle
	Tally    *Tally
	Timeout  time.Duration
	Logger   zerolog.Logger
}

// Call issues one query and returns its record. A failed query is not an
// error: the record carries Failed=true and the failure text. Only a done
// context is returned as an error.
func (c *Caller) Call(ctx context.Context, role Role, model, mode, item, prompt string) (Call, error) {
	if err := c.Throttle.Wait(ctx); err != nil {
		return Call{}, err
	}

	start := time.Now()
	text, err := c.Client.Query(ctx, Request{Model: model, Prompt: prompt, Timeout: c.Timeout})
	rec := Call{
		Model:   model,
		Role:    role,
		Mode:    mode,
		Item:    item,
		Prompt:  prompt,
		Latency: time.Since(start),
	}
	c.Tally.Add(model, role)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Call{}, ctxErr
		}
		c.Logger.Warn().
			Err(err).
			Str("model", model).
			Str("role", string(role)).
			Str("mode", mode).
			Msg("oracle call failed")
		rec.Failed = true
		rec.Response = FailureText(err)
		return rec, nil
	}

	rec.Response = text
	return rec, nil
}

// #endregion caller
