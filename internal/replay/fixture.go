package replay

import (
	"fmt"

	"github.com/danielpatrickdp/coref-probe/internal/results"
)

// #region recording

// key identifies a recorded exchange. The prompt embeds the item, so the
// sentence is implied.
type key struct {
	model  string
	prompt string
}

// answer is one recorded response. failed marks a call that errored; its
// text is the "ERROR: <reason>" line the run logged.
type answer struct {
	text   string
	failed bool
}

// Recording holds recorded responses per (model, prompt), in the order
// they were first answered.
type Recording struct {
	responses map[key][]answer
	entries   int
}

// LoadRecording reads a raw interaction log into a Recording.
func LoadRecording(path string) (*Recording, error) {
	entries, err := results.ReadRawLog(path)
	if err != nil {
		return nil, fmt.Errorf("load recording: %w", err)
	}
	return NewRecording(entries), nil
}

// NewRecording indexes raw log entries.
func NewRecording(entries []results.RawEntry) *Recording {
	r := &Recording{responses: make(map[key][]answer)}
	for _, e := range entries {
		k := key{model: e.Model, prompt: e.Prompt}
		r.responses[k] = append(r.responses[k], answer{text: e.Response, failed: e.Failed})
		r.entries++
	}
	return r
}

// Len returns the number of recorded exchanges.
func (r *Recording) Len() int { return r.entries }

// #endregion recording
