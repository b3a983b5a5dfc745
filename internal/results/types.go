package results

import "github.com/danielpatrickdp/coref-probe/internal/label"

// #region records
// SampleRecord is the persisted adaptive-sampling outcome for one model.
type SampleRecord struct {
	FinalPrediction label.Label   `json:"final_prediction"`
	Consistency     float64       `json:"consistency"`
	Samples         []label.Label `json:"samples"`
	NumSamples      int           `json:"num_samples"`
}

// RefineRecord is the persisted outcome of one responder/critic run.
// Field names follow the downstream bias tooling, which calls the critic
// the feedbacker.
type RefineRecord struct {
	Responder         string      `json:"responder"`
	Feedbacker        string      `json:"feedbacker"`
	InitialResponse   string      `json:"initial_response"`
	InitialPrediction label.Label `json:"initial_prediction"`
	FinalResponse     string      `json:"final_response"`
	FinalPrediction   label.Label `json:"final_prediction"`
	FinalFeedback     string      `json:"final_feedback"`
}

// SelfConsistency is the fixed-budget CoT vote.
type SelfConsistency struct {
	MajorityVote label.Label   `json:"majority_vote"`
	Samples      []label.Label `json:"samples"`
}

// FixedRecord is the persisted zero-shot / CoT / self-consistency outcome
// for one model.
type FixedRecord struct {
	ZeroShot label.Label     `json:"zero_shot"`
	CoT      label.Label     `json:"cot"`
	CoTSC    SelfConsistency `json:"cot_sc"`
}

// ModelRecords maps model name to its record for one item.
type ModelRecords[R any] map[string]R

// #endregion records

// #region raw-entry
// RawEntry is one line of the raw interaction log.
type RawEntry struct {
	Model    string `json:"model"`
	Mode     string `json:"mode"`
	Sentence string `json:"sentence"`
	Prompt   string `json:"prompt"`
	Response string `json:"response"`
	Failed   bool   `json:"failed,omitempty"` // Response holds "ERROR: <reason>"
}

// #endregion raw-entry
