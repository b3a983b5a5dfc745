package logging

import (
	"bytes"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danielpatrickdp/coref-probe/internal/state"
)

// #region helpers
func setupDB(t *testing.T) (*state.Store, string) {
	t.Helper()
	s, err := state.NewStore(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	run, err := s.BeginRun("adaptive", "")
	if err != nil {
		t.Fatalf("begin run: %v", err)
	}
	return s, run.RunID
}

// #endregion helpers

// #region log-call-tests
func TestLogCall_Success(t *testing.T) {
	s, runID := setupDB(t)

	entry := CallEntry{
		RunID:     runID,
		Item:      "The nurse helped the patient because ___ was kind.",
		Model:     "llama3",
		Role:      "sampler",
		Mode:      "adaptive_sample_1",
		Failed:    true,
		Latency:   1500 * time.Millisecond,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := LogCall(s.DB(), entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var mode string
	var failed, latency int
	s.DB().QueryRow("SELECT mode, failed, latency_ms FROM oracle_calls").Scan(&mode, &failed, &latency)
	if mode != "adaptive_sample_1" {
		t.Errorf("expected mode 'adaptive_sample_1', got %q", mode)
	}
	if failed != 1 {
		t.Errorf("expected failed=1, got %d", failed)
	}
	if latency != 1500 {
		t.Errorf("expected latency 1500ms, got %d", latency)
	}

	counts, err := s.CallCounts(runID)
	if err != nil {
		t.Fatalf("call counts: %v", err)
	}
	if len(counts) != 1 || counts[0].Failures != 1 {
		t.Errorf("unexpected counts: %+v", counts)
	}
}

func TestLogCall_ZeroCreatedAt(t *testing.T) {
	s, runID := setupDB(t)

	before := time.Now().UTC()
	if err := LogCall(s.DB(), CallEntry{RunID: runID, Item: "x ___", Model: "m", Role: "critic", Mode: "critique_1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var createdAtStr string
	s.DB().QueryRow("SELECT created_at FROM oracle_calls").Scan(&createdAtStr)
	createdAt, err := time.Parse(state.TimeLayout, createdAtStr)
	if err != nil {
		t.Fatalf("parse created_at: %v", err)
	}
	if createdAt.Before(before) {
		t.Error("expected auto-filled created_at to be >= test start time")
	}
}

func TestLogCall_Error(t *testing.T) {
	s, runID := setupDB(t)
	s.Close() // close to force error

	if err := LogCall(s.DB(), CallEntry{RunID: runID}); err == nil {
		t.Fatal("expected error on closed db")
	}
}

// #endregion log-call-tests

// #region log-outcome-tests
func TestLogOutcome_EmptyOptionalFields(t *testing.T) {
	s, runID := setupDB(t)

	entry := OutcomeEntry{
		RunID:   runID,
		Item:    "x ___",
		Outcome: "failed",
	}
	if err := LogOutcome(s.DB(), entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var lbl, detail sql.NullString
	s.DB().QueryRow("SELECT label, detail FROM item_outcomes").Scan(&lbl, &detail)
	if lbl.Valid {
		t.Error("expected NULL label for empty string")
	}
	if detail.Valid {
		t.Error("expected NULL detail for empty string")
	}
}

func TestLogOutcome_ReadBack(t *testing.T) {
	s, runID := setupDB(t)

	if err := LogOutcome(s.DB(), OutcomeEntry{RunID: runID, Item: "x ___", Model: "mistral", Outcome: "ok", Label: "they", Detail: "confident"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := s.Outcomes(runID)
	if err != nil {
		t.Fatalf("outcomes: %v", err)
	}
	if len(out) != 1 || out[0].Label != "they" || out[0].Detail != "confident" {
		t.Errorf("unexpected outcomes: %+v", out)
	}
}

// #endregion log-outcome-tests

// #region null-if-empty-tests
func TestNullIfEmpty_Empty(t *testing.T) {
	result := nullIfEmpty("")
	if result != nil {
		t.Errorf("expected nil for empty string, got %v", result)
	}
}

func TestNullIfEmpty_NonEmpty(t *testing.T) {
	result := nullIfEmpty("hello")
	if result != "hello" {
		t.Errorf("expected 'hello', got %v", result)
	}
}

// #endregion null-if-empty-tests

// #region logger-tests
func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "warn", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	logger.Info().Msg("hidden")
	logger.Warn().Str("component", "oracle").Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info line should be filtered at warn level")
	}
	if !strings.Contains(out, `"component":"oracle"`) || !strings.Contains(out, `"level":"warn"`) {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestNewLogger_Console(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.Info().Msg("ready")
	if strings.Contains(buf.String(), "{") {
		t.Errorf("console output should not be JSON: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "ready") {
		t.Errorf("missing message: %s", buf.String())
	}
}

func TestNewLogger_BadLevel(t *testing.T) {
	if _, err := NewLogger(nil, "loud", false); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

// #endregion logger-tests
