package diff

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestRecord_CapturesWordDeltas(t *testing.T) {
	h := NewHistory(filepath.Join(t.TempDir(), "history.json"))

	rec, err := h.Record("Setting", "agent sync", "The town was quiet.", "The town was loud.")
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if rec.ID == "" || rec.Timestamp == "" {
		t.Error("record should carry an ID and timestamp")
	}

	var sawDelete, sawInsert bool
	for _, d := range rec.Deltas {
		if d.Op < 0 && strings.Contains(d.Text, "quiet") {
			sawDelete = true
		}
		if d.Op > 0 && strings.Contains(d.Text, "loud") {
			sawInsert = true
		}
	}
	if !sawDelete || !sawInsert {
		t.Errorf("deltas missed the edit: %+v", rec.Deltas)
	}

	stats := DeltaStats(rec)
	if stats.Inserted != 1 || stats.Deleted != 1 {
		t.Errorf("stats = %+v, want 1 inserted 1 deleted", stats)
	}
}

func TestHistory_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")

	h := NewHistory(path)
	if _, err := h.Record("Characters", "", "", "* Kane"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if _, err := h.Record("Characters", "", "* Kane", "* Kane\n* Esau"); err != nil {
		t.Fatalf("Record: %v", err)
	}

	reopened := NewHistory(path)
	recs := reopened.Records()
	if len(recs) != 2 {
		t.Fatalf("reopened history has %d records, want 2", len(recs))
	}
	if recs[0].Section != "Characters" || recs[1].After != "* Kane\n* Esau" {
		t.Errorf("records out of order or corrupted: %+v", recs)
	}
}

func TestHistory_MissingFileStartsEmpty(t *testing.T) {
	h := NewHistory(filepath.Join(t.TempDir(), "nope.json"))
	if got := h.Records(); len(got) != 0 {
		t.Errorf("expected empty history, got %+v", got)
	}
}

func TestRender_MarksInsertsAndDeletes(t *testing.T) {
	rec, err := NewHistory(filepath.Join(t.TempDir(), "h.json")).
		Record("Setting", "", "old word", "new word")
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	var b strings.Builder
	Render(&b, rec)
	out := b.String()

	if !strings.Contains(out, fgRed+strike+"old") {
		t.Errorf("deleted text not struck through: %q", out)
	}
	if !strings.Contains(out, fgGreen+uline+"new") {
		t.Errorf("inserted text not underlined: %q", out)
	}
	if !strings.Contains(out, "word") {
		t.Errorf("unchanged text missing: %q", out)
	}
}

func TestCoalesceSpaces_MergesRuns(t *testing.T) {
	rec, err := NewHistory(filepath.Join(t.TempDir(), "h.json")).
		Record("Setting", "", "alpha beta gamma", "alpha delta epsilon gamma")
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	// "delta epsilon" should come back as one insert run, not two.
	for _, d := range rec.Deltas {
		if d.Op > 0 && strings.Contains(d.Text, "delta") {
			if !strings.Contains(d.Text, "epsilon") {
				t.Errorf("insert run not coalesced: %+v", rec.Deltas)
			}
		}
	}
}
