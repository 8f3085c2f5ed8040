// Package diff records section patch history as word-level diffs. Every
// applied patch leaves a record of the section body before and after, so a
// writer can see what an agent changed.
package diff

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/ksuid"

	"writegeist/pkg/utils"
)

// Record is one applied patch: the section body before and after, plus the
// word-level deltas between them.
type Record struct {
	ID        string            `json:"id"`
	Section   string            `json:"section"`
	Label     string            `json:"label,omitempty"`
	Before    string            `json:"before"`
	After     string            `json:"after"`
	Deltas    []utils.WordDelta `json:"deltas"`
	Timestamp string            `json:"timestamp"`
}

// Stats summarizes a record's deltas.
type Stats struct {
	Inserted int `json:"inserted"`
	Deleted  int `json:"deleted"`
}

// History is an append-only patch log persisted as JSON next to the data.
type History struct {
	path string

	mu      sync.Mutex
	records []Record
}

// NewHistory opens the history at path, loading prior records if the file
// exists. A missing or unreadable file starts an empty history.
func NewHistory(path string) *History {
	h := &History{path: path}
	if utils.Exists(path) {
		if recs, err := utils.Load[[]Record](path); err == nil {
			h.records = recs
		}
	}
	return h
}

// Record appends a patch record and persists the history. The record is
// returned so callers can report what changed.
func (h *History) Record(section, label, before, after string) (Record, error) {
	rec := Record{
		ID:        ksuid.New().String(),
		Section:   section,
		Label:     label,
		Before:    before,
		After:     after,
		Deltas:    coalesceSpaces(utils.DiffWords(before, after)),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, rec)
	if err := utils.Save(h.path, h.records); err != nil {
		return rec, fmt.Errorf("diff: persisting history: %w", err)
	}
	return rec, nil
}

// Records returns a copy of all recorded patches, oldest first.
func (h *History) Records() []Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Record, len(h.records))
	copy(out, h.records)
	return out
}

// DeltaStats counts inserted and deleted words in a record.
func DeltaStats(rec Record) Stats {
	var s Stats
	for _, d := range rec.Deltas {
		if strings.TrimSpace(d.Text) == "" {
			continue
		}
		switch {
		case d.Op > 0:
			s.Inserted++
		case d.Op < 0:
			s.Deleted++
		}
	}
	return s
}

// coalesceSpaces merges adjacent deltas with the same operation, folding
// unchanged whitespace into the surrounding run.
func coalesceSpaces(in []utils.WordDelta) []utils.WordDelta {
	out := make([]utils.WordDelta, 0, len(in))
	flush := func(op int, buf *strings.Builder) {
		if buf.Len() == 0 {
			return
		}
		out = append(out, utils.WordDelta{Op: op, Text: buf.String()})
		buf.Reset()
	}
	curOp := -2
	var buf strings.Builder
	for _, d := range in {
		if strings.TrimSpace(d.Text) == "" && d.Op == 0 {
			buf.WriteString(d.Text)
			continue
		}
		if curOp != d.Op && curOp != -2 {
			flush(curOp, &buf)
		}
		if curOp != d.Op {
			curOp = d.Op
		}
		buf.WriteString(d.Text)
	}
	flush(curOp, &buf)
	return out
}

const (
	ansiReset = "\x1b[0m"
	fgGreen   = "\x1b[32m"
	fgRed     = "\x1b[31m"
	uline     = "\x1b[4m"
	strike    = "\x1b[9m"
)

// Render writes a record's deltas with ANSI markup, insertions underlined
// green and deletions struck-through red.
func Render(w io.Writer, rec Record) {
	for _, d := range rec.Deltas {
		switch {
		case d.Op > 0:
			fmt.Fprintf(w, "%s%s%s%s", fgGreen, uline, d.Text, ansiReset)
		case d.Op < 0:
			fmt.Fprintf(w, "%s%s%s%s", fgRed, strike, d.Text, ansiReset)
		default:
			io.WriteString(w, d.Text)
		}
	}
	io.WriteString(w, "\n")
}
