package ingest

import (
	"regexp"
	"slices"
	"strings"
)

var capitalizedRX = regexp.MustCompile(`\b[[:upper:]][[:lower:]]+(?:\s+[[:upper:]][[:lower:]]+){0,2}\b`)

// Sentence-starting words that look like names to the capitalization
// heuristic but never are.
var commonWords = map[string]struct{}{
	"the": {}, "and": {}, "but": {}, "then": {}, "when": {}, "where": {},
	"after": {}, "before": {}, "there": {}, "this": {}, "that": {},
	"she": {}, "his": {}, "her": {}, "they": {}, "its": {},
}

// heuristicNames is the conservative local fallback when model extraction
// fails: capitalized words seen at least twice, most frequent first.
func heuristicNames(text string) []string {
	counts := map[string]int{}
	for _, m := range capitalizedRX.FindAllString(text, -1) {
		if len(m) < 3 {
			continue
		}
		if _, ok := commonWords[strings.ToLower(m)]; ok {
			continue
		}
		counts[m]++
	}

	type kv struct {
		k string
		v int
	}
	var arr []kv
	for k, v := range counts {
		if v >= 2 {
			arr = append(arr, kv{k, v})
		}
	}
	slices.SortFunc(arr, func(a, b kv) int {
		if a.v != b.v {
			return b.v - a.v
		}
		return strings.Compare(a.k, b.k)
	})

	out := make([]string, 0, len(arr))
	for _, it := range arr {
		out = append(out, it.k)
	}
	return out
}

// heuristicPOV counts first- vs third-person pronouns, mirroring the
// pre-model behavior this service started with.
func heuristicPOV(text string) []string {
	lower := " " + strings.ToLower(text) + " "
	first := strings.Count(lower, " i ") + strings.Count(lower, "my") + strings.Count(lower, "me")
	third := strings.Count(lower, " he ") + strings.Count(lower, " she ")

	if first > third {
		return []string{"First Person"}
	}
	return []string{"Third Person"}
}

// basicStats computes the metadata fields that need no model at all.
func basicStats(r *Result) map[string]any {
	words := len(strings.Fields(r.Text))
	reading := words / 200 // ~200 WPM
	if reading < 1 {
		reading = 1
	}
	return map[string]any{
		"word_count":           words,
		"character_count":      len(r.Characters),
		"location_count":       len(r.Locations),
		"reading_time_minutes": reading,
	}
}
