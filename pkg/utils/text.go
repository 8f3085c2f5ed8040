package utils

import (
	"unicode"

	"github.com/aryann/difflib"
)

// TokenizeWords splits s into runs of word characters, punctuation, and
// whitespace. The runs concatenate back to the original string, so a diff
// over the tokens can be rendered in place.
func TokenizeWords(s string) []string {
	var out []string
	var cur []rune
	prev := -1
	flush := func() {
		if len(cur) > 0 {
			out = append(out, string(cur))
			cur = cur[:0]
		}
	}
	for _, r := range s {
		class := runeClass(r)
		if class != prev && prev != -1 {
			flush()
		}
		prev = class
		cur = append(cur, r)
	}
	flush()
	return out
}

// runeClass buckets a rune for tokenization: whitespace, word (letters,
// digits and intra-word punctuation), or other.
func runeClass(r rune) int {
	switch {
	case unicode.IsSpace(r):
		return 0
	case unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' || r == '-' || r == '\'':
		return 1
	default:
		return 2
	}
}

// WordDelta is one run of a word-level diff. Op is -1 for deleted text,
// 0 for unchanged, +1 for inserted.
type WordDelta struct {
	Op   int
	Text string
}

// DiffWords compares two strings token by token and returns the delta runs
// in document order.
func DiffWords(a, b string) []WordDelta {
	recs := difflib.Diff(TokenizeWords(a), TokenizeWords(b))
	out := make([]WordDelta, 0, len(recs))
	for _, r := range recs {
		d := WordDelta{Text: r.Payload}
		switch r.Delta {
		case difflib.LeftOnly:
			d.Op = -1
		case difflib.RightOnly:
			d.Op = +1
		}
		out = append(out, d)
	}
	return out
}
