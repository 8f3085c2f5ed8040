package utils

import (
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

func TestSyncMap_LoadOrStoreClaimsOnce(t *testing.T) {
	m := NewSyncMap[map[string]int]()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, loaded := m.LoadOrStore("chapter", 1); !loaded {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := wins.Load(); got != 1 {
		t.Errorf("%d goroutines claimed the key, want exactly 1", got)
	}
	if v, ok := m.Load("chapter"); !ok || v != 1 {
		t.Errorf("Load after LoadOrStore = %v %v", v, ok)
	}
}

func TestSyncMap_LoadOrStoreReturnsExisting(t *testing.T) {
	m := NewSyncMap[map[string]int]()
	m.Store("k", 7)

	actual, loaded := m.LoadOrStore("k", 9)
	if !loaded || actual != 7 {
		t.Errorf("LoadOrStore on existing key = %d %v, want 7 true", actual, loaded)
	}
}

func TestTokenizeWords_RoundTrip(t *testing.T) {
	cases := []string{
		"Kane walked, slowly, to the shore.",
		"  leading and trailing  ",
		"hyphen-ated words_with underscores and don't",
		"",
	}
	for _, in := range cases {
		if got := strings.Join(TokenizeWords(in), ""); got != in {
			t.Errorf("tokens of %q reassemble to %q", in, got)
		}
	}
}

func TestDiffWords_MarksEdit(t *testing.T) {
	deltas := DiffWords("the quiet town", "the loud town")
	var sawDelete, sawInsert bool
	for _, d := range deltas {
		if d.Op == -1 && d.Text == "quiet" {
			sawDelete = true
		}
		if d.Op == +1 && d.Text == "loud" {
			sawInsert = true
		}
	}
	if !sawDelete || !sawInsert {
		t.Errorf("deltas missed the edit: %+v", deltas)
	}
}
