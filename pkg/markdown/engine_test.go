package markdown_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"writegeist/pkg/markdown"
)

func TestEngine_ApplyExternalPatch(t *testing.T) {
	e := markdown.NewEngine()

	got := e.ApplyExternalPatch(sampleDoc, "Setting", "New Place")
	if body := markdown.ExtractSection(got, "Setting"); body != "New Place" {
		t.Errorf("Setting = %q, want %q", body, "New Place")
	}
	if body := markdown.ExtractSection(got, "Characters"); body != "Kane" {
		t.Errorf("Characters = %q, want %q", body, "Kane")
	}
	if !strings.HasSuffix(got, "\n") || strings.Contains(got, "\n\n\n") {
		t.Errorf("patched document is not normalized: %q", got)
	}
}

func TestEngine_PatchIsIdempotent(t *testing.T) {
	e := markdown.NewEngine()

	once := e.ApplyExternalPatch(sampleDoc, "Setting", "dirty body   \n\n\n\nwith gaps")
	twice := e.ApplyExternalPatch(once, "Setting", "dirty body   \n\n\n\nwith gaps")
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("applying the same patch twice changed the document:\n%s", diff)
	}
}

func TestEngine_BodyNormalizedIndependently(t *testing.T) {
	e := markdown.NewEngine()

	got := e.ApplyExternalPatch(sampleDoc, "Setting", "<ul><li>Lodge</li><li>Citadel</li></ul>")
	want := "* Lodge\n* Citadel"
	if body := markdown.ExtractSection(got, "Setting"); body != want {
		t.Errorf("Setting = %q, want %q", body, want)
	}
}

func TestEngine_FullDocumentSync(t *testing.T) {
	e := markdown.NewEngine()

	raw := "# Brand New\n\n## X\n\nY"
	got := e.ApplyExternalPatch(sampleDoc, markdown.FullDocumentSync, raw)
	if diff := cmp.Diff(markdown.NormalizeMarkdown(raw), got); diff != "" {
		t.Errorf("sync should replace the whole document:\n%s", diff)
	}
	if strings.Contains(got, "Kane") {
		t.Errorf("prior content survived a full sync: %q", got)
	}
}

func TestEngine_UnknownSectionIsCreated(t *testing.T) {
	e := markdown.NewEngine()

	got := e.ApplyExternalPatch(sampleDoc, "Dream Journal", "entry one")
	if body := markdown.ExtractSection(got, "Dream Journal"); body != "entry one" {
		t.Errorf("unknown section should be created, got %q", body)
	}
}

func TestEngine_SectionReadPath(t *testing.T) {
	e := markdown.NewEngine()

	dirty := "# P\r\n\r\n## Setting   \r\n\r\n\r\n\r\nOld   \r\n"
	if got := e.Section(dirty, "setting"); got != "Old" {
		t.Errorf("Section = %q, want %q", got, "Old")
	}
	if got := e.Section(dirty, "Nope"); got != "" {
		t.Errorf("absent section should read as empty, got %q", got)
	}
}

func TestDefaultSkeleton(t *testing.T) {
	doc := markdown.DefaultSkeleton()
	for _, name := range markdown.DefaultSections {
		if !strings.Contains(doc, "## "+name) {
			t.Errorf("skeleton missing section %q:\n%s", name, doc)
		}
		if body := markdown.ExtractSection(doc, name); body != "" {
			t.Errorf("skeleton section %q should be empty, got %q", name, body)
		}
	}
	if diff := cmp.Diff(doc, markdown.NormalizeMarkdown(doc)); diff != "" {
		t.Errorf("skeleton is not in canonical form:\n%s", diff)
	}
}
