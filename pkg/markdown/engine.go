// Package markdown implements the project document engine: a canonical
// normalizer for externally-edited markdown and a section-level patch
// engine over a single `##`-structured document.
package markdown

import (
	"strings"

	"github.com/charmbracelet/log"
)

// FullDocumentSync is the reserved section name that replaces the whole
// document instead of patching a single section.
const FullDocumentSync = "FULL_DOCUMENT_SYNC"

// DefaultSections are the headings seeded into a brand-new project document.
var DefaultSections = []string{"Ideas-Notes", "Setting", "Full Outline", "Characters"}

// DefaultSkeleton returns the seed document used when no project document
// exists yet: a title plus the default sections, all with empty bodies.
func DefaultSkeleton() string {
	var b strings.Builder
	b.WriteString("# Project\n")
	for _, name := range DefaultSections {
		b.WriteString("\n## ")
		b.WriteString(name)
		b.WriteString("\n")
	}
	return NormalizeMarkdown(b.String())
}

// Engine sequences patch requests into normalized document mutations. It is
// constructed once at startup and passed to the request layer; it holds no
// document state of its own.
type Engine struct {
	known map[string]struct{}
}

func NewEngine() *Engine {
	known := make(map[string]struct{}, len(DefaultSections))
	for _, name := range DefaultSections {
		known[strings.ToLower(name)] = struct{}{}
	}
	return &Engine{known: known}
}

// ApplyExternalPatch applies a patch from an outside editor to the current
// document and returns the fully normalized result, which is what gets
// persisted.
//
// The replacement body is normalized on its own before patching so malformed
// external input never contaminates the document, and the whole document is
// normalized again afterwards because patching can introduce new blank-line
// adjacencies. Applying the same patch twice yields the same document.
func (e *Engine) ApplyExternalPatch(document, sectionName, rawBody string) string {
	if sectionName == FullDocumentSync {
		return NormalizeMarkdown(rawBody)
	}

	// Advisory only: unknown sections are created on demand.
	if _, ok := e.known[strings.ToLower(sectionName)]; !ok {
		log.Warn("patch targets a section outside the default set; creating it", "section", sectionName)
	}

	body := NormalizeMarkdown(rawBody)
	return NormalizeMarkdown(ApplyPatchToSection(document, sectionName, body))
}

// Section reads one section body from the document, normalized on the way
// out. An absent section yields an empty body, not an error.
func (e *Engine) Section(document, sectionName string) string {
	return ExtractSection(NormalizeMarkdown(document), sectionName)
}

// Document returns the normalized form of the whole document.
func (e *Engine) Document(document string) string {
	return NormalizeMarkdown(document)
}
