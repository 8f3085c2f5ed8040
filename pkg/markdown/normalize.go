package markdown

import (
	"regexp"
	"strings"
)

var (
	liBoundaryRX = regexp.MustCompile(`</li><li>`)
	listTagRX    = regexp.MustCompile(`</?[uo]l>`)
	liOpenRX     = regexp.MustCompile(`<li[^>]*>`)
	liCloseRX    = regexp.MustCompile(`</li>`)
	anyTagRX     = regexp.MustCompile(`<[^>]*>`)

	doubledBulletRX = regexp.MustCompile(`^\*\s*\*\s+(.*)$`)
)

// CleanHTMLArtifacts strips HTML markup that rich-text editors and ingestion
// tooling leak into markdown content. List structure is rewritten to `* `
// bullets, every remaining tag is removed, and the common named entities are
// decoded. Angle-bracket entities decode before &amp; so "&amp;lt;" does not
// unescape twice.
func CleanHTMLArtifacts(text string) string {
	if text == "" {
		return ""
	}

	text = liBoundaryRX.ReplaceAllString(text, "\n* ")
	text = listTagRX.ReplaceAllString(text, "")
	text = liOpenRX.ReplaceAllString(text, "* ")
	text = liCloseRX.ReplaceAllString(text, "")
	text = anyTagRX.ReplaceAllString(text, "")

	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&quot;", `"`)
	text = strings.ReplaceAll(text, "&#39;", "'")
	text = strings.ReplaceAll(text, "&nbsp;", " ")

	return text
}

// NormalizeMarkdown produces the canonical form of a markdown document:
// HTML artifacts cleaned, Unix line endings, no trailing whitespace on any
// line, junk bullet fragments repaired, at most one blank line between
// content, no leading blank lines, and exactly one trailing newline.
//
// The function is total and idempotent: it never fails on malformed input,
// and NormalizeMarkdown(NormalizeMarkdown(x)) == NormalizeMarkdown(x).
func NormalizeMarkdown(text string) string {
	if text == "" {
		return ""
	}

	text = CleanHTMLArtifacts(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	pendingBlank := false

	for _, line := range lines {
		line = strings.TrimRight(line, " \t")

		// A lone "*" is a malformed fragment, not a bullet.
		if strings.TrimSpace(line) == "*" {
			continue
		}
		// Collapse doubled bullet markers ("* * x" -> "* x") to a fixed
		// point so stacked markers resolve in a single pass.
		for doubledBulletRX.MatchString(line) {
			line = doubledBulletRX.ReplaceAllString(line, "* $1")
		}

		if strings.TrimSpace(line) == "" {
			pendingBlank = true
			continue
		}
		if pendingBlank && len(out) > 0 {
			out = append(out, "")
		}
		pendingBlank = false
		out = append(out, line)
	}

	if len(out) == 0 {
		return "\n"
	}
	return strings.Join(out, "\n") + "\n"
}
