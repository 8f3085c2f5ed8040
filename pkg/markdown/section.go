package markdown

import "strings"

// ExtractSection returns the body of the named `##` section: every line
// strictly between the heading and the next `## ` heading (or end of
// document), with leading and trailing blank lines trimmed.
//
// Heading comparison is case-insensitive and literal; the name is never
// interpreted as a pattern. A missing section is a normal state and yields
// the empty string. If the heading occurs more than once, the first match
// wins.
func ExtractSection(document, sectionName string) string {
	lines := splitLines(document)
	hi := headingIndex(lines, sectionName)
	if hi < 0 {
		return ""
	}
	body := trimBlankEdges(lines[hi+1 : sectionEnd(lines, hi)])
	return strings.Join(body, "\n")
}

// ApplyPatchToSection replaces the body of the named section with newBody,
// preserving the heading line and every unrelated line verbatim, in order.
// A blank newBody leaves the heading with no body lines. When the heading
// does not exist the section is appended at the end of the document:
// a blank separator (only if the last line is non-blank), the synthesized
// heading, a blank line, then the body.
//
// The result is a pure function of its inputs; callers that need canonical
// spacing run NormalizeMarkdown over the result.
func ApplyPatchToSection(document, sectionName, newBody string) string {
	lines := splitLines(document)
	hadNewline := strings.HasSuffix(document, "\n")

	var body []string
	if strings.TrimSpace(newBody) != "" {
		body = splitLines(strings.TrimRight(newBody, "\n"))
	}

	hi := headingIndex(lines, sectionName)
	if hi < 0 {
		out := append([]string(nil), lines...)
		if len(out) > 0 && strings.TrimSpace(out[len(out)-1]) != "" {
			out = append(out, "")
		}
		out = append(out, "## "+sectionName, "")
		out = append(out, body...)
		return joinLines(out, hadNewline)
	}

	end := sectionEnd(lines, hi)
	out := append([]string(nil), lines[:hi+1]...)
	if len(body) > 0 {
		out = append(out, "")
		out = append(out, body...)
	}
	if end < len(lines) {
		out = append(out, "")
		out = append(out, lines[end:]...)
	}
	return joinLines(out, hadNewline)
}

// headingIndex finds the first line that is `## <name>` after trimming,
// case-insensitively. EqualFold keeps caller-supplied names literal — a
// section called "C++ Notes" matches itself and nothing else.
func headingIndex(lines []string, sectionName string) int {
	want := "## " + sectionName
	for i, line := range lines {
		if strings.EqualFold(strings.TrimSpace(line), want) {
			return i
		}
	}
	return -1
}

// sectionEnd returns the index of the next `## ` heading after start, or
// len(lines). Deeper headings (###) do not terminate a section.
func sectionEnd(lines []string, start int) int {
	for i := start + 1; i < len(lines); i++ {
		if strings.HasPrefix(strings.TrimSpace(lines[i]), "## ") {
			return i
		}
	}
	return len(lines)
}

func trimBlankEdges(lines []string) []string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[start:end]
}

// splitLines splits a document into lines, treating a final "\n" as a
// terminator rather than an empty last line.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func joinLines(lines []string, trailingNewline bool) string {
	s := strings.Join(lines, "\n")
	if trailingNewline && s != "" {
		s += "\n"
	}
	return s
}
