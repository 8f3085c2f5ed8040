package markdown_test

import (
	"regexp"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"writegeist/pkg/markdown"
)

var tagRX = regexp.MustCompile(`<[^>]*>`)

func TestNormalizeMarkdown_CollapseBlankLines(t *testing.T) {
	got := markdown.NormalizeMarkdown("Line1\n\n\n\nLine2\n\n\n\n\nLine3")
	want := "Line1\n\nLine2\n\nLine3\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNormalizeMarkdown_TrailingWhitespace(t *testing.T) {
	got := markdown.NormalizeMarkdown("Line1   \nLine2\t\t\n   Line3   ")
	want := "Line1\nLine2\n   Line3\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNormalizeMarkdown_HeaderSpacing(t *testing.T) {
	got := markdown.NormalizeMarkdown("# Header 1\n\n\n\n## Header 2\n### Header 3\n\nContent")
	want := "# Header 1\n\n## Header 2\n### Header 3\n\nContent\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNormalizeMarkdown_EmptyInput(t *testing.T) {
	if got := markdown.NormalizeMarkdown(""); got != "" {
		t.Errorf("empty input should stay empty, got %q", got)
	}
}

func TestNormalizeMarkdown_SingleNewlinesPreserved(t *testing.T) {
	got := markdown.NormalizeMarkdown("Line1\nLine2\nLine3")
	want := "Line1\nLine2\nLine3\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNormalizeMarkdown_BulletListSpacing(t *testing.T) {
	got := markdown.NormalizeMarkdown("* Item 1\n\n\n* Item 2\n* Item 3\n\n\n\n\n* Item 4")
	want := "* Item 1\n\n* Item 2\n* Item 3\n\n* Item 4\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNormalizeMarkdown_DoubledBulletRepair(t *testing.T) {
	cases := []struct{ in, want string }{
		{"* * Idea one", "* Idea one\n"},
		{"* *  content", "* content\n"},
		{"* * * deep", "* deep\n"},
	}
	for _, tc := range cases {
		if got := markdown.NormalizeMarkdown(tc.in); got != tc.want {
			t.Errorf("NormalizeMarkdown(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeMarkdown_StandaloneAsteriskRemoved(t *testing.T) {
	got := markdown.NormalizeMarkdown("before\n*\n  *  \nafter")
	want := "before\nafter\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNormalizeMarkdown_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"plain text",
		"Line1\n\n\n\nLine2",
		"* * doubled\n*\n\n\n\ncontent   ",
		"<ul><li>Item 1</li><li>Item 2</li></ul>",
		"# Title\r\n\r\n## Section\r\nbody\r\n",
		"\n\n\nleading blanks",
		"   \n\t\n",
		"## Setting\n\n\n* Lodge\n\n\n</li><li>Guild\n\n\n<ul><li>Citadel</li></ul>",
	}
	for _, in := range inputs {
		once := markdown.NormalizeMarkdown(in)
		twice := markdown.NormalizeMarkdown(once)
		if diff := cmp.Diff(once, twice); diff != "" {
			t.Errorf("not idempotent for %q (-once +twice):\n%s", in, diff)
		}
	}
}

func TestNormalizeMarkdown_BlankLineBoundAndTrailingForm(t *testing.T) {
	inputs := []string{
		"a\n\n\n\n\n\nb",
		"x   \n\n\n\ny\t\n\n\n\nz   ",
		"only one line   ",
	}
	for _, in := range inputs {
		got := markdown.NormalizeMarkdown(in)
		if strings.Contains(got, "\n\n\n") {
			t.Errorf("output contains a 3+ newline run: %q", got)
		}
		if !strings.HasSuffix(got, "\n") || strings.HasSuffix(got, "\n\n") {
			t.Errorf("output should end with exactly one newline: %q", got)
		}
		for _, line := range strings.Split(got, "\n") {
			if line != strings.TrimRight(line, " \t") {
				t.Errorf("line retains trailing whitespace: %q", line)
			}
		}
	}
}

func TestNormalizeMarkdown_PreservesCodeFences(t *testing.T) {
	in := "## Code Example\n\n```python\ndef hello():\n    print(\"Hello\")\n```\n\nMore text"
	got := markdown.NormalizeMarkdown(in)
	if !strings.Contains(got, "```python") || !strings.Contains(got, "    print(\"Hello\")") {
		t.Errorf("code fence content mangled:\n%s", got)
	}
}

func TestCleanHTMLArtifacts_ListBoundaries(t *testing.T) {
	in := "* I have an **idea.**\n</li><li>Music is a recurring theme.\n</li><li>Nihilism connects to the music."
	want := "* I have an **idea.**\n\n* Music is a recurring theme.\n\n* Nihilism connects to the music."
	if got := markdown.CleanHTMLArtifacts(in); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCleanHTMLArtifacts_NestedLists(t *testing.T) {
	in := "<ul><li>Item 1</li><li>Item 2</li></ul>\n<li>Item 3</li>\nMore content"
	want := "* Item 1\n* Item 2\n* Item 3\nMore content"
	if got := markdown.CleanHTMLArtifacts(in); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCleanHTMLArtifacts_Entities(t *testing.T) {
	in := `Title &amp; subtitle &lt;test&gt; &quot;quoted&quot; &nbsp; content`
	want := `Title & subtitle <test> "quoted"   content`
	if got := markdown.CleanHTMLArtifacts(in); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCleanHTMLArtifacts_PurgesEveryTag(t *testing.T) {
	in := `<div class="x">a</div> <span>b</span> <br/> &#39;c&#39; <li style="q">d`
	got := markdown.CleanHTMLArtifacts(in)
	if tagRX.MatchString(got) {
		t.Errorf("tags remain in %q", got)
	}
	for _, ent := range []string{"&lt;", "&gt;", "&amp;", "&quot;", "&#39;", "&nbsp;"} {
		if strings.Contains(got, ent) {
			t.Errorf("entity %s remains in %q", ent, got)
		}
	}
}

func TestCleanHTMLArtifacts_Empty(t *testing.T) {
	if got := markdown.CleanHTMLArtifacts(""); got != "" {
		t.Errorf("empty input should stay empty, got %q", got)
	}
}

func TestNormalizeMarkdown_CorruptedBulletDocument(t *testing.T) {
	in := "* I have an **idea.**\n</li><li>Music is a recurring theme.\n</li><li>Nihilism is an underlying theme.\n</li><li>Third person narration.\n* Some chapters use first person."
	got := markdown.NormalizeMarkdown(in)
	if strings.Contains(got, "<li>") || strings.Contains(got, "</li>") {
		t.Fatalf("HTML artifacts remain:\n%s", got)
	}
	for _, line := range strings.Split(strings.TrimSpace(got), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if !strings.HasPrefix(line, "* ") {
			t.Errorf("expected bullet line, got %q", line)
		}
	}
}

func TestNormalizeMarkdown_FullHTMLCleanup(t *testing.T) {
	in := "## Setting\n\n\n* Lodge\n\n\n</li><li>Guild of Tarego — Operates out of the Lodge\n\n\n<ul><li>Citadel</li></ul>"
	want := "## Setting\n\n* Lodge\n\n* Guild of Tarego — Operates out of the Lodge\n\n* Citadel\n"
	if diff := cmp.Diff(want, markdown.NormalizeMarkdown(in)); diff != "" {
		t.Errorf("unexpected normalization (-want +got):\n%s", diff)
	}
}
