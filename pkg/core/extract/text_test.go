package extract

import (
	"strings"
	"testing"
)

func TestCleanHTMLStripsMarkup(t *testing.T) {
	html := `<table><tr><td>이자비용</td><td>1,234</td></tr></table>`
	got := CleanHTML(html)
	if strings.Contains(got, "<") {
		t.Errorf("markup survived: %q", got)
	}
	if !strings.Contains(got, "이자비용") || !strings.Contains(got, "1,234") {
		t.Errorf("cell text lost: %q", got)
	}
}

func TestSnippetNearKeywordsMergesOverlaps(t *testing.T) {
	text := strings.Repeat("가", 50) + "대여금" + strings.Repeat("나", 10) + "대여금" + strings.Repeat("다", 50)
	got := SnippetNearKeywords(text, []string{"대여금"}, 30)
	// Two occurrences 10 runes apart with a 30-rune window overlap into one
	// span; the joined result must not duplicate the middle section.
	if strings.Count(got, "나나나나나나나나나나") != 1 {
		t.Errorf("overlapping windows not merged: %q", got)
	}
	if !strings.HasPrefix(got, strings.Repeat("가", 30)) {
		t.Errorf("window start wrong: %q", got[:40])
	}
}

func TestSnippetNearKeywordsNoMatch(t *testing.T) {
	if got := SnippetNearKeywords("전혀 다른 내용", []string{"대여금"}, 100); got != "" {
		t.Errorf("expected empty snippet, got %q", got)
	}
}

func TestParseNumeric(t *testing.T) {
	cases := []struct {
		in   string
		want *int64
	}{
		{"1,234,567", i64(1234567)},
		{"-42", i64(-42)},
		{"0", i64(0)},
		{"3.75", i64(3)},
		{"약 1,234원", nil},
		{"없음", nil},
		{"", nil},
		{"12억", nil},
	}
	for _, c := range cases {
		got := ParseNumeric(c.in)
		switch {
		case c.want == nil && got != nil:
			t.Errorf("ParseNumeric(%q) = %d, want nil", c.in, *got)
		case c.want != nil && (got == nil || *got != *c.want):
			t.Errorf("ParseNumeric(%q) = %v, want %d", c.in, got, *c.want)
		}
	}
}

func i64(v int64) *int64 { return &v }
