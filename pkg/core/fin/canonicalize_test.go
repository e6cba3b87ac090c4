package fin

import (
	"testing"
)

func testMaps() *AccountMaps {
	return NewAccountMaps(
		map[string][]string{
			"매출액":      {"매출액", "영업수익"},
			"자산총계":     {"자산총계", "자산", "총자산"},
			"당기순이익":    {"당기순이익", "분기순이익"},
			"총차입금":     {"단기차입금", "장기차입금"},
			"총차입금(단일)": {},
		},
		map[string][]string{
			"매출액":      {"손익계산서", "포괄손익계산서"},
			"자산총계":     {"재무상태표"},
			"당기순이익":    {"현금흐름표", "손익계산서", "포괄손익계산서"},
			"총차입금":     {"재무상태표"},
			"총차입금(단일)": {"재무상태표"},
		},
	)
}

func TestCleanKorean(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"매출액(주석 5)", "매출액"},
		{"Ⅰ. 유동자산", "유동자산"},
		{"Revenue 매출액", "매출액"},
		{"", ""},
		{"ASSETS", ""},
	}
	for _, c := range cases {
		if got := CleanKorean(c.in); got != c.want {
			t.Errorf("CleanKorean(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestCanonicalizeMatchesNameAndSection(t *testing.T) {
	p := NewProcessor(testMaps())
	lines := []Line{
		{CorpCode: "1", ReprtCode: ReportAnnual, AccountNm: "매출액(주1)", SjNm: "손익계산서", AmountText: "1,000"},
		// Right name, wrong section: dropped.
		{CorpCode: "1", ReprtCode: ReportAnnual, AccountNm: "매출액", SjNm: "재무상태표", AmountText: "5"},
		// No canonical match at all: dropped.
		{CorpCode: "1", ReprtCode: ReportAnnual, AccountNm: "기타포괄손익", SjNm: "손익계산서", AmountText: "7"},
	}
	out := p.Canonicalize(lines)
	if len(out) != 1 {
		t.Fatalf("expected 1 row, got %d", len(out))
	}
	if out[0].StdAccount != "매출액" {
		t.Errorf("StdAccount = %q", out[0].StdAccount)
	}
	if out[0].Amount == nil || *out[0].Amount != 1000 {
		t.Errorf("amount not parsed with comma stripping: %v", out[0].Amount)
	}
}

func TestCanonicalizeAmountCoercion(t *testing.T) {
	p := NewProcessor(testMaps())
	out := p.Canonicalize([]Line{
		{ReprtCode: ReportAnnual, AccountNm: "매출액", SjNm: "손익계산서", AmountText: "해당없음"},
	})
	if len(out) != 1 {
		t.Fatalf("expected 1 row, got %d", len(out))
	}
	if out[0].Amount != nil {
		t.Errorf("non-numeric amount should be nil, got %v", *out[0].Amount)
	}
}

func TestCanonicalizeReportTypeRestriction(t *testing.T) {
	p := NewProcessor(testMaps())
	lines := []Line{
		// Full-report account survives on a quarterly filing.
		{ReprtCode: ReportQ1, AccountNm: "매출액", SjNm: "손익계산서"},
		// Annual-only account on a quarterly filing: dropped.
		{ReprtCode: ReportQ1, AccountNm: "자산총계", SjNm: "재무상태표"},
		// Same account survives on the annual filing.
		{ReprtCode: ReportAnnual, AccountNm: "자산총계", SjNm: "재무상태표"},
	}
	out := p.Canonicalize(lines)
	if len(out) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(out))
	}
	for _, l := range out {
		if l.StdAccount == "자산총계" && l.ReprtCode != ReportAnnual {
			t.Errorf("annual-only account kept on report %s", l.ReprtCode)
		}
	}
}

func TestCanonicalizeSkipsAggregateKeyAndEmptyResult(t *testing.T) {
	p := NewProcessor(testMaps())
	// 단기차입금 belongs only to the reserved aggregate key, which is not
	// matched at this stage.
	out := p.Canonicalize([]Line{
		{ReprtCode: ReportAnnual, AccountNm: "단기차입금", SjNm: "재무상태표"},
	})
	if len(out) != 0 {
		t.Fatalf("expected empty result, got %d rows", len(out))
	}
}
