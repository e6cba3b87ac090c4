package fin

import "testing"

func completionMaps() *AccountMaps {
	return NewAccountMaps(
		map[string][]string{
			"자본총계":      {"자본총계"},
			"영업활동현금흐름":  {"영업활동현금흐름"},
			"투자활동현금흐름":  {"투자활동현금흐름"},
			"매출액":       {"매출액"},
			"당기순이익":     {"당기순이익"},
			"총차입금(단일)":  {},
			"자산총계":      {"자산총계"},
			"이자비용":      {"이자비용"},
		},
		map[string][]string{
			"자본총계":     {"재무상태표"},
			"영업활동현금흐름": {"현금흐름표"},
			"투자활동현금흐름": {"현금흐름표"},
			"매출액":      {"손익계산서"},
			"당기순이익":    {"손익계산서"},
			"총차입금(단일)": {"재무상태표"},
			"자산총계":     {"재무상태표"},
			"이자비용":     {"손익계산서"},
		},
	)
}

func amt(v float64) *float64 { return &v }
func ordinal(v int) *int     { return &v }

func TestFillMissingAccountsAnnualSuperset(t *testing.T) {
	p := NewProcessor(completionMaps())
	in := []Line{
		{CorpCode: "1", BsnsYear: "2024", ReprtCode: ReportAnnual, FsDiv: "OFS",
			StdAccount: "매출액", AccountNm: "매출액", Amount: amt(100), Ord: ordinal(1)},
	}
	out := p.FillMissingAccounts(in)

	present := make(map[string]bool)
	for _, l := range out {
		present[l.StdAccount] = true
	}
	// Annual groups must cover the full vocabulary: every full-report
	// account plus every annual-only account.
	for _, want := range append(append([]string{}, p.Maps().FullReports...), p.Maps().AnnualOnly...) {
		if !present[want] {
			t.Errorf("account %q missing after completion", want)
		}
	}

	for _, l := range out {
		if l.StdAccount == "자본총계" {
			if l.Amount != nil || l.Ord != nil {
				t.Errorf("placeholder should carry nil amount and ordinal")
			}
			if l.AccountNm != "누락_자본총계" {
				t.Errorf("placeholder name = %q", l.AccountNm)
			}
			if l.SjNm != "재무상태표" {
				t.Errorf("placeholder section = %q", l.SjNm)
			}
			if l.CorpCode != "1" || l.BsnsYear != "2024" || l.FsDiv != "OFS" {
				t.Errorf("placeholder lost group keys: %+v", l)
			}
		}
	}
}

func TestFillMissingAccountsSkipsWeakInterimGroups(t *testing.T) {
	p := NewProcessor(completionMaps())
	// Quarterly group containing only an annual-only account: no full-report
	// signal, so the group is passed through untouched.
	in := []Line{
		{CorpCode: "1", BsnsYear: "2024", ReprtCode: ReportQ1, FsDiv: "OFS",
			StdAccount: "이자비용", Amount: amt(5)},
	}
	out := p.FillMissingAccounts(in)
	if len(out) != 1 {
		t.Fatalf("expected passthrough, got %d rows", len(out))
	}
}

func TestFillMissingAccountsQuarterlyWithFullSignal(t *testing.T) {
	p := NewProcessor(completionMaps())
	in := []Line{
		{CorpCode: "1", BsnsYear: "2024", ReprtCode: ReportQ1, FsDiv: "CFS",
			StdAccount: "매출액", Amount: amt(10)},
	}
	out := p.FillMissingAccounts(in)

	present := make(map[string]bool)
	for _, l := range out {
		present[l.StdAccount] = true
	}
	for _, want := range p.Maps().FullReports {
		if !present[want] {
			t.Errorf("full-report account %q missing", want)
		}
	}
	// Annual-only accounts stay absent on quarterly filings.
	if present["자산총계"] {
		t.Errorf("annual-only account completed on a quarterly group")
	}
}
