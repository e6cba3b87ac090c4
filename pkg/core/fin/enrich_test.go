package fin

import (
	"context"
	"strconv"
	"testing"
	"time"
)

func TestKeepLatestByAccount(t *testing.T) {
	p := NewProcessor(testMaps())
	in := []Line{
		{CorpCode: "1", BsnsYear: "2024", ReprtCode: ReportAnnual, StdAccount: "매출액", RceptNo: "20240101000001"},
		{CorpCode: "1", BsnsYear: "2024", ReprtCode: ReportAnnual, StdAccount: "매출액", RceptNo: "20240501000002"},
		// Non-numeric acceptance numbers sort as zero.
		{CorpCode: "1", BsnsYear: "2024", ReprtCode: ReportAnnual, StdAccount: "자산총계", RceptNo: "corrupt"},
		{CorpCode: "1", BsnsYear: "2024", ReprtCode: ReportAnnual, StdAccount: "자산총계", RceptNo: "20230101000001"},
	}
	out := p.KeepLatestByAccount(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(out))
	}
	for _, l := range out {
		switch l.StdAccount {
		case "매출액":
			if l.RceptNo != "20240501000002" {
				t.Errorf("매출액 kept %s", l.RceptNo)
			}
		case "자산총계":
			if l.RceptNo != "20230101000001" {
				t.Errorf("자산총계 kept %s", l.RceptNo)
			}
		}
	}
}

func TestZeroFillOrdinal(t *testing.T) {
	p := NewProcessor(testMaps())
	in := []Line{
		{StdAccount: "매출액", Ord: ordinal(3), Amount: nil},
		{StdAccount: "자산총계", Ord: nil, Amount: nil},
		{StdAccount: "당기순이익", Ord: ordinal(1), Amount: amt(9)},
	}
	out := p.ZeroFillOrdinal(in)
	if out[0].Amount == nil || *out[0].Amount != 0 {
		t.Errorf("present-but-empty line should zero-fill")
	}
	if out[1].Amount != nil {
		t.Errorf("line without ordinal must stay nil")
	}
	if *out[2].Amount != 9 {
		t.Errorf("existing amount must not change")
	}
}

func TestMergeCompanyInfoZeroPads(t *testing.T) {
	p := NewProcessor(testMaps())
	in := []Line{{CorpCode: "12345", StdAccount: "매출액"}}
	out := p.MergeCompanyInfo(in, []Company{{CorpCode: "00012345", CorpName: "테스트", StockCode: "005930"}})
	if out[0].CorpCode != "00012345" {
		t.Errorf("corp code not padded: %s", out[0].CorpCode)
	}
	if out[0].CorpName != "테스트" || out[0].StockCode != "005930" {
		t.Errorf("master join failed: %+v", out[0])
	}
}

type fakeFlagSource struct {
	majority map[int][]string
	offering map[int][]string
}

func (f fakeFlagSource) MajorityChangedTwice(_ context.Context, year int) ([]string, error) {
	return f.majority[year], nil
}
func (f fakeFlagSource) SmallPublicOffering(_ context.Context, year int) ([]string, error) {
	return f.offering[year], nil
}

func TestAddDisclosureFlags(t *testing.T) {
	p := NewProcessor(testMaps())
	in := []Line{
		{CorpCode: "00012345", BsnsYear: "2024", ReprtCode: ReportAnnual, RceptNo: "20250315000001", StdAccount: "매출액"},
		{CorpCode: "00012345", BsnsYear: "2024", ReprtCode: ReportQ1, RceptNo: "20240515000001", StdAccount: "매출액"},
	}
	src := fakeFlagSource{
		offering: map[int][]string{2024: {"00012345"}},
		majority: map[int][]string{},
	}
	out := p.AddDisclosureFlags(context.Background(), in, src)
	if len(out) != 4 {
		t.Fatalf("expected 2 flag rows for the annual group only, got %d total", len(out))
	}
	var small, change *Line
	for i := range out {
		switch out[i].StdAccount {
		case FlagSmallOffering:
			small = &out[i]
		case FlagMajorityChange:
			change = &out[i]
		}
	}
	if small == nil || small.AmountText != "true" {
		t.Errorf("small offering flag wrong: %+v", small)
	}
	if change == nil || change.AmountText != "false" {
		t.Errorf("majority change flag wrong: %+v", change)
	}
	if small.ReprtCode != ReportAnnual {
		t.Errorf("flags must attach to the annual group")
	}
}

func TestAppendMarketCapNearestDate(t *testing.T) {
	p := NewProcessor(testMaps())
	in := []Line{{
		CorpCode: "00012345", BsnsYear: "2024", ReprtCode: ReportAnnual,
		RceptNo: "20240315000123", StockCode: "5930", StdAccount: "매출액",
	}}
	day := func(s string) time.Time {
		d, _ := time.Parse("20060102", s)
		return d
	}
	// No row for the filing date or the day before; the day after exists and
	// must be picked up.
	caps := []MarketCap{
		{Date: day("20240316"), StockCode: "005930", Value: 1234567},
		{Date: day("20240320"), StockCode: "005930", Value: 999},
	}
	out := p.AppendMarketCap(in, caps)
	if len(out) != 2 {
		t.Fatalf("expected appended market-cap row, got %d rows", len(out))
	}
	row := out[1]
	if row.StdAccount != MarketCapAccount {
		t.Fatalf("appended row account = %q", row.StdAccount)
	}
	if row.Amount == nil || *row.Amount != 1234567 {
		t.Errorf("amount = %v, want the 2024-03-16 value", row.Amount)
	}
	if row.StockCode != "005930" {
		t.Errorf("stock code not padded: %s", row.StockCode)
	}
}

func TestAppendMarketCapNoMatchAddsNothing(t *testing.T) {
	p := NewProcessor(testMaps())
	in := []Line{{RceptNo: "20240315000123", StockCode: "005930", StdAccount: "매출액"}}
	caps := []MarketCap{{Date: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), StockCode: "005930", Value: 1}}
	if out := p.AppendMarketCap(in, caps); len(out) != 1 {
		t.Fatalf("expected no appended row, got %d", len(out))
	}
}

type mapEquityLookup map[string]float64

func (m mapEquityLookup) PriorEquity(_ context.Context, corp string, year int, reprt string) (*float64, error) {
	if v, ok := m[equityKey(corp, year, reprt)]; ok {
		return &v, nil
	}
	return nil, nil
}

func equityKey(corp string, year int, reprt string) string {
	return corp + "|" + reprt + "|" + strconv.Itoa(year)
}

func TestAddAverageEquityQ1CrossesYearBoundary(t *testing.T) {
	p := NewProcessor(testMaps())
	in := []Line{{
		CorpCode: "1", BsnsYear: "2024", ReprtCode: ReportQ1,
		AccountNm: "자본총계", SjNm: "재무상태표", StdAccount: "자본총계", Amount: amt(200),
	}}
	// Q1 2024 must look up the 2023 annual report, not 2024.
	lookup := mapEquityLookup{
		equityKey("1", 2023, ReportAnnual): 100,
		equityKey("1", 2024, ReportAnnual): 99999,
	}
	out := p.AddAverageEquity(context.Background(), in, lookup)
	if len(out) != 2 {
		t.Fatalf("expected appended average row, got %d", len(out))
	}
	avg := out[1]
	if avg.StdAccount != AverageEquityAccount {
		t.Fatalf("appended account = %q", avg.StdAccount)
	}
	if avg.Amount == nil || *avg.Amount != 150 {
		t.Errorf("average = %v, want (200+100)/2 = 150", avg.Amount)
	}
}

func TestAddAverageEquitySameYearPredecessor(t *testing.T) {
	p := NewProcessor(testMaps())
	in := []Line{{
		CorpCode: "1", BsnsYear: "2024", ReprtCode: ReportHalf,
		AccountNm: "자본총계", SjNm: "재무상태표", StdAccount: "자본총계", Amount: amt(300),
	}}
	// Half-year predecessor is Q1 of the same year.
	lookup := mapEquityLookup{equityKey("1", 2024, ReportQ1): 100}
	out := p.AddAverageEquity(context.Background(), in, lookup)
	if *out[1].Amount != 200 {
		t.Errorf("average = %v, want 200", out[1].Amount)
	}
}

func TestAddAverageEquityBatchBeatsStores(t *testing.T) {
	p := NewProcessor(testMaps())
	in := []Line{
		{CorpCode: "1", BsnsYear: "2024", ReprtCode: ReportAnnual,
			AccountNm: "자본총계", SjNm: "재무상태표", StdAccount: "자본총계", Amount: amt(500)},
		{CorpCode: "1", BsnsYear: "2024", ReprtCode: ReportQ3,
			AccountNm: "자본총계", SjNm: "재무상태표", StdAccount: "자본총계", Amount: amt(300)},
	}
	// The persisted store disagrees with the batch; the batch value wins.
	lookup := mapEquityLookup{equityKey("1", 2024, ReportQ3): 111}
	out := p.AddAverageEquity(context.Background(), in, lookup)
	var annualAvg *Line
	for i := range out {
		if out[i].StdAccount == AverageEquityAccount && out[i].ReprtCode == ReportAnnual {
			annualAvg = &out[i]
		}
	}
	if annualAvg == nil || *annualAvg.Amount != 400 {
		t.Fatalf("average should use batch prior 300: %+v", annualAvg)
	}
}

func TestAddAverageEquityMissingPriorYieldsNil(t *testing.T) {
	p := NewProcessor(testMaps())
	in := []Line{{
		CorpCode: "1", BsnsYear: "2024", ReprtCode: ReportAnnual,
		AccountNm: "자본총계", SjNm: "재무상태표", StdAccount: "자본총계", Amount: amt(500),
	}}
	out := p.AddAverageEquity(context.Background(), in)
	if len(out) != 2 {
		t.Fatalf("average row should still be appended, got %d rows", len(out))
	}
	if out[1].Amount != nil {
		t.Errorf("average must be nil when the prior is missing")
	}
}
