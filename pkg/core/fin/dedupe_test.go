package fin

import (
	"reflect"
	"testing"
)

func dedupeLine(std, name string, ord *int, amount *float64) Line {
	return Line{
		CorpCode: "1", BsnsYear: "2024", ReprtCode: ReportAnnual,
		StdAccount: std, AccountNm: name, Ord: ord, Amount: amount,
	}
}

func TestDedupeLoanSumSkipsNil(t *testing.T) {
	p := NewProcessor(testMaps())
	in := []Line{
		dedupeLine("단기대여금", "단기대여금", ordinal(1), amt(100)),
		dedupeLine("단기대여금", "대여금", ordinal(2), nil),
		dedupeLine("단기대여금", "단기대여금", ordinal(3), amt(50)),
	}
	out, warnings := p.Dedupe(in)
	if warnings != 0 {
		t.Fatalf("unexpected warnings: %d", warnings)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 row, got %d", len(out))
	}
	if out[0].Amount == nil || *out[0].Amount != 150 {
		t.Errorf("sum = %v, want 150", out[0].Amount)
	}
}

func TestDedupeRevenueDropsAmountDuplicatesFirst(t *testing.T) {
	p := NewProcessor(testMaps())
	// Amount duplicates are dropped on the amount key before the ordinal
	// pick: {ord:2,amt:100},{ord:1,amt:100},{ord:3,amt:200} keeps ord 2 and
	// ord 3, then min ordinal selects ord 2, not ord 1.
	in := []Line{
		dedupeLine("매출액", "매출액", ordinal(2), amt(100)),
		dedupeLine("매출액", "매출액", ordinal(1), amt(100)),
		dedupeLine("매출액", "매출액", ordinal(3), amt(200)),
	}
	out, _ := p.Dedupe(in)
	if len(out) != 1 {
		t.Fatalf("expected 1 row, got %d", len(out))
	}
	if *out[0].Ord != 2 || *out[0].Amount != 100 {
		t.Errorf("got ord=%d amt=%v, want ord=2 amt=100", *out[0].Ord, *out[0].Amount)
	}
}

func TestDedupeTotalAssetsNamePriorityAndRecency(t *testing.T) {
	p := NewProcessor(testMaps())
	in := []Line{
		dedupeLine("자산총계", "총자산", ordinal(1), amt(1)),
		dedupeLine("자산총계", "자산총계", ordinal(5), amt(2)),
		dedupeLine("자산총계", "자산총계", ordinal(9), amt(3)),
	}
	in[1].RceptNo = "20240101000001"
	in[2].RceptNo = "20240301000009"
	out, _ := p.Dedupe(in)
	if len(out) != 1 {
		t.Fatalf("expected 1 row, got %d", len(out))
	}
	// Exact name 자산총계 beats 총자산; within it the later filing wins.
	if out[0].RceptNo != "20240301000009" {
		t.Errorf("picked %s, want the most recent acceptance number", out[0].RceptNo)
	}
}

func TestDedupeNetIncomeSectionPriority(t *testing.T) {
	p := NewProcessor(testMaps())
	in := []Line{
		dedupeLine("당기순이익", "당기순이익", ordinal(1), amt(10)),
		dedupeLine("당기순이익", "당기순이익", ordinal(2), amt(20)),
	}
	in[0].SjNm = "포괄손익계산서"
	in[1].SjNm = "현금흐름표"
	out, _ := p.Dedupe(in)
	if len(out) != 1 || out[0].SjNm != "현금흐름표" {
		t.Fatalf("cash flow statement row should win, got %+v", out)
	}
}

func TestDedupePayablesPrefersShortTermNames(t *testing.T) {
	p := NewProcessor(testMaps())
	in := []Line{
		dedupeLine("매입채무", "매입채무", ordinal(1), amt(5)),
		dedupeLine("매입채무", "유동매입채무", ordinal(3), amt(7)),
	}
	out, _ := p.Dedupe(in)
	if len(out) != 1 || out[0].AccountNm != "유동매입채무" {
		t.Fatalf("short-term presentation should win, got %+v", out)
	}
}

func TestDedupeCOGSSumFallback(t *testing.T) {
	p := NewProcessor(testMaps())
	// No exact 매출원가 name: after amount-dedup the remaining rows are
	// summed (100 + 100 dedups to one 100, plus 50 = 150).
	in := []Line{
		dedupeLine("매출원가", "제품매출원가", ordinal(1), amt(100)),
		dedupeLine("매출원가", "상품매출원가", ordinal(2), amt(100)),
		dedupeLine("매출원가", "용역매출원가", ordinal(3), amt(50)),
	}
	out, _ := p.Dedupe(in)
	if len(out) != 1 {
		t.Fatalf("expected 1 row, got %d", len(out))
	}
	if *out[0].Amount != 150 {
		t.Errorf("sum = %v, want 150", *out[0].Amount)
	}
}

func TestDedupeDefaultRuleNilOrdinalLast(t *testing.T) {
	p := NewProcessor(testMaps())
	in := []Line{
		dedupeLine("재고자산", "재고자산", nil, amt(1)),
		dedupeLine("재고자산", "재고자산", ordinal(7), amt(2)),
	}
	out, _ := p.Dedupe(in)
	if len(out) != 1 || out[0].Ord == nil || *out[0].Ord != 7 {
		t.Fatalf("row with a real ordinal should beat the nil one: %+v", out)
	}
}

func TestDedupeSingletonPassthroughAndSeparateBuckets(t *testing.T) {
	p := NewProcessor(testMaps())
	a := dedupeLine("매출액", "매출액", ordinal(1), amt(10))
	b := dedupeLine("매출액", "매출액", ordinal(1), amt(20))
	b.CorpCode = "2" // different bucket, no reduction across companies
	out, _ := p.Dedupe([]Line{a, b})
	if len(out) != 2 {
		t.Fatalf("buckets must not merge across companies, got %d rows", len(out))
	}
}

func TestDedupeIdempotent(t *testing.T) {
	p := NewProcessor(testMaps())
	in := []Line{
		dedupeLine("매출액", "매출액", ordinal(2), amt(100)),
		dedupeLine("매출액", "매출액", ordinal(1), amt(100)),
		dedupeLine("자산총계", "자산", ordinal(4), amt(900)),
		dedupeLine("단기대여금", "단기대여금", ordinal(1), amt(3)),
		dedupeLine("단기대여금", "단기대여금", ordinal(2), amt(4)),
	}
	once, _ := p.Dedupe(in)
	twice, _ := p.Dedupe(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("dedupe is not idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
	}
	// No bucket may hold more than one row after a single pass.
	seen := make(map[string]bool)
	for _, l := range once {
		key := l.StdAccount + "|" + l.CorpCode + "|" + l.BsnsYear + "|" + l.ReprtCode
		if seen[key] {
			t.Errorf("bucket %s has more than one row", key)
		}
		seen[key] = true
	}
}
