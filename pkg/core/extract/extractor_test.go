package extract

import (
	"context"
	"strings"
	"testing"

	"github.com/DONECHAE/Daegu2025/pkg/core/prompt"
)

// scriptedProvider answers by matching markers in the user prompt.
type scriptedProvider struct {
	answers map[string]string // marker → response
	calls   int
}

func (p *scriptedProvider) GenerateResponse(_ context.Context, userPrompt, _ string, _ map[string]interface{}) (string, error) {
	p.calls++
	for marker, answer := range p.answers {
		if strings.Contains(userPrompt, marker) {
			return answer, nil
		}
	}
	return "해당 없음", nil
}

func registerPrompt(t *testing.T, account, text string) {
	t.Helper()
	if err := prompt.Get().Register(&prompt.Template{Account: account, UserPrompt: text}); err != nil {
		t.Fatal(err)
	}
}

func TestExtractLoanPairSingleLLMCall(t *testing.T) {
	registerPrompt(t, "대여금", "대여금 JSON 추출 지시")
	provider := &scriptedProvider{answers: map[string]string{
		"대여금 JSON 추출 지시": `{"단기대여금": 1000, "장기대여금": 2000}`,
	}}
	e := NewExtractor(provider, nil)

	short, err := e.Extract(context.Background(), "<p>대여금 내역</p>", AccountShortTermLoans, "20240101000001")
	if err != nil {
		t.Fatal(err)
	}
	long, err := e.Extract(context.Background(), "<p>대여금 내역</p>", AccountLongTermLoans, "20240101000001")
	if err != nil {
		t.Fatal(err)
	}

	if *short.Amount != 1000 || *long.Amount != 2000 {
		t.Errorf("amounts = %d/%d, want 1000/2000", *short.Amount, *long.Amount)
	}
	if !short.Complete || !long.Complete {
		t.Errorf("loan results must be complete")
	}
	if provider.calls != 1 {
		t.Errorf("same filing must reuse the cached loan answer, got %d calls", provider.calls)
	}
}

func TestExtractBorrowingsFallsBackToItemized(t *testing.T) {
	registerPrompt(t, AccountTotalBorrowings, "총차입금 단일 숫자 지시")
	registerPrompt(t, "총차입금", "총차입금 내역 JSON 지시")
	registerPrompt(t, "리스부채", "리스부채 내역 JSON 지시")
	provider := &scriptedProvider{answers: map[string]string{
		"총차입금 단일 숫자 지시": "표에서 확인되지 않습니다",
		"총차입금 내역 JSON 지시": `{"단기차입금": 100, "장기차입금": 200}`,
		"리스부채 내역 JSON 지시": `{"금융리스부채_유동": 10, "금융리스부채_비유동": 5}`,
	}}
	e := NewExtractor(provider, nil)

	res, err := e.Extract(context.Background(), "<p>차입금 주석</p>", AccountTotalBorrowings, "20240101000002")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Complete || res.Amount == nil || *res.Amount != 315 {
		t.Fatalf("itemized total = %+v, want 315", res)
	}
}

func TestExtractBorrowingsSingleNumberShortCircuits(t *testing.T) {
	registerPrompt(t, AccountTotalBorrowings, "총차입금 단일 숫자 지시")
	provider := &scriptedProvider{answers: map[string]string{
		"총차입금 단일 숫자 지시": "1,500,000",
	}}
	e := NewExtractor(provider, nil)

	res, err := e.Extract(context.Background(), "<p>차입금 주석</p>", AccountTotalBorrowings, "20240101000003")
	if err != nil {
		t.Fatal(err)
	}
	if *res.Amount != 1500000 {
		t.Errorf("amount = %d, want 1500000", *res.Amount)
	}
	if provider.calls != 1 {
		t.Errorf("single-number answer must skip the itemized pass, got %d calls", provider.calls)
	}
}

func TestExtractNonNumericResolvesToZero(t *testing.T) {
	registerPrompt(t, "이자비용", "이자비용 추출 지시")
	provider := &scriptedProvider{answers: map[string]string{
		"이자비용 추출 지시": "주석에 해당 금액이 없습니다",
	}}
	e := NewExtractor(provider, nil)

	res, err := e.Extract(context.Background(), "<p>이자비용 주석</p>", "이자비용", "20240101000004")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Complete || res.Amount == nil || *res.Amount != 0 {
		t.Fatalf("persistent non-numeric answer must resolve to zero: %+v", res)
	}
	if provider.calls != 2 {
		t.Errorf("expected exactly two attempts, got %d", provider.calls)
	}
}

func TestExtractWithoutPromptStaysPending(t *testing.T) {
	provider := &scriptedProvider{}
	e := NewExtractor(provider, nil)

	res, err := e.Extract(context.Background(), "<p>주석</p>", "등록안된계정", "20240101000005")
	if err != nil {
		t.Fatal(err)
	}
	if res.Complete || res.Amount != nil {
		t.Errorf("missing prompt must leave the row pending: %+v", res)
	}
	if provider.calls != 0 {
		t.Errorf("no LLM call expected, got %d", provider.calls)
	}
}
