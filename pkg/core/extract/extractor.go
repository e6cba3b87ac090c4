package extract

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/DONECHAE/Daegu2025/pkg/core/llm"
	"github.com/DONECHAE/Daegu2025/pkg/core/prompt"
)

const snippetWindow = 1000

// Account names with dedicated extraction paths.
const (
	AccountTotalBorrowings = "총차입금(단일)"
	AccountShortTermLoans  = "단기대여금"
	AccountLongTermLoans   = "장기대여금"
)

const defaultSystemPrompt = "당신은 재무제표 주석의 숫자 데이터를 정확하게 추출하는 정보 추출 전문가입니다. " +
	"HTML 형태의 재무제표 주석에서 특정 항목의 '당기말' 또는 '당기/당분기/당반기' 금액만 숫자로 추출하세요. " +
	"'전기' 금액은 제외합니다. 금액은 항상 '원' 단위로 환산(천원→×1,000 / 백만원→×100,000)하고, " +
	"음수를 의미하는 ((value)) 표기는 반드시 '-' 부호로 반영하세요. " +
	"출력에는 텍스트/단위를 포함하지 말고, 쉼표는 허용됩니다. 하나의 숫자만 반환, 없으면 0을 반환하세요."

const borrowingsSystemPrompt = "당신은 기업의 총차입금 항목을 정확하게 추출하는 금융 정보 추출 전문가입니다. " +
	"HTML 형태의 재무제표 주석에서 특정 항목의 '당기말/당기/당분기/당반기' 금액만 숫자로 추출하세요(전기 제외). " +
	"모든 금액은 '원' 단위로 환산하세요(천원×1,000 / 백만원×100,000). " +
	"항목: 단기차입금, 장기차입금, 유동성장기차입금, 사채(유동/비유동), 금융리스부채(유동/비유동). " +
	"아래 JSON 포맷을 정확히 지켜 응답하세요(키/순서 동일, 값은 정수):\n" +
	"{\n" +
	" '단기차입금': 0,\n" +
	" '장기차입금': 0,\n" +
	" '유동성장기차입금': 0,\n" +
	" '사채_유동': 0,\n" +
	" '사채_비유동': 0,\n" +
	" '금융리스부채_유동': 0,\n" +
	" '금융리스부채_비유동': 0,\n" +
	" '금융리스부채_합계': 0\n" +
	"}\n"

// Result is the outcome of one account extraction. A nil Amount with
// Complete=false means the account has no registered prompt and stays
// pending.
type Result struct {
	Amount   *int64
	Complete bool
	Raw      string
}

// Extractor answers "what is this account's current-period amount" against a
// footnote document. Loan receivables are extracted once per filing and
// cached, since short and long term arrive as separate candidate rows.
type Extractor struct {
	provider llm.Provider
	keywords map[string][]string

	mu        sync.Mutex
	loanCache map[string]map[string]int64
}

// NewExtractor creates an extractor. keywords maps canonical account names to
// the footnote keywords that anchor the snippet windows; a missing entry
// falls back to the account name itself.
func NewExtractor(provider llm.Provider, keywords map[string][]string) *Extractor {
	if keywords == nil {
		keywords = make(map[string][]string)
	}
	return &Extractor{
		provider:  provider,
		keywords:  keywords,
		loanCache: make(map[string]map[string]int64),
	}
}

// Extract resolves one account amount from a footnote document.
func (e *Extractor) Extract(ctx context.Context, footnoteHTML, accountName, rceptNo string) (Result, error) {
	cleaned := CleanHTML(footnoteHTML)

	if accountName == AccountShortTermLoans || accountName == AccountLongTermLoans {
		loans, err := e.loanReceivables(ctx, cleaned, rceptNo)
		if err != nil {
			return Result{}, err
		}
		amt := loans[accountName]
		return Result{Amount: &amt, Complete: true, Raw: fmt.Sprintf("%v", loans)}, nil
	}

	userPrompt := prompt.ForAccount(accountName)
	if userPrompt == "" {
		return Result{}, nil
	}

	chunk := e.snippet(cleaned, accountName)

	if accountName == AccountTotalBorrowings {
		value, err := e.callLLM(ctx, chunk, userPrompt, accountName)
		if err != nil {
			return Result{}, err
		}
		if v := ParseNumeric(value); v != nil {
			log.Printf("[EXTRACT] %s single-number answer: %d", accountName, *v)
			return Result{Amount: v, Complete: true, Raw: value}, nil
		}
		return e.itemizedBorrowings(ctx, cleaned)
	}

	// Two attempts for ordinary accounts; a persistent non-numeric answer
	// resolves to zero so the row does not stay pending forever.
	for attempt := 0; attempt < 2; attempt++ {
		value, err := e.callLLM(ctx, chunk, userPrompt, accountName)
		if err != nil {
			return Result{}, err
		}
		if v := ParseNumeric(value); v != nil {
			return Result{Amount: v, Complete: true, Raw: value}, nil
		}
	}
	zero := int64(0)
	return Result{Amount: &zero, Complete: true, Raw: "0"}, nil
}

// snippet narrows the footnote to the keyword neighborhoods of an account,
// falling back to the full text when no keyword matches.
func (e *Extractor) snippet(cleaned, accountName string) string {
	keywords := e.keywords[accountName]
	if len(keywords) == 0 {
		keywords = []string{accountName}
	}
	s := SnippetNearKeywords(cleaned, keywords, snippetWindow)
	if strings.TrimSpace(s) == "" {
		log.Printf("[EXTRACT] no keyword snippet for %s, using full footnote", accountName)
		return cleaned
	}
	return s
}

// itemizedBorrowings asks for the borrowings and lease liability breakdowns
// separately, merges the items and sums them.
func (e *Extractor) itemizedBorrowings(ctx context.Context, cleaned string) (Result, error) {
	merged := make(map[string]int64)
	for _, category := range []string{"총차입금", "리스부채"} {
		userPrompt := prompt.ForAccount(category)
		if userPrompt == "" {
			continue
		}
		chunk := e.snippet(cleaned, category)
		value, err := e.callLLM(ctx, chunk, userPrompt, category)
		if err != nil {
			return Result{}, err
		}
		if !strings.HasPrefix(strings.TrimSpace(value), "{") {
			continue
		}
		for k, v := range ParseBorrowings(value) {
			merged[k] += v
		}
	}

	total := TotalBorrowings(merged)
	log.Printf("[EXTRACT] itemized borrowings %v, total %d", merged, total)
	return Result{Amount: &total, Complete: true, Raw: fmt.Sprintf("%v", merged)}, nil
}

// loanReceivables extracts the short/long term loan pair once per filing.
func (e *Extractor) loanReceivables(ctx context.Context, cleaned, rceptNo string) (map[string]int64, error) {
	e.mu.Lock()
	if cached, ok := e.loanCache[rceptNo]; ok {
		e.mu.Unlock()
		return cached, nil
	}
	e.mu.Unlock()

	userPrompt := prompt.ForAccount("대여금")
	if userPrompt == "" {
		return nil, fmt.Errorf("no prompt registered for 대여금")
	}

	chunk := e.snippet(cleaned, "대여금")
	value, err := e.callLLM(ctx, chunk, userPrompt, "대여금")
	if err != nil {
		return nil, err
	}

	loans := ParseLoans(value)
	e.mu.Lock()
	e.loanCache[rceptNo] = loans
	e.mu.Unlock()
	log.Printf("[EXTRACT] loan receivables cached for %s: %v", rceptNo, loans)
	return loans, nil
}

// callLLM sends one extraction request, retrying transient failures.
func (e *Extractor) callLLM(ctx context.Context, text, userPrompt, accountName string) (string, error) {
	systemPrompt := defaultSystemPrompt
	if strings.Contains(userPrompt, "총차입금") {
		systemPrompt = borrowingsSystemPrompt
	}

	fullPrompt := fmt.Sprintf("아래는 기업의 재무제표 주석입니다:\n\n%s\n\n%s", text, userPrompt)
	options := map[string]interface{}{}
	if model := prompt.ModelForAccount(accountName); model != "" {
		options["model"] = model
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		value, err := e.provider.GenerateResponse(ctx, fullPrompt, systemPrompt, options)
		if err == nil {
			return value, nil
		}
		lastErr = err
		log.Printf("[EXTRACT] LLM call failed (attempt %d): %v", attempt+1, err)
		select {
		case <-time.After(30 * time.Second):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", fmt.Errorf("LLM call failed after retries: %w", lastErr)
}
