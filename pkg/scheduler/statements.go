package scheduler

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/DONECHAE/Daegu2025/pkg/core/alert"
	"github.com/DONECHAE/Daegu2025/pkg/core/fin"
	"github.com/DONECHAE/Daegu2025/pkg/core/opendart"
	"github.com/DONECHAE/Daegu2025/pkg/core/store"
)

// Statement divisions of the OpenDART single-account API.
const (
	DivConsolidated = "CFS"
	DivSeparate     = "OFS"
)

// ChooseReportPeriod maps a company's fiscal closing month onto the report
// type and business year currently due. Months since the last fiscal year
// end fall into quarters: the first three months target last year's annual
// report, then Q1, half-year and Q3 of the running year. Blank or invalid
// closing months default to December.
func ChooseReportPeriod(accMonth string, today time.Time) (reprtCode, bsnsYear string) {
	acc := 12
	if v, err := strconv.Atoi(strings.TrimSpace(accMonth)); err == nil && v >= 1 && v <= 12 {
		acc = v
	}

	month := int(today.Month())
	rel := ((month-acc-1)%12+12)%12 + 1

	lastFYEnd, currentFYEnd := today.Year()-1, today.Year()
	if month > acc {
		lastFYEnd, currentFYEnd = today.Year(), today.Year()+1
	}

	switch {
	case rel <= 3:
		return fin.ReportAnnual, strconv.Itoa(lastFYEnd)
	case rel <= 6:
		return fin.ReportQ1, strconv.Itoa(currentFYEnd)
	case rel <= 9:
		return fin.ReportHalf, strconv.Itoa(currentFYEnd)
	default:
		return fin.ReportQ3, strconv.Itoa(currentFYEnd)
	}
}

// StatementScheduler ingests one statement division for every active
// company: fetch the filing currently due, archive its raw lines, and for
// the separate-statement pass run the normalization pipeline into
// TB_FINANCIAL_VARIABLE.
type StatementScheduler struct {
	client      *opendart.Client
	companies   *store.CompanyRepo
	statements  *store.StatementRepo
	variables   *store.VariableRepo
	disclosures *store.DisclosureRepo
	marketCaps  *store.MarketCapRepo
	processor   *fin.Processor
	alerter     *alert.EmailAlerter

	fsDiv string

	// Manual overrides pin every company to one period, used for backfills.
	ManualYear    string
	ManualQuarter string
}

// NewStatementScheduler wires a statement ingestion job for one division.
func NewStatementScheduler(client *opendart.Client, processor *fin.Processor, alerter *alert.EmailAlerter, fsDiv string) *StatementScheduler {
	return &StatementScheduler{
		client:      client,
		companies:   store.NewCompanyRepo(),
		statements:  store.NewStatementRepo(),
		variables:   store.NewVariableRepo(),
		disclosures: store.NewDisclosureRepo(),
		marketCaps:  store.NewMarketCapRepo(),
		processor:   processor,
		alerter:     alerter,
		fsDiv:       fsDiv,
	}
}

// Run executes one full pass over the active companies.
func (s *StatementScheduler) Run(ctx context.Context) error {
	log.Printf("[STATEMENTS-%s] scheduler start", s.fsDiv)

	corps, err := s.companies.ActiveCorpCodes(ctx)
	if err != nil {
		return fmt.Errorf("failed to load active companies: %w", err)
	}
	archived, err := s.statements.DistinctRceptNos(ctx)
	if err != nil {
		return fmt.Errorf("failed to load archived filings: %w", err)
	}

	var runErrors []string
	errorCodes := make(map[string]bool)

	for _, corp := range corps {
		reprtCode, bsnsYear := ChooseReportPeriod(corp.FiscalMonth, time.Now())
		if s.ManualYear != "" && s.ManualQuarter != "" {
			reprtCode, bsnsYear = s.ManualQuarter, s.ManualYear
		}
		log.Printf("[STATEMENTS-%s] corp=%s report=%s year=%s", s.fsDiv, corp.CorpCode, reprtCode, bsnsYear)

		lines, err := s.fetchFiling(ctx, corp.CorpCode, bsnsYear, reprtCode, archived, errorCodes)
		if err != nil {
			runErrors = append(runErrors, fmt.Sprintf("corp %s: %v", corp.CorpCode, err))
			continue
		}
		if len(lines) == 0 {
			continue
		}

		raw := toRawStatements(lines, s.fsDiv)
		if err := s.statements.InsertBatch(ctx, raw); err != nil {
			runErrors = append(runErrors, fmt.Sprintf("corp %s: insert failed: %v", corp.CorpCode, err))
			continue
		}
		for _, r := range raw {
			archived[r.RceptNo] = true
		}
		log.Printf("[STATEMENTS-%s] corp=%s archived %d lines", s.fsDiv, corp.CorpCode, len(raw))

		// Normalization runs on the separate-statement pass only; the
		// consolidated pass just archives.
		if s.fsDiv != DivSeparate {
			continue
		}
		if err := s.processVariables(ctx, lines); err != nil {
			runErrors = append(runErrors, fmt.Sprintf("corp %s: pipeline failed: %v", corp.CorpCode, err))
		}
	}

	if len(errorCodes) > 0 {
		codes := make([]string, 0, len(errorCodes))
		for c := range errorCodes {
			codes = append(codes, c)
		}
		sort.Strings(codes)
		log.Printf("[STATEMENTS-%s] API error code summary: %s", s.fsDiv, strings.Join(codes, ", "))
	}
	if s.alerter != nil {
		s.alerter.SendErrorDigest(fmt.Sprintf("statements-%s", s.fsDiv), runErrors)
	}
	log.Printf("[STATEMENTS-%s] scheduler done (%d errors)", s.fsDiv, len(runErrors))
	return nil
}

// fetchFiling retrieves one filing with transport retries and API-key
// failover. A filing already archived, or a period with no data, returns an
// empty slice with no error.
func (s *StatementScheduler) fetchFiling(ctx context.Context, corpCode, bsnsYear, reprtCode string, archived map[string]bool, errorCodes map[string]bool) ([]opendart.StatementLine, error) {
	for attempt := 0; attempt < 3; attempt++ {
		resp, err := s.client.SingleAccountAll(ctx, corpCode, bsnsYear, reprtCode, s.fsDiv)
		if err != nil {
			log.Printf("[STATEMENTS-%s] attempt %d failed: %v", s.fsDiv, attempt+1, err)
			if attempt < 2 {
				select {
				case <-time.After(60 * time.Second):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
				continue
			}
			return nil, fmt.Errorf("3 attempts failed: %w", err)
		}

		switch resp.Status {
		case opendart.StatusOK:
			if len(resp.List) == 0 {
				return nil, nil
			}
			if archived[resp.List[0].RceptNo] {
				return nil, nil
			}
			return resp.List, nil

		case opendart.StatusNoData:
			log.Printf("[STATEMENTS-%s] %s", s.fsDiv, opendart.StatusMessage(resp.Status))
			return nil, nil

		case opendart.StatusRateLimited:
			errorCodes[resp.Status] = true
			log.Printf("[STATEMENTS-%s] %s", s.fsDiv, opendart.StatusMessage(resp.Status))
			if s.client.RotateKey() {
				select {
				case <-time.After(5 * time.Second):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
				continue
			}
			log.Printf("[STATEMENTS-%s] backup key exhausted too, skipping corp", s.fsDiv)
			return nil, nil

		default:
			errorCodes[resp.Status] = true
			return nil, fmt.Errorf("OpenDART status %s (%s)", resp.Status, opendart.StatusMessage(resp.Status))
		}
	}
	return nil, nil
}

// processVariables runs the normalization pipeline on one filing's lines and
// persists the new variable rows.
func (s *StatementScheduler) processVariables(ctx context.Context, apiLines []opendart.StatementLine) error {
	existing, err := s.variables.ExistingPairs(ctx)
	if err != nil {
		return fmt.Errorf("failed to load existing variable pairs: %w", err)
	}
	master, err := s.companies.All(ctx)
	if err != nil {
		return fmt.Errorf("failed to load company master: %w", err)
	}

	lines := toFinLines(apiLines, s.fsDiv)
	lines = s.processor.Canonicalize(lines)
	lines = s.processor.FillMissingAccounts(lines)
	lines = s.processor.KeepLatestByAccount(lines)
	lines, warnings := s.processor.Dedupe(lines)
	if warnings > 0 {
		log.Printf("[STATEMENTS-%s] %d dedupe groups left unreduced", s.fsDiv, warnings)
	}
	lines = s.processor.ZeroFillOrdinal(lines)
	lines = s.processor.MergeCompanyInfo(lines, master)
	lines = s.processor.AddDisclosureFlags(ctx, lines, s.disclosures)

	caps, err := s.marketCaps.MarketCaps(ctx, batchYears(lines), batchStockCodes(lines))
	if err != nil {
		log.Printf("[STATEMENTS-%s] market cap query failed: %v", s.fsDiv, err)
	} else {
		lines = s.processor.AppendMarketCap(lines, caps)
	}

	lines = s.processor.MarkExtractionTargets(lines)
	lines = s.processor.AddAverageEquity(ctx, lines, s.variables, s.statements)

	records := s.processor.FormatForDatabase(lines)
	records = dedupeBatch(records)

	toInsert := make([]fin.VariableRecord, 0, len(records))
	for _, r := range records {
		if existing[[2]string{r.RceptNo, r.AccountNm}] {
			continue
		}
		if r.AccountAmount == "" {
			r.AccountAmount = "0"
		}
		toInsert = append(toInsert, r)
	}
	if len(toInsert) == 0 {
		log.Printf("[STATEMENTS-%s] no new variable rows", s.fsDiv)
		return nil
	}
	if err := s.variables.InsertBatch(ctx, toInsert); err != nil {
		return fmt.Errorf("failed to insert variables: %w", err)
	}
	log.Printf("[STATEMENTS-%s] inserted %d variable rows", s.fsDiv, len(toInsert))
	return nil
}

// dedupeBatch keeps the last record per (RCEPT_NO, ACCOUNT_NM), preserving
// first-occurrence order. Later pipeline stages append refined rows for the
// same account, and the refined row wins.
func dedupeBatch(records []fin.VariableRecord) []fin.VariableRecord {
	last := make(map[[2]string]int, len(records))
	var order [][2]string
	for i, r := range records {
		k := [2]string{r.RceptNo, r.AccountNm}
		if _, seen := last[k]; !seen {
			order = append(order, k)
		}
		last[k] = i
	}
	out := make([]fin.VariableRecord, 0, len(order))
	for _, k := range order {
		out = append(out, records[last[k]])
	}
	return out
}

func toRawStatements(lines []opendart.StatementLine, fsDiv string) []store.RawStatement {
	out := make([]store.RawStatement, 0, len(lines))
	for _, l := range lines {
		ord, _ := strconv.Atoi(l.Ord)
		out = append(out, store.RawStatement{
			RceptNo:       l.RceptNo,
			ReprtCode:     l.ReprtCode,
			BsnsYear:      l.BsnsYear,
			CorpCode:      l.CorpCode,
			SjDiv:         l.SjDiv,
			SjNm:          l.SjNm,
			AccountID:     l.AccountID,
			AccountNm:     l.AccountNm,
			AccountDetail: l.AccountDetail,
			ThstrmNm:      l.ThstrmNm,
			ThstrmAmount:  l.ThstrmAmount,
			FrmtrmNm:      l.FrmtrmNm,
			FrmtrmAmount:  l.FrmtrmAmount,
			BfefrmtrmNm:   l.BfefrmtrmNm,
			BfefrmtrmAmt:  l.BfefrmtrmAmount,
			Ord:           ord,
			Currency:      l.Currency,
			FsDiv:         fsDiv,
		})
	}
	return out
}

func toFinLines(lines []opendart.StatementLine, fsDiv string) []fin.Line {
	out := make([]fin.Line, 0, len(lines))
	for _, l := range lines {
		fl := fin.Line{
			CorpCode:   l.CorpCode,
			RceptNo:    l.RceptNo,
			ReprtCode:  l.ReprtCode,
			BsnsYear:   l.BsnsYear,
			SjNm:       l.SjNm,
			AccountID:  l.AccountID,
			AccountNm:  l.AccountNm,
			AmountText: l.ThstrmAmount,
			FsDiv:      fsDiv,
		}
		if ord, err := strconv.Atoi(l.Ord); err == nil {
			fl.Ord = &ord
		}
		out = append(out, fl)
	}
	return out
}

func batchYears(lines []fin.Line) []int {
	set := make(map[int]bool)
	for _, l := range lines {
		if y, err := strconv.Atoi(l.BsnsYear); err == nil {
			set[y] = true
		}
	}
	years := make([]int, 0, len(set))
	for y := range set {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

func batchStockCodes(lines []fin.Line) []string {
	set := make(map[string]bool)
	for _, l := range lines {
		if l.StockCode != "" {
			set[l.StockCode] = true
		}
	}
	codes := make([]string, 0, len(set))
	for c := range set {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}
