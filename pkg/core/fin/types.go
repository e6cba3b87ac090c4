// Package fin implements the financial statement normalization pipeline.
// It maps free-text OpenDART line items onto a fixed canonical account
// vocabulary, reconciles duplicates with account-specific rules, fills
// structurally required accounts, joins auxiliary market/disclosure signals
// and produces the rows persisted to TB_FINANCIAL_VARIABLE.
package fin

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// OpenDART report type codes.
const (
	ReportAnnual = "11011" // 사업보고서
	ReportHalf   = "11012" // 반기보고서
	ReportQ1     = "11013" // 1분기보고서
	ReportQ3     = "11014" // 3분기보고서
)

// prevReport maps a report code to the comparable prior period used for the
// average-equity calculation. Q1 (11013) is the only transition that crosses
// a fiscal year boundary: its predecessor is last year's annual report.
var prevReport = map[string]string{
	ReportAnnual: ReportQ3,
	ReportQ3:     ReportHalf,
	ReportHalf:   ReportQ1,
	ReportQ1:     ReportAnnual,
}

// Line is one statement line flowing through the pipeline. Raw filings come
// in with AmountText set; Canonicalize parses it into Amount. Rows appended
// by later stages (disclosure flags) carry string values in AmountText only.
type Line struct {
	CorpCode  string
	RceptNo   string
	ReprtCode string
	BsnsYear  string
	SjNm      string
	AccountID string
	AccountNm string

	AmountText string
	Amount     *float64
	Ord        *int
	FsDiv      string

	// Set by pipeline stages.
	StdAccount string
	CorpName   string
	StockCode  string
	IsLLM      bool
}

// VariableRecord is the persistence shape of TB_FINANCIAL_VARIABLE.
// AccountAmount is string-encoded; empty means no value yet.
type VariableRecord struct {
	CorpCode      string
	RceptNo       string
	ReprtCode     string
	BsnsYear      string
	AccountNm     string
	AccountAmount string
	IsLLM         bool
	IsComplete    bool
}

// Company is one row of the company master.
type Company struct {
	CorpCode  string
	CorpName  string
	StockCode string
}

// MarketCap is a daily exchange closing market capitalization.
type MarketCap struct {
	Date      time.Time
	StockCode string
	Value     float64
}

// DisclosureFlagSource answers the two disclosure-event predicates used by
// AddDisclosureFlags. Both return corp codes matching the condition for the
// given business year.
type DisclosureFlagSource interface {
	MajorityChangedTwice(ctx context.Context, year int) ([]string, error)
	SmallPublicOffering(ctx context.Context, year int) ([]string, error)
}

// EquityLookup resolves a prior-period equity value from a persisted source.
// A nil value with nil error means "not found"; the caller moves on to the
// next provider.
type EquityLookup interface {
	PriorEquity(ctx context.Context, corpCode string, year int, reprtCode string) (*float64, error)
}

// ParseAmount converts a raw amount string to a number, stripping commas.
// Non-numeric input yields nil rather than an error.
func ParseAmount(s string) *float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// groupKey identifies a completion/formatting group.
type groupKey struct {
	CorpCode  string
	BsnsYear  string
	ReprtCode string
	FsDiv     string
}

// bucketKey identifies a deduplication bucket within one canonical account.
type bucketKey struct {
	CorpCode  string
	BsnsYear  string
	ReprtCode string
}

func padLeft(s string, width int) string {
	for len(s) < width {
		s = "0" + s
	}
	return s
}
