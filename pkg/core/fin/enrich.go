package fin

import (
	"context"
	"log"
	"math"
	"strconv"
	"strings"
	"time"
)

// KeepLatestByAccount keeps, per (corp, year, report, canonical account),
// only the row from the most recent filing. Acceptance numbers are compared
// numerically; unparseable ones sort as zero. FS_DIV is deliberately not
// part of the key: consolidated and separate statements run as separate
// scheduler passes.
func (p *Processor) KeepLatestByAccount(lines []Line) []Line {
	if len(lines) == 0 {
		return lines
	}
	type key struct {
		CorpCode, BsnsYear, ReprtCode, StdAccount string
	}
	best := make(map[key]int)
	bestVal := make(map[key]int64)
	var order []key
	for i, l := range lines {
		k := key{l.CorpCode, l.BsnsYear, l.ReprtCode, l.StdAccount}
		v, err := strconv.ParseInt(l.RceptNo, 10, 64)
		if err != nil {
			v = 0
		}
		if _, seen := best[k]; !seen {
			best[k] = i
			bestVal[k] = v
			order = append(order, k)
		} else if v > bestVal[k] {
			best[k] = i
			bestVal[k] = v
		}
	}
	out := make([]Line, 0, len(order))
	for _, k := range order {
		out = append(out, lines[best[k]])
	}
	return out
}

// ZeroFillOrdinal sets amount to 0 for rows that have an ordinal but no
// amount: the line existed in the statement with a blank value, as opposed
// to never existing at all.
func (p *Processor) ZeroFillOrdinal(lines []Line) []Line {
	out := append([]Line(nil), lines...)
	for i := range out {
		if out[i].Ord != nil && out[i].Amount == nil {
			zero := 0.0
			out[i].Amount = &zero
		}
	}
	return out
}

// MergeCompanyInfo left-joins the company master on the zero-padded corp
// code, attaching display name and exchange ticker.
func (p *Processor) MergeCompanyInfo(lines []Line, companies []Company) []Line {
	if len(lines) == 0 {
		return lines
	}
	master := make(map[string]Company, len(companies))
	for _, c := range companies {
		master[padLeft(c.CorpCode, 8)] = c
	}
	out := append([]Line(nil), lines...)
	for i := range out {
		out[i].CorpCode = padLeft(out[i].CorpCode, 8)
		if c, ok := master[out[i].CorpCode]; ok {
			out[i].CorpName = c.CorpName
			out[i].StockCode = c.StockCode
		}
	}
	return out
}

// Disclosure-flag row account names.
const (
	FlagSmallOffering  = "소액공모공시"
	FlagMajorityChange = "최대주주2회변경"
)

// AddDisclosureFlags appends, for every annual-report group, two rows
// carrying string-boolean amounts: whether the company filed a small public
// offering report in the trailing two years, and whether it reported two or
// more majority-shareholder changes in the trailing year. A failed query
// for one year is logged and the remaining years still get their flags.
func (p *Processor) AddDisclosureFlags(ctx context.Context, lines []Line, src DisclosureFlagSource) []Line {
	if len(lines) == 0 {
		return lines
	}

	yearSet := make(map[int]bool)
	for _, l := range lines {
		if y, err := strconv.Atoi(l.BsnsYear); err == nil {
			yearSet[y] = true
		}
	}

	type corpYear struct {
		Corp string
		Year int
	}
	majority := make(map[corpYear]bool)
	offering := make(map[corpYear]bool)
	for y := range yearSet {
		codes, err := src.MajorityChangedTwice(ctx, y)
		if err != nil {
			log.Printf("[FIN-PRE] disclosure flag query failed (year=%d): %v", y, err)
			continue
		}
		for _, c := range codes {
			majority[corpYear{c, y}] = true
		}
		codes, err = src.SmallPublicOffering(ctx, y)
		if err != nil {
			log.Printf("[FIN-PRE] disclosure flag query failed (year=%d): %v", y, err)
			continue
		}
		for _, c := range codes {
			offering[corpYear{c, y}] = true
		}
	}

	seen := make(map[corpYear]bool)
	out := append([]Line(nil), lines...)
	for _, l := range lines {
		if l.ReprtCode != ReportAnnual {
			continue
		}
		year, err := strconv.Atoi(l.BsnsYear)
		if err != nil {
			continue
		}
		k := corpYear{l.CorpCode, year}
		if seen[k] {
			continue
		}
		seen[k] = true

		base := Line{
			CorpCode:  l.CorpCode,
			BsnsYear:  l.BsnsYear,
			RceptNo:   l.RceptNo,
			ReprtCode: l.ReprtCode,
			StockCode: l.StockCode,
			CorpName:  l.CorpName,
			FsDiv:     l.FsDiv,
		}
		small := base
		small.StdAccount = FlagSmallOffering
		small.AmountText = strconv.FormatBool(offering[k])
		change := base
		change.StdAccount = FlagMajorityChange
		change.AmountText = strconv.FormatBool(majority[k])
		out = append(out, small, change)
	}
	return out
}

// MarketCapAccount is the canonical account name of appended market-cap rows.
const MarketCapAccount = "시가총액"

// AppendMarketCap attaches one 시가총액 row per filing when a closing market
// cap exists for the filing date, the day before, or the day after, checked
// in that order, first hit wins. Filings without a match simply get no row.
// The filing date is the 8-digit prefix of the acceptance number.
func (p *Processor) AppendMarketCap(lines []Line, caps []MarketCap) []Line {
	if len(lines) == 0 || len(caps) == 0 {
		return lines
	}

	type capKey struct {
		Stock string
		Date  string
	}
	capIdx := make(map[capKey]float64, len(caps))
	for _, c := range caps {
		capIdx[capKey{padLeft(c.StockCode, 6), c.Date.Format("20060102")}] = c.Value
	}

	out := append([]Line(nil), lines...)
	for i := range out {
		out[i].StockCode = padLeft(out[i].StockCode, 6)
	}

	type filingKey struct {
		CorpCode, BsnsYear, ReprtCode, RceptNo string
	}
	seen := make(map[filingKey]bool)
	for _, l := range out[:len(lines)] {
		if l.RceptNo == "" || len(l.RceptNo) < 8 {
			continue
		}
		fk := filingKey{l.CorpCode, l.BsnsYear, l.ReprtCode, l.RceptNo}
		if seen[fk] {
			continue
		}
		seen[fk] = true

		date, err := time.Parse("20060102", l.RceptNo[:8])
		if err != nil {
			continue
		}
		for _, d := range []time.Time{date, date.AddDate(0, 0, -1), date.AddDate(0, 0, 1)} {
			mkt, ok := capIdx[capKey{l.StockCode, d.Format("20060102")}]
			if !ok {
				continue
			}
			value := math.Trunc(mkt)
			row := Line{
				CorpCode:   l.CorpCode,
				BsnsYear:   l.BsnsYear,
				ReprtCode:  l.ReprtCode,
				RceptNo:    l.RceptNo,
				StockCode:  l.StockCode,
				CorpName:   l.CorpName,
				FsDiv:      l.FsDiv,
				StdAccount: MarketCapAccount,
				Amount:     &value,
			}
			out = append(out, row)
			break
		}
	}
	return out
}

// AverageEquityAccount is the canonical account name of computed rows.
const AverageEquityAccount = "평균자기자본"

// equityAliases are cleaned names recognized as the period-end equity line.
var equityAliases = func() map[string]bool {
	names := []string{
		"자본총계", "총자본", "자본", "기말자본", "분기말자본", "반기말자본",
		"당기말", "분기말", "반기말",
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[CleanKorean(n)] = true
	}
	return set
}()

// MatchesEquityAlias reports whether an account/section pair denotes the
// period-end equity line: either the cleaned name is a known alias, or the
// row sits on the balance sheet and its cleaned name contains 자본.
func MatchesEquityAlias(accountNm, sjNm string) bool {
	acc := CleanKorean(accountNm)
	if equityAliases[acc] {
		return true
	}
	return CleanKorean(sjNm) == CleanKorean("재무상태표") && strings.Contains(acc, "자본")
}

// AddAverageEquity emits one 평균자기자본 row per equity row, averaging the
// current value with the comparable prior period. The prior value is looked
// up in the current batch first, then through the provided persisted-store
// chain in order. Q1 reports reach back to last year's annual report; every
// other transition stays within the year. A missing side yields a nil
// average rather than an error.
func (p *Processor) AddAverageEquity(ctx context.Context, lines []Line, priors ...EquityLookup) []Line {
	if len(lines) == 0 {
		return lines
	}

	type equityRow struct {
		line Line
		year int
	}
	var equity []equityRow
	for _, l := range lines {
		if !MatchesEquityAlias(l.AccountNm, l.SjNm) {
			continue
		}
		year, err := strconv.Atoi(l.BsnsYear)
		if err != nil {
			continue
		}
		equity = append(equity, equityRow{l, year})
	}
	if len(equity) == 0 {
		return lines
	}

	// Batch-local lookup: first equity row for (corp, year, report).
	batch := func(corp string, year int, reprt string) *float64 {
		for _, e := range equity {
			if e.line.CorpCode == corp && e.year == year && e.line.ReprtCode == reprt {
				return e.line.Amount
			}
		}
		return nil
	}

	out := append([]Line(nil), lines...)
	for _, e := range equity {
		refCode, ok := prevReport[e.line.ReprtCode]
		if !ok {
			continue
		}
		refYear := e.year
		if e.line.ReprtCode == ReportQ1 {
			refYear--
		}

		ref := batch(e.line.CorpCode, refYear, refCode)
		if ref == nil {
			ref = firstNonNil(ctx, e.line.CorpCode, refYear, refCode, priors)
		}

		row := e.line
		row.StdAccount = AverageEquityAccount
		row.AmountText = ""
		if e.line.Amount != nil && ref != nil {
			avg := (*e.line.Amount + *ref) / 2
			row.Amount = &avg
		} else {
			row.Amount = nil
		}
		out = append(out, row)
	}
	return out
}
