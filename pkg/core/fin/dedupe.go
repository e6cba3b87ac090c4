package fin

import (
	"log"
	"sort"
)

// dedupeFunc collapses one (account × corp × year × report) bucket with more
// than one row down to its surviving rows. Every built-in rule returns a
// single row; a rule that cannot decide returns the bucket unchanged.
type dedupeFunc func(group []Line) []Line

// dedupeRules maps canonical account names to their disambiguation rule.
// Accounts without an entry fall back to minimum-ordinal selection.
var dedupeRules = map[string]dedupeFunc{
	"단기대여금": sumAll,
	"장기대여금": sumAll,

	"현금자산및현금성자산": byOrdMin,
	"재고자산":       byOrdMin,
	"미청구채권":      byOrdMin,
	"미수금":        byOrdMin,
	"매출채권":       byOrdMin,
	"대손상각(현금흐름)": byOrdMin,
	"투자활동현금흐름":   byOrdMin,
	"영업활동현금흐름":   byOrdMin,
	"판매비과관리비":    byOrdMin,

	"이자비용":  byOrdMax,
	"이익잉여금": byOrdMax,
	"자본금":   byOrdMax,

	"자산총계":  dedupeTotalAssets,
	"자본잉여금": dedupeCapitalSurplus,
	"무형자산":  dedupeIntangibles,
	"매출원가":  dedupeCOGS,
	"매출액":   dedupeRevenue,
	"매입채무":  dedupePayables,
	"당기순이익": dedupeNetIncome,
}

// Dedupe reduces every (canonical account, corp, year, report) bucket to one
// row using the account's rule. Buckets with a single row pass through.
//
// A panicking rule degrades to keeping the bucket as-is; the returned count
// tells the caller how many buckets were left unreduced so the condition is
// visible instead of silently violating the one-row-per-account invariant.
func (p *Processor) Dedupe(lines []Line) ([]Line, int) {
	if len(lines) == 0 {
		return lines, 0
	}

	byAccount := make(map[string][]Line)
	var accountOrder []string
	for _, l := range lines {
		if _, seen := byAccount[l.StdAccount]; !seen {
			accountOrder = append(accountOrder, l.StdAccount)
		}
		byAccount[l.StdAccount] = append(byAccount[l.StdAccount], l)
	}

	var out []Line
	warnings := 0
	for _, account := range accountOrder {
		rows := byAccount[account]

		buckets := make(map[bucketKey][]Line)
		var bucketOrder []bucketKey
		for _, l := range rows {
			k := bucketKey{l.CorpCode, l.BsnsYear, l.ReprtCode}
			if _, seen := buckets[k]; !seen {
				bucketOrder = append(bucketOrder, k)
			}
			buckets[k] = append(buckets[k], l)
		}

		for _, k := range bucketOrder {
			group := buckets[k]
			if len(group) == 1 {
				out = append(out, group...)
				continue
			}
			reduced, ok := applyRule(account, group)
			if !ok {
				warnings++
			}
			out = append(out, reduced...)
		}
	}
	return out, warnings
}

// applyRule runs the account's rule with panic recovery. ok=false means the
// rule failed and the original group was kept.
func applyRule(account string, group []Line) (result []Line, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[FIN-PRE] dedupe failed for account=%s: %v", account, r)
			result, ok = group, false
		}
	}()
	rule := dedupeRules[account]
	if rule == nil {
		rule = byOrdMin
	}
	return rule(group), true
}

// ---------------------------------------------------------------------------
// Rule building blocks
// ---------------------------------------------------------------------------

// ordLess orders by ordinal ascending with nil ordinals last.
func ordLess(a, b *int) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return *a < *b
	}
}

func sortByOrd(group []Line, ascending bool) []Line {
	sorted := append([]Line(nil), group...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if ascending {
			return ordLess(sorted[i].Ord, sorted[j].Ord)
		}
		// Descending by value, nil still last.
		if sorted[i].Ord == nil {
			return false
		}
		if sorted[j].Ord == nil {
			return true
		}
		return *sorted[i].Ord > *sorted[j].Ord
	})
	return sorted
}

func byOrdMin(group []Line) []Line { return sortByOrd(group, true)[:1] }
func byOrdMax(group []Line) []Line { return sortByOrd(group, false)[:1] }

func byAccountNm(group []Line, name string) []Line {
	var out []Line
	for _, l := range group {
		if l.AccountNm == name {
			out = append(out, l)
		}
	}
	return out
}

func byAccountID(group []Line, id string) []Line {
	var out []Line
	for _, l := range group {
		if l.AccountID == id {
			out = append(out, l)
		}
	}
	return out
}

// dropSameAmount keeps the first row per distinct amount. Nil amounts count
// as one shared value.
func dropSameAmount(group []Line) []Line {
	seen := make(map[float64]bool)
	seenNil := false
	var out []Line
	for _, l := range group {
		if l.Amount == nil {
			if seenNil {
				continue
			}
			seenNil = true
		} else {
			if seen[*l.Amount] {
				continue
			}
			seen[*l.Amount] = true
		}
		out = append(out, l)
	}
	return out
}

// sumAll collapses the group to its first row carrying the sum of all
// non-nil amounts (0 when every amount is nil).
func sumAll(group []Line) []Line {
	total := 0.0
	for _, l := range group {
		if l.Amount != nil {
			total += *l.Amount
		}
	}
	row := group[0]
	row.Amount = &total
	return []Line{row}
}

// ---------------------------------------------------------------------------
// Account-specific rules
// ---------------------------------------------------------------------------

// dedupeTotalAssets tries the exact-name priority list; when a name matches
// several rows, the most recent filing (largest acceptance number) wins.
// No name match keeps the group unchanged.
func dedupeTotalAssets(group []Line) []Line {
	for _, name := range []string{"자산총계", "자산", "총자산"} {
		filtered := byAccountNm(group, name)
		if len(filtered) == 0 {
			continue
		}
		if len(filtered) > 1 {
			best := filtered[0]
			for _, l := range filtered[1:] {
				if l.RceptNo > best.RceptNo {
					best = l
				}
			}
			return []Line{best}
		}
		return filtered
	}
	return group
}

// dedupeCapitalSurplus prefers 자본잉여금 over 주식발행초과금, then takes the
// maximum ordinal within the first non-empty name match.
func dedupeCapitalSurplus(group []Line) []Line {
	for _, name := range []string{"자본잉여금", "주식발행초과금"} {
		if filtered := byAccountNm(group, name); len(filtered) > 0 {
			return byOrdMax(filtered)
		}
	}
	return group
}

// dedupeIntangibles narrows to rows named 무형자산, preferring the
// goodwill-excluded IFRS account id when present, then max ordinal.
func dedupeIntangibles(group []Line) []Line {
	named := byAccountNm(group, "무형자산")
	if len(named) == 0 {
		return byOrdMax(group)
	}
	if byID := byAccountID(named, "ifrs-full_IntangibleAssetsOtherThanGoodwill"); len(byID) > 0 {
		return byOrdMax(byID)
	}
	return byOrdMax(named)
}

// dedupeCOGS drops same-amount duplicates, prefers the exact 매출원가 name at
// max ordinal, and sums the deduplicated set when no exact name exists.
func dedupeCOGS(group []Line) []Line {
	deduped := dropSameAmount(group)
	if filtered := byAccountNm(deduped, "매출원가"); len(filtered) > 0 {
		return byOrdMax(filtered)
	}
	return sumAll(deduped)
}

// dedupeRevenue drops same-amount duplicates before picking the minimum
// ordinal, so a repeated figure cannot shadow a lower-ordinal sibling.
func dedupeRevenue(group []Line) []Line {
	return byOrdMin(dropSameAmount(group))
}

// dedupePayables prefers the short-term payables presentations.
func dedupePayables(group []Line) []Line {
	var filtered []Line
	for _, l := range group {
		if l.AccountNm == "단기매입채무" || l.AccountNm == "유동매입채무" {
			filtered = append(filtered, l)
		}
	}
	if len(filtered) > 0 {
		return byOrdMin(filtered)
	}
	return byOrdMin(group)
}

// dedupeNetIncome resolves by statement-section priority: the cash flow
// statement figure is authoritative, then income statement, then
// comprehensive income.
func dedupeNetIncome(group []Line) []Line {
	for _, section := range []string{"현금흐름표", "손익계산서", "포괄손익계산서"} {
		for _, l := range group {
			if l.SjNm == section {
				return []Line{l}
			}
		}
	}
	return group[:1]
}
