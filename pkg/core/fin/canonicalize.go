package fin

import (
	"log"
	"sort"
	"strings"
)

// CleanKorean reduces a name to its Hangul-only subsequence. Parenthetical
// notes, numbering and English subtitles all collapse away. Distinct
// accounts that differ only in non-Hangul qualifiers collide after this;
// that is a known limitation of the matching scheme, not corrected here.
func CleanKorean(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '가' && r <= '힣' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Canonicalize tags raw lines with their canonical account name.
//
// A line matches a canonical account when its cleaned name is in the
// account's candidate list and its statement section is permitted for that
// account. Lines matching nothing are dropped. Accounts outside the
// full-report set survive only on annual filings.
func (p *Processor) Canonicalize(lines []Line) []Line {
	cleaned := make([]Line, len(lines))
	for i, l := range lines {
		l.AccountNm = CleanKorean(l.AccountNm)
		l.Amount = ParseAmount(l.AmountText)
		cleaned[i] = l
	}

	var matched []Line
	for _, account := range orderedKeys(p.maps.Keywords) {
		if account == AggregateBorrowingsKey {
			continue
		}
		candidates := toSet(p.maps.Keywords[account])
		sections := toSet(p.maps.Sections[account])
		for _, l := range cleaned {
			if candidates[l.AccountNm] && sections[l.SjNm] {
				row := l
				row.StdAccount = account
				matched = append(matched, row)
			}
		}
	}

	if len(matched) == 0 {
		log.Printf("[FIN-PRE] canonical account matching produced no rows")
		return nil
	}

	out := matched[:0]
	for _, l := range matched {
		if p.maps.IsFullReport(l.StdAccount) || l.ReprtCode == ReportAnnual {
			out = append(out, l)
		}
	}
	return out
}

func orderedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, s := range items {
		set[s] = true
	}
	return set
}
