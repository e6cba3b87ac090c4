package fin

// missingPrefix marks account names synthesized for absent canonical
// accounts, so the origin of a placeholder row stays visible downstream.
const missingPrefix = "누락_"

// FillMissingAccounts appends placeholder rows for canonical accounts that
// are structurally expected but absent from a (corp, year, report, division)
// group.
//
// A group qualifies when it already holds at least one full-report account
// or is an annual filing. Interim groups without any full-report signal are
// left untouched: those filings do not carry enough to be worth completing.
// Annual groups additionally get placeholders for every annual-only account.
func (p *Processor) FillMissingAccounts(lines []Line) []Line {
	if len(lines) == 0 {
		return lines
	}

	groups := make(map[groupKey][]int)
	var order []groupKey
	for i, l := range lines {
		k := groupKey{l.CorpCode, l.BsnsYear, l.ReprtCode, l.FsDiv}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], i)
	}

	out := append([]Line(nil), lines...)
	for _, k := range order {
		idx := groups[k]
		existing := make(map[string]bool, len(idx))
		hasFull := false
		for _, i := range idx {
			existing[lines[i].StdAccount] = true
			if p.maps.IsFullReport(lines[i].StdAccount) {
				hasFull = true
			}
		}
		if !hasFull && k.ReprtCode != ReportAnnual {
			continue
		}

		sample := lines[idx[0]]
		for _, account := range p.maps.FullReports {
			if !existing[account] {
				out = append(out, p.placeholder(sample, account))
			}
		}
		if k.ReprtCode == ReportAnnual {
			for _, account := range p.maps.AnnualOnly {
				if !existing[account] {
					out = append(out, p.placeholder(sample, account))
				}
			}
		}
	}
	return out
}

// placeholder clones group-identifying keys from sample and blanks the
// value-bearing fields.
func (p *Processor) placeholder(sample Line, account string) Line {
	row := sample
	row.StdAccount = account
	row.AccountID = ""
	row.AccountNm = missingPrefix + account
	row.AmountText = ""
	row.Amount = nil
	row.SjNm = p.maps.FirstSection(account)
	row.Ord = nil
	return row
}
