package fin

import (
	"strconv"
)

// extractionTargets are canonical accounts whose values routinely live in
// the notes rather than the structured statement, so a missing amount sends
// them to document extraction.
var extractionTargets = map[string]bool{
	"매입채무":      true,
	"매출채권":      true,
	"유형자산감가상각비": true,
	"무형자산감가상각비": true,
	"대손상각(현금흐름)": true,
	"미청구채권":     true,
	"미수금":       true,
	"광고선전비":     true,
	"판매촉진비":     true,
	"개발비":       true,
	"매출채권처분손실":  true,
	"무형자산손상차손":  true,
	"총차입금(단일)":  true,
	"단기대여금":     true,
	"장기대여금":     true,
	"이자비용":      true,
}

// loanItems must be present in every persisted group; FormatForDatabase
// synthesizes them when absent.
var loanItems = []string{"장기대여금", "단기대여금"}

// MarkExtractionTargets sets the LLM flag on rows whose canonical account is
// an extraction target and whose amount is still missing.
func (p *Processor) MarkExtractionTargets(lines []Line) []Line {
	out := append([]Line(nil), lines...)
	for i := range out {
		out[i].IsLLM = extractionTargets[out[i].StdAccount] && out[i].Amount == nil
	}
	return out
}

// FormatForDatabase projects the pipeline rows onto the persistence schema
// and guarantees loan-item presence per (corp, year, report) group: absent
// loan accounts are synthesized as zero rows flagged for extraction, and
// present-but-empty ones are zero-filled in place. Non-nil amounts are never
// overwritten.
func (p *Processor) FormatForDatabase(lines []Line) []VariableRecord {
	if len(lines) == 0 {
		return nil
	}

	records := make([]VariableRecord, 0, len(lines))
	for _, l := range lines {
		records = append(records, VariableRecord{
			CorpCode:      l.CorpCode,
			RceptNo:       l.RceptNo,
			ReprtCode:     l.ReprtCode,
			BsnsYear:      l.BsnsYear,
			AccountNm:     l.StdAccount,
			AccountAmount: encodeAmount(l),
			IsLLM:         l.IsLLM,
			IsComplete:    false,
		})
	}

	type key struct {
		CorpCode, BsnsYear, ReprtCode string
	}
	groups := make(map[key][]int)
	var order []key
	for i, r := range records {
		k := key{r.CorpCode, r.BsnsYear, r.ReprtCode}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], i)
	}

	var appended []VariableRecord
	for _, k := range order {
		idx := groups[k]
		for _, loan := range loanItems {
			found := false
			for _, i := range idx {
				if records[i].AccountNm != loan {
					continue
				}
				found = true
				if records[i].AccountAmount == "" {
					records[i].AccountAmount = "0"
				}
			}
			if !found {
				tmpl := records[idx[0]]
				appended = append(appended, VariableRecord{
					CorpCode:      tmpl.CorpCode,
					RceptNo:       tmpl.RceptNo,
					ReprtCode:     tmpl.ReprtCode,
					BsnsYear:      tmpl.BsnsYear,
					AccountNm:     loan,
					AccountAmount: "0",
					IsLLM:         true,
					IsComplete:    false,
				})
			}
		}
	}
	return append(records, appended...)
}

// encodeAmount renders the persisted string amount. Numeric values win over
// the raw text (disclosure flags only ever set the text side).
func encodeAmount(l Line) string {
	if l.Amount != nil {
		return strconv.FormatFloat(*l.Amount, 'f', -1, 64)
	}
	return l.AmountText
}
