package fin

import (
	"fmt"
	"os"

	"github.com/hjson/hjson-go/v4"
)

// AggregateBorrowingsKey is a reserved keyword-map key. It groups the
// itemized borrowing candidates for the LLM extraction side and is never
// matched directly during canonicalization.
const AggregateBorrowingsKey = "총차입금"

// fullReportAccounts are the canonical accounts expected in every report
// type. Everything else in the keyword map is annual-report only.
var fullReportAccounts = []string{
	"자본총계", "영업활동현금흐름", "투자활동현금흐름", "매출액", "당기순이익",
	"총차입금(단일)",
}

// AccountMaps is the static configuration of the canonicalization stage:
// candidate-name lists and permitted statement sections per canonical
// account. Loaded once at construction and shared read-only.
type AccountMaps struct {
	Keywords map[string][]string
	Sections map[string][]string

	FullReports []string
	AnnualOnly  []string
}

// LoadAccountMaps reads the keyword and section map files. The files are
// hjson so the curated lists can carry comments.
func LoadAccountMaps(keywordPath, sectionPath string) (*AccountMaps, error) {
	keywords, err := loadStringListMap(keywordPath)
	if err != nil {
		return nil, fmt.Errorf("keyword map: %w", err)
	}
	sections, err := loadStringListMap(sectionPath)
	if err != nil {
		return nil, fmt.Errorf("section map: %w", err)
	}
	return NewAccountMaps(keywords, sections), nil
}

// NewAccountMaps builds the configuration from already-parsed maps.
// Tests construct small maps directly through this.
func NewAccountMaps(keywords, sections map[string][]string) *AccountMaps {
	m := &AccountMaps{
		Keywords:    keywords,
		Sections:    sections,
		FullReports: fullReportAccounts,
	}
	full := make(map[string]bool, len(m.FullReports))
	for _, a := range m.FullReports {
		full[a] = true
	}
	for name := range keywords {
		if name == AggregateBorrowingsKey {
			continue
		}
		if !full[name] {
			m.AnnualOnly = append(m.AnnualOnly, name)
		}
	}
	return m
}

// IsFullReport reports whether the canonical account is expected in every
// report type.
func (m *AccountMaps) IsFullReport(account string) bool {
	for _, a := range m.FullReports {
		if a == account {
			return true
		}
	}
	return false
}

// FirstSection returns the first permitted statement section for the
// account, or "" when none is configured.
func (m *AccountMaps) FirstSection(account string) string {
	if s := m.Sections[account]; len(s) > 0 {
		return s[0]
	}
	return ""
}

// LoadKeywordList reads a standalone account-to-keywords hjson file, such as
// the footnote keyword map used by the extraction worker.
func LoadKeywordList(path string) (map[string][]string, error) {
	return loadStringListMap(path)
}

func loadStringListMap(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]interface{}
	if err := hjson.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	out := make(map[string][]string, len(raw))
	for key, val := range raw {
		items, ok := val.([]interface{})
		if !ok {
			return nil, fmt.Errorf("%s: %q is not a list", path, key)
		}
		list := make([]string, 0, len(items))
		for _, it := range items {
			s, ok := it.(string)
			if !ok {
				return nil, fmt.Errorf("%s: %q contains a non-string entry", path, key)
			}
			list = append(list, s)
		}
		out[key] = list
	}
	return out, nil
}
