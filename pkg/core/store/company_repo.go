package store

import (
	"context"
	"fmt"

	"github.com/DONECHAE/Daegu2025/pkg/core/fin"
)

// CompanyRepo reads the company master (TB_COMPANY).
type CompanyRepo struct{}

// NewCompanyRepo creates a new repository instance.
func NewCompanyRepo() *CompanyRepo {
	return &CompanyRepo{}
}

// CorpFiscal is a corp code paired with its fiscal closing month.
type CorpFiscal struct {
	CorpCode    string
	FiscalMonth string
}

// ActiveCorpCodes returns the corp codes the schedulers iterate: active,
// indicator-calculated companies listed on KOSPI (Y) or KOSDAQ (K).
func (r *CompanyRepo) ActiveCorpCodes(ctx context.Context) ([]CorpFiscal, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	query := `
		SELECT "CORP_CODE", COALESCE("ACC_MT", '')
		FROM "TB_COMPANY"
		WHERE "IS_ACTIVE" = TRUE
		  AND "IS_CALCULATE" = TRUE
		  AND "CORP_CLS" IN ('Y', 'K')
	`
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query active companies: %w", err)
	}
	defer rows.Close()

	var out []CorpFiscal
	for rows.Next() {
		var c CorpFiscal
		if err := rows.Scan(&c.CorpCode, &c.FiscalMonth); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// All returns the full master used for the company-info join.
func (r *CompanyRepo) All(ctx context.Context) ([]fin.Company, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	query := `SELECT COALESCE("CORP_CODE", ''), COALESCE("CORP_NAME", ''), "STOCK_CODE" FROM "TB_COMPANY"`
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query company master: %w", err)
	}
	defer rows.Close()

	var out []fin.Company
	for rows.Next() {
		var c fin.Company
		if err := rows.Scan(&c.CorpCode, &c.CorpName, &c.StockCode); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
