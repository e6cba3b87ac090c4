package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// DisclosureRepo reads the disclosure event log (TB_DISCLOSURE_INFORMATION):
// the filing-title predicates behind the governance flags and the stored
// footnote HTML used by the extraction worker.
type DisclosureRepo struct{}

// NewDisclosureRepo creates a new repository instance.
func NewDisclosureRepo() *DisclosureRepo {
	return &DisclosureRepo{}
}

// MajorityChangedTwice returns the corp codes that filed at least two
// largest-shareholder change disclosures in the year before the business
// year's end. RM length 1 restricts the match to main-board filings whose
// remark column holds the single market marker.
func (r *DisclosureRepo) MajorityChangedTwice(ctx context.Context, year int) ([]string, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	query := `
		SELECT "CORP_CODE"
		FROM "TB_DISCLOSURE_INFORMATION"
		WHERE "REPORT_NM" IN ('최대주주변경', '[기재정정]최대주주변경')
		  AND "RCEPT_DT" >= make_date($1 - 1, 1, 1)
		  AND "RCEPT_DT" < make_date($1, 1, 1)
		  AND length("RM") = 1
		GROUP BY "CORP_CODE"
		HAVING count(*) >= 2
	`
	rows, err := pool.Query(ctx, query, year)
	if err != nil {
		return nil, fmt.Errorf("failed to query shareholder changes: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var corp string
		if err := rows.Scan(&corp); err != nil {
			return nil, err
		}
		out = append(out, corp)
	}
	return out, rows.Err()
}

// SmallPublicOffering returns the corp codes that filed a small public
// offering report within the two years before the business year's end.
func (r *DisclosureRepo) SmallPublicOffering(ctx context.Context, year int) ([]string, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	query := `
		SELECT DISTINCT "CORP_CODE"
		FROM "TB_DISCLOSURE_INFORMATION"
		WHERE "REPORT_NM" = '소액공모실적보고서'
		  AND "RCEPT_DT" >= make_date($1, 1, 1) - INTERVAL '730 days'
		  AND "RCEPT_DT" < make_date($1, 1, 1)
	`
	rows, err := pool.Query(ctx, query, year)
	if err != nil {
		return nil, fmt.Errorf("failed to query small offerings: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var corp string
		if err := rows.Scan(&corp); err != nil {
			return nil, err
		}
		out = append(out, corp)
	}
	return out, rows.Err()
}

// NoteHTML returns the stored footnote document of a filing, or "" when the
// filing carries none.
func (r *DisclosureRepo) NoteHTML(ctx context.Context, rceptNo string) (string, error) {
	pool := GetPool()
	if pool == nil {
		return "", fmt.Errorf("database pool not initialized")
	}

	query := `SELECT COALESCE("OFS_COMMENT", '') FROM "TB_DISCLOSURE_INFORMATION" WHERE "RCEPT_NO" = $1`
	var html string
	err := pool.QueryRow(ctx, query, rceptNo).Scan(&html)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("failed to query note document: %w", err)
	}
	return html, nil
}
