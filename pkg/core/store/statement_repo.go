package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/DONECHAE/Daegu2025/pkg/core/fin"
)

// StatementRepo handles the raw OpenDART statement archive
// (TB_FINANCIAL_STATEMENTS). Rows are stored as received, one per account
// line of a filing; the normalization pipeline reads from the API response
// directly and this table serves idempotence checks and prior-period lookups.
type StatementRepo struct{}

// NewStatementRepo creates a new repository instance.
func NewStatementRepo() *StatementRepo {
	return &StatementRepo{}
}

// RawStatement mirrors the TB_FINANCIAL_STATEMENTS columns.
type RawStatement struct {
	RceptNo       string
	ReprtCode     string
	BsnsYear      string
	CorpCode      string
	SjDiv         string
	SjNm          string
	AccountID     string
	AccountNm     string
	AccountDetail string
	ThstrmNm      string
	ThstrmAmount  string
	FrmtrmNm      string
	FrmtrmAmount  string
	BfefrmtrmNm   string
	BfefrmtrmAmt  string
	Ord           int
	Currency      string
	FsDiv         string
}

// DistinctRceptNos returns every acceptance number already archived, keyed
// for O(1) membership tests by the schedulers.
func (r *StatementRepo) DistinctRceptNos(ctx context.Context) (map[string]bool, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	rows, err := pool.Query(ctx, `SELECT DISTINCT "RCEPT_NO" FROM "TB_FINANCIAL_STATEMENTS"`)
	if err != nil {
		return nil, fmt.Errorf("failed to query archived acceptance numbers: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	for rows.Next() {
		var rcept string
		if err := rows.Scan(&rcept); err != nil {
			return nil, err
		}
		seen[rcept] = true
	}
	return seen, rows.Err()
}

// InsertBatch writes the raw lines of one or more filings inside a single
// transaction, so a partial filing never lands in the archive.
func (r *StatementRepo) InsertBatch(ctx context.Context, stmts []RawStatement) error {
	if len(stmts) == 0 {
		return nil
	}
	pool := GetPool()
	if pool == nil {
		return fmt.Errorf("database pool not initialized")
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO "TB_FINANCIAL_STATEMENTS" (
			"RCEPT_NO", "REPRT_CODE", "BSNS_YEAR", "CORP_CODE",
			"SJ_DIV", "SJ_NM", "ACCOUNT_ID", "ACCOUNT_NM", "ACCOUNT_DETAIL",
			"THSTRM_NM", "THSTRM_AMOUNT",
			"FRMTRM_NM", "FRMTRM_AMOUNT",
			"BFEFRMTRM_NM", "BFEFRMTRM_AMOUNT",
			"ORD", "CURRENCY", "FS_DIV"
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	for _, s := range stmts {
		if _, err := tx.Exec(ctx, query,
			s.RceptNo, s.ReprtCode, s.BsnsYear, s.CorpCode,
			s.SjDiv, s.SjNm, s.AccountID, s.AccountNm, s.AccountDetail,
			s.ThstrmNm, s.ThstrmAmount,
			s.FrmtrmNm, s.FrmtrmAmount,
			s.BfefrmtrmNm, s.BfefrmtrmAmt,
			s.Ord, s.Currency, s.FsDiv,
		); err != nil {
			return fmt.Errorf("failed to insert statement line %s/%s: %w", s.RceptNo, s.AccountNm, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit statement batch: %w", err)
	}
	return nil
}

// PriorEquity searches the raw archive for an equity total of the given
// period. It is the last resort of the average-equity lookup chain, behind
// the in-batch values and the normalized variable table.
func (r *StatementRepo) PriorEquity(ctx context.Context, corpCode string, year int, reprtCode string) (*float64, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	query := `
		SELECT "ACCOUNT_NM", COALESCE("SJ_NM", ''), COALESCE("THSTRM_AMOUNT", '')
		FROM "TB_FINANCIAL_STATEMENTS"
		WHERE "CORP_CODE" = $1 AND "BSNS_YEAR" = $2 AND "REPRT_CODE" = $3
	`
	rows, err := pool.Query(ctx, query, corpCode, strconv.Itoa(year), reprtCode)
	if err != nil {
		return nil, fmt.Errorf("failed to query prior-period statements: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, sjNm, amount string
		if err := rows.Scan(&name, &sjNm, &amount); err != nil {
			return nil, err
		}
		if !fin.MatchesEquityAlias(name, sjNm) {
			continue
		}
		if v := fin.ParseAmount(amount); v != nil {
			return v, nil
		}
	}
	return nil, rows.Err()
}
