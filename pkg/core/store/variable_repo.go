package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/DONECHAE/Daegu2025/pkg/core/fin"
)

// VariableRepo handles the normalized financial variables
// (TB_FINANCIAL_VARIABLE), the output table of the pipeline.
type VariableRepo struct{}

// NewVariableRepo creates a new repository instance.
func NewVariableRepo() *VariableRepo {
	return &VariableRepo{}
}

// ExistingPairs returns the (RCEPT_NO, ACCOUNT_NM) pairs already persisted.
// The scheduler filters its batch against this set before inserting.
func (r *VariableRepo) ExistingPairs(ctx context.Context) (map[[2]string]bool, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	rows, err := pool.Query(ctx, `SELECT "RCEPT_NO", "ACCOUNT_NM" FROM "TB_FINANCIAL_VARIABLE"`)
	if err != nil {
		return nil, fmt.Errorf("failed to query existing variables: %w", err)
	}
	defer rows.Close()

	pairs := make(map[[2]string]bool)
	for rows.Next() {
		var rcept, name string
		if err := rows.Scan(&rcept, &name); err != nil {
			return nil, err
		}
		pairs[[2]string{rcept, name}] = true
	}
	return pairs, rows.Err()
}

// InsertBatch writes new variable rows inside a single transaction.
func (r *VariableRepo) InsertBatch(ctx context.Context, records []fin.VariableRecord) error {
	if len(records) == 0 {
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
		INSERT INTO "TB_FINANCIAL_VARIABLE" (
			"CORP_CODE", "RCEPT_NO", "REPRT_CODE", "BSNS_YEAR",
			"ACCOUNT_NM", "ACCOUNT_AMOUNT", "IS_LLM", "IS_COMPLETE"
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, rec := range records {
		if _, err := tx.Exec(ctx, query,
			rec.CorpCode, rec.RceptNo, rec.ReprtCode, rec.BsnsYear,
			rec.AccountNm, rec.AccountAmount, rec.IsLLM, rec.IsComplete,
		); err != nil {
			return fmt.Errorf("failed to insert variable %s/%s: %w", rec.RceptNo, rec.AccountNm, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit variable batch: %w", err)
	}
	return nil
}

// LLMCandidates returns the rows flagged for note extraction that have not
// been resolved yet.
func (r *VariableRepo) LLMCandidates(ctx context.Context) ([]fin.VariableRecord, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	query := `
		SELECT "CORP_CODE", "RCEPT_NO", "REPRT_CODE", "BSNS_YEAR",
		       "ACCOUNT_NM", COALESCE("ACCOUNT_AMOUNT", '')
		FROM "TB_FINANCIAL_VARIABLE"
		WHERE "IS_LLM" = TRUE AND "IS_COMPLETE" = FALSE
		ORDER BY "RCEPT_NO"
	`
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query extraction candidates: %w", err)
	}
	defer rows.Close()

	var out []fin.VariableRecord
	for rows.Next() {
		rec := fin.VariableRecord{IsLLM: true}
		if err := rows.Scan(&rec.CorpCode, &rec.RceptNo, &rec.ReprtCode, &rec.BsnsYear,
			&rec.AccountNm, &rec.AccountAmount); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Complete stores an extracted amount and marks the row resolved.
func (r *VariableRepo) Complete(ctx context.Context, rceptNo, accountNm, amount string) error {
	pool := GetPool()
	if pool == nil {
		return fmt.Errorf("database pool not initialized")
	}

	query := `
		UPDATE "TB_FINANCIAL_VARIABLE"
		SET "ACCOUNT_AMOUNT" = $3, "IS_COMPLETE" = TRUE
		WHERE "RCEPT_NO" = $1 AND "ACCOUNT_NM" = $2
	`
	if _, err := pool.Exec(ctx, query, rceptNo, accountNm, amount); err != nil {
		return fmt.Errorf("failed to complete variable %s/%s: %w", rceptNo, accountNm, err)
	}
	return nil
}

// PriorEquity looks up a persisted equity total for the average-equity chain.
// The variable table holds canonical account names, so an exact match on
// 자본총계 is enough here.
func (r *VariableRepo) PriorEquity(ctx context.Context, corpCode string, year int, reprtCode string) (*float64, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	query := `
		SELECT COALESCE("ACCOUNT_AMOUNT", '')
		FROM "TB_FINANCIAL_VARIABLE"
		WHERE "CORP_CODE" = $1 AND "BSNS_YEAR" = $2 AND "REPRT_CODE" = $3
		  AND "ACCOUNT_NM" = '자본총계'
		LIMIT 1
	`
	var amount string
	err := pool.QueryRow(ctx, query, corpCode, strconv.Itoa(year), reprtCode).Scan(&amount)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query prior equity: %w", err)
	}
	return fin.ParseAmount(amount), nil
}
