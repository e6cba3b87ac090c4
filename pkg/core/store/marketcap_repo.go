package store

import (
	"context"
	"fmt"

	"github.com/DONECHAE/Daegu2025/pkg/core/fin"
)

// MarketCapRepo reads the KRX daily quote archive (TB_KRX).
type MarketCapRepo struct{}

// NewMarketCapRepo creates a new repository instance.
func NewMarketCapRepo() *MarketCapRepo {
	return &MarketCapRepo{}
}

// MarketCaps returns the main-board market capitalizations for the given
// business years and stock codes. Year ranges are widened by one day on each
// side so filings dated right at a year boundary still find a neighbor quote.
func (r *MarketCapRepo) MarketCaps(ctx context.Context, years []int, stockCodes []string) ([]fin.MarketCap, error) {
	if len(years) == 0 || len(stockCodes) == 0 {
		return nil, nil
	}
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	query := `
		SELECT "BAS_DD", "STOCK_CODE", "MKTCAP"
		FROM "TB_KRX"
		WHERE "MKT_NM" IN ('KOSPI', 'KOSDAQ')
		  AND "STOCK_CODE" = ANY($1)
		  AND "BAS_DD" >= make_date($2, 1, 1) - INTERVAL '1 day'
		  AND "BAS_DD" <= make_date($3, 12, 31) + INTERVAL '1 day'
	`
	minYear, maxYear := years[0], years[0]
	for _, y := range years[1:] {
		if y < minYear {
			minYear = y
		}
		if y > maxYear {
			maxYear = y
		}
	}

	rows, err := pool.Query(ctx, query, stockCodes, minYear, maxYear)
	if err != nil {
		return nil, fmt.Errorf("failed to query market caps: %w", err)
	}
	defer rows.Close()

	var out []fin.MarketCap
	for rows.Next() {
		var m fin.MarketCap
		if err := rows.Scan(&m.Date, &m.StockCode, &m.Value); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
