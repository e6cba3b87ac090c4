package fin

import (
	"context"
	"log"
)

// firstNonNil tries each lookup provider in order and returns the first
// non-nil value. Provider errors are logged and treated as a miss so a
// degraded store never blocks the remaining providers.
func firstNonNil(ctx context.Context, corpCode string, year int, reprtCode string, providers []EquityLookup) *float64 {
	for _, p := range providers {
		if p == nil {
			continue
		}
		v, err := p.PriorEquity(ctx, corpCode, year, reprtCode)
		if err != nil {
			log.Printf("[FIN-PRE] prior equity lookup failed (corp=%s year=%d reprt=%s): %v", corpCode, year, reprtCode, err)
			continue
		}
		if v != nil {
			return v
		}
	}
	return nil
}
