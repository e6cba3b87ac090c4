package scheduler

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/DONECHAE/Daegu2025/pkg/core/alert"
	"github.com/DONECHAE/Daegu2025/pkg/core/extract"
	"github.com/DONECHAE/Daegu2025/pkg/core/store"
)

// VariableScheduler resolves the pending LLM extraction rows: for every
// variable flagged IS_LLM and not yet complete, pull the filing's footnote
// document and ask the extractor for the amount.
type VariableScheduler struct {
	variables   *store.VariableRepo
	disclosures *store.DisclosureRepo
	extractor   *extract.Extractor
	alerter     *alert.EmailAlerter
	throttle    time.Duration
}

// NewVariableScheduler wires the extraction job.
func NewVariableScheduler(extractor *extract.Extractor, alerter *alert.EmailAlerter, throttle time.Duration) *VariableScheduler {
	return &VariableScheduler{
		variables:   store.NewVariableRepo(),
		disclosures: store.NewDisclosureRepo(),
		extractor:   extractor,
		alerter:     alerter,
		throttle:    throttle,
	}
}

// Run processes every pending candidate once and returns the processed count.
func (s *VariableScheduler) Run(ctx context.Context) (int, error) {
	log.Printf("[VARIABLE-LLM] scheduler start")

	candidates, err := s.variables.LLMCandidates(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load extraction candidates: %w", err)
	}
	if len(candidates) == 0 {
		log.Printf("[VARIABLE-LLM] nothing to process")
		return 0, nil
	}
	log.Printf("[VARIABLE-LLM] processing %d candidates", len(candidates))

	processed := 0
	var runErrors []string
	for _, row := range candidates {
		if err := ctx.Err(); err != nil {
			return processed, err
		}

		html, err := s.disclosures.NoteHTML(ctx, row.RceptNo)
		if err != nil {
			runErrors = append(runErrors, fmt.Sprintf("%s/%s: %v", row.RceptNo, row.AccountNm, err))
			continue
		}
		if html == "" {
			log.Printf("[VARIABLE-LLM] no footnote for RCEPT_NO=%s", row.RceptNo)
			continue
		}

		result, err := s.extractor.Extract(ctx, html, row.AccountNm, row.RceptNo)
		if err != nil {
			log.Printf("[VARIABLE-LLM] extraction failed for %s/%s: %v", row.RceptNo, row.AccountNm, err)
			runErrors = append(runErrors, fmt.Sprintf("%s/%s: %v", row.RceptNo, row.AccountNm, err))
			continue
		}
		if !result.Complete || result.Amount == nil {
			log.Printf("[VARIABLE-LLM] %s/%s stays pending", row.RceptNo, row.AccountNm)
			continue
		}

		amount := strconv.FormatInt(*result.Amount, 10)
		if err := s.variables.Complete(ctx, row.RceptNo, row.AccountNm, amount); err != nil {
			runErrors = append(runErrors, fmt.Sprintf("%s/%s: %v", row.RceptNo, row.AccountNm, err))
			continue
		}
		log.Printf("[VARIABLE-LLM] %s/%s = %s", row.RceptNo, row.AccountNm, amount)
		processed++

		select {
		case <-time.After(s.throttle):
		case <-ctx.Done():
			return processed, ctx.Err()
		}
	}

	if s.alerter != nil {
		s.alerter.SendErrorDigest("variable-llm", runErrors)
	}
	log.Printf("[VARIABLE-LLM] scheduler done (processed %d)", processed)
	return processed, nil
}
