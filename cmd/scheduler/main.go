package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/DONECHAE/Daegu2025/pkg/core/alert"
	"github.com/DONECHAE/Daegu2025/pkg/core/extract"
	"github.com/DONECHAE/Daegu2025/pkg/core/fin"
	"github.com/DONECHAE/Daegu2025/pkg/core/fred"
	"github.com/DONECHAE/Daegu2025/pkg/core/llm"
	"github.com/DONECHAE/Daegu2025/pkg/core/opendart"
	"github.com/DONECHAE/Daegu2025/pkg/core/prompt"
	"github.com/DONECHAE/Daegu2025/pkg/core/store"
	"github.com/DONECHAE/Daegu2025/pkg/scheduler"
)

func main() {
	job := flag.String("job", "", "job to run: statements-cfs | statements-ofs | variables | fred")
	configPath := flag.String("config", "config/schedulers.yaml", "path to scheduler config")
	manualYear := flag.String("year", "", "manual business year override (with -quarter)")
	manualQuarter := flag.String("quarter", "", "manual report code override (with -year)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, assuming environment variables are set.")
	}

	cfg, err := scheduler.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	if err := store.InitDB(ctx); err != nil {
		log.Fatalf("database: %v", err)
	}
	defer store.Close()

	runID := uuid.New().String()
	log.Printf("[MAIN] run %s job %s", runID, *job)

	switch *job {
	case "statements-cfs", "statements-ofs":
		fsDiv := scheduler.DivConsolidated
		if *job == "statements-ofs" {
			fsDiv = scheduler.DivSeparate
		}
		s, err := buildStatementScheduler(cfg, fsDiv)
		if err != nil {
			log.Fatalf("%s: %v", *job, err)
		}
		s.ManualYear = *manualYear
		s.ManualQuarter = *manualQuarter
		if err := s.Run(ctx); err != nil {
			log.Fatalf("%s: %v", *job, err)
		}

	case "variables":
		s, err := buildVariableScheduler(ctx, cfg)
		if err != nil {
			log.Fatalf("variables: %v", err)
		}
		if _, err := s.Run(ctx); err != nil {
			log.Fatalf("variables: %v", err)
		}

	case "fred":
		client, err := fred.NewClient(os.Getenv("FRED_API_KEY"))
		if err != nil {
			log.Fatalf("fred: %v", err)
		}
		s := scheduler.NewFredScheduler(client, cfg.Fred.TreasurySeries, cfg.Fred.PCESeries)
		if err := s.Run(ctx); err != nil {
			log.Fatalf("fred: %v", err)
		}

	default:
		flag.Usage()
		os.Exit(2)
	}
}

func buildStatementScheduler(cfg *scheduler.Config, fsDiv string) (*scheduler.StatementScheduler, error) {
	keys := []string{os.Getenv("OPENDART_API_KEY")}
	if backup := os.Getenv("OPENDART_API_KEY_BACKUP"); backup != "" {
		keys = append(keys, backup)
	}
	client, err := opendart.NewClient(keys...)
	if err != nil {
		return nil, err
	}

	maps, err := fin.LoadAccountMaps(cfg.Resources.KeywordMap, cfg.Resources.SectionMap)
	if err != nil {
		return nil, fmt.Errorf("account maps: %w", err)
	}

	alerter := alert.NewEmailAlerter("FINANCIAL_STATEMENTS")
	return scheduler.NewStatementScheduler(client, fin.NewProcessor(maps), alerter, fsDiv), nil
}

func buildVariableScheduler(ctx context.Context, cfg *scheduler.Config) (*scheduler.VariableScheduler, error) {
	if err := prompt.LoadFromFile(cfg.Resources.Prompts); err != nil {
		return nil, err
	}

	keywords := make(map[string][]string)
	if cfg.Resources.LLMKeywords != "" {
		loaded, err := fin.LoadKeywordList(cfg.Resources.LLMKeywords)
		if err != nil {
			log.Printf("[MAIN] LLM keyword map load failed: %v, using account names", err)
		} else {
			keywords = loaded
		}
	}

	provider, err := llm.FromEnv(ctx)
	if err != nil {
		return nil, err
	}

	alerter := alert.NewEmailAlerter("FINANCIAL_VARIABLE_LLM")
	extractor := extract.NewExtractor(provider, keywords)
	return scheduler.NewVariableScheduler(extractor, alerter, time.Duration(cfg.ThrottleSeconds)*time.Second), nil
}
