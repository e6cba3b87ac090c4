// Package scheduler holds the batch jobs: statement ingestion (CFS/OFS),
// footnote LLM extraction and FRED macro series updates.
package scheduler

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config is the shared scheduler configuration, loaded from
// config/schedulers.yaml. Secrets stay in the environment; the file only
// carries paths, series ids and pacing.
type Config struct {
	Resources struct {
		KeywordMap  string `yaml:"keyword_map"`
		SectionMap  string `yaml:"section_map"`
		LLMKeywords string `yaml:"llm_keywords"`
		Prompts     string `yaml:"prompts"`
	} `yaml:"resources"`

	ThrottleSeconds int `yaml:"throttle_seconds"`

	Fred struct {
		TreasurySeries string `yaml:"treasury_series"`
		PCESeries      string `yaml:"pce_series"`
	} `yaml:"fred"`
}

// LoadConfig reads and validates the scheduler configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if cfg.Resources.KeywordMap == "" || cfg.Resources.SectionMap == "" {
		return nil, fmt.Errorf("config %s: resources.keyword_map and resources.section_map are required", path)
	}
	if cfg.ThrottleSeconds <= 0 {
		cfg.ThrottleSeconds = 5
	}
	if cfg.Fred.TreasurySeries == "" {
		cfg.Fred.TreasurySeries = "DGS10"
	}
	if cfg.Fred.PCESeries == "" {
		cfg.Fred.PCESeries = "PCEPI"
	}
	return &cfg, nil
}
