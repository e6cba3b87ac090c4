package prompt

import (
	"fmt"
	"os"

	hjson "github.com/hjson/hjson-go/v4"
)

// LoadFromFile loads the per-account prompt library into the global registry.
// The file is an hjson map from account name to template, so the Korean
// prompt texts can carry comments and span multiple lines without escaping.
func LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read prompt library %s: %w", path, err)
	}

	var raw map[string]Template
	if err := hjson.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse prompt library %s: %w", path, err)
	}

	registry := Get()
	for account, t := range raw {
		tpl := t
		if tpl.Account == "" {
			tpl.Account = account
		}
		if err := registry.Register(&tpl); err != nil {
			return fmt.Errorf("failed to register prompt %q: %w", account, err)
		}
	}

	fmt.Printf("[prompt.Loader] Loaded %d prompts from %s\n", registry.Count(), path)
	return nil
}

// ForAccount returns the user prompt text for an account, or "" when none is
// registered. Callers that require a prompt use Registry.ByAccount instead.
func ForAccount(account string) string {
	t, err := Get().ByAccount(account)
	if err != nil {
		return ""
	}
	return t.UserPrompt
}

// ModelForAccount returns the model override for an account, or "".
func ModelForAccount(account string) string {
	t, err := Get().ByAccount(account)
	if err != nil {
		return ""
	}
	return t.Model
}
