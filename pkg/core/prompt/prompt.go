// Package prompt provides a centralized prompt library for the footnote
// extraction worker. Prompts are defined per canonical account in an hjson
// file and loaded at runtime, making it easy to tune prompts without code
// changes.
package prompt

// Template is the extraction instruction for one canonical account.
type Template struct {
	Account     string `json:"account"`     // Canonical account name (e.g. "이자비용")
	Description string `json:"description"` // What the prompt extracts
	UserPrompt  string `json:"user_prompt"` // Instruction appended after the footnote text
	Model       string `json:"model"`       // Optional model override for this account
}
