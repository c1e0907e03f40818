package prompt

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Section names in assembly order.
const (
	SectionBase              = "base"
	SectionOptions           = "options"
	SectionGuardrails        = "guardrails"
	SectionExtraInstructions = "extra_instructions"
)

// sectionSeparator joins non-empty sections.
const sectionSeparator = "\n\n"

// Input holds the raw prompt components.
type Input struct {
	Base              string
	Options           []string
	Guardrails        []string
	ExtraInstructions string
}

// Section is one non-empty, normalized part of an assembled prompt.
type Section struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// Result is an assembled prompt and its content hash.
type Result struct {
	FullPrompt string    `json:"full_prompt"`
	Hash       string    `json:"hash"`
	Sections   []Section `json:"sections"`
}

// Assemble normalizes each section, drops empty ones, joins the rest with a
// blank line in fixed order, and hashes the result. Identical inputs always
// produce identical output.
func Assemble(in Input) Result {
	candidates := []Section{
		{Name: SectionBase, Text: normalize(in.Base)},
		{Name: SectionOptions, Text: joinFragments(in.Options)},
		{Name: SectionGuardrails, Text: joinFragments(in.Guardrails)},
		{Name: SectionExtraInstructions, Text: normalize(in.ExtraInstructions)},
	}

	sections := make([]Section, 0, len(candidates))
	texts := make([]string, 0, len(candidates))
	for _, s := range candidates {
		if s.Text == "" {
			continue
		}
		sections = append(sections, s)
		texts = append(texts, s.Text)
	}

	full := strings.Join(texts, sectionSeparator)
	return Result{
		FullPrompt: full,
		Hash:       Hash(full),
		Sections:   sections,
	}
}

// Hash returns the lowercase hex SHA-256 of text.
func Hash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

// normalize converts CRLF to LF and trims surrounding whitespace.
func normalize(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\r\n", "\n"))
}

// joinFragments normalizes each fragment, drops blanks, and joins the rest
// with single spaces.
func joinFragments(fragments []string) string {
	kept := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if n := normalize(f); n != "" {
			kept = append(kept, n)
		}
	}
	return strings.Join(kept, " ")
}
