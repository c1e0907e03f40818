// Package prompt assembles generation prompts from their ordered sections
// and hashes them, so the prompt shown to a user can be proven identical to
// the prompt sent to the provider.
//
// Section order is fixed: base, options, guardrails, extra instructions.
// Later sections refine earlier ones; extra instructions carry the highest
// priority. Assembly is pure and safe for concurrent use.
package prompt
