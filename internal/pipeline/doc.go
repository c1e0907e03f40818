// Package pipeline runs image generation for versions the ledger has
// already created. For each version it prepares the prompt, loads the
// input image, calls the ImageGenerator, saves the result, and reports
// the outcome back through the ledger.
//
// Provider failures never escape the runner. They are recorded on the
// version as a failed generation; only ledger or store errors are
// returned.
//
// CommandGenerator plugs any external program in as the provider.
package pipeline
