package textgen

import "context"

const (
	placeholderPreamble = "Mock AI Response for testing purposes.\n\nThis would contain the actual AI-generated content based on the prompt:\n\n"
	placeholderExcerpt  = 200
)

// Placeholder answers every prompt with canned text quoting the start of the
// prompt. It never fails and never performs I/O.
type Placeholder struct{}

func (Placeholder) Name() string { return "placeholder" }

func (Placeholder) Generate(_ context.Context, prompt string) (Result, error) {
	return Result{Text: PlaceholderText(prompt), Placeholder: true}, nil
}

// PlaceholderText is the deterministic stub for prompt: the preamble, the
// first 200 characters of prompt, then "...".
func PlaceholderText(prompt string) string {
	excerpt := prompt
	if r := []rune(prompt); len(r) > placeholderExcerpt {
		excerpt = string(r[:placeholderExcerpt])
	}
	return placeholderPreamble + excerpt + "..."
}
