package generation

import "context"

// Request names the subject a report should cover. Team and league are
// optional disambiguators.
type Request struct {
	Subject string
	Team    string
	League  string
}

// Result is one successful generation. Token counts feed cost tracking.
type Result struct {
	Content      string
	Model        string
	InputTokens  int
	OutputTokens int
}

// Generator produces report content. Implementations must not mutate
// any state: callers charge and persist only after a successful return.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}
