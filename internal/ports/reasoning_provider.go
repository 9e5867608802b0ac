package ports

import "context"

// Port: a boundary to the external reasoning service that turns a
// natural-language command into structured intent data.
type ReasoningProvider interface {
	// Send one command text and return the raw structured payload the
	// service produced. Implementations make exactly one outbound call;
	// retry policy belongs to the orchestrator.
	ExtractIntent(ctx context.Context, query string, userID string) ([]byte, error)
}
