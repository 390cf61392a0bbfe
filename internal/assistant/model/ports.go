package model

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// Extractors maps raw text to optional typed field values. Implementations
// are pure; unmatched input yields the zero result, never an error.
type Extractors interface {
	// Branches returns recognized branch codes, []string{"ALL"} for a
	// literal "all", or nil when nothing matched.
	Branches(text string) []string

	// Category returns a normalised category code or "".
	Category(text string) string

	// Gender returns "Boys"/"Girls" or "".
	Gender(text string) string

	// Rank returns the first number found in the text. It does not enforce
	// the rank ceiling; the flow layer needs the raw number to distinguish
	// out-of-range input from missing input.
	Rank(text string) (int, bool)
}

// Classifier labels a message with one of the intent labels. The engine never
// inspects how the verdict was produced.
type Classifier interface {
	Classify(text string) Intent
}

// IntentResolver classifies messages the keyword classifier cannot read,
// typically non-English ones, with the chat model. Resolution happens before
// the session lock is taken; failures fall back to keyword classification.
type IntentResolver interface {
	Resolve(ctx context.Context, text string) (Intent, error)
}

// CutoffLookup resolves completed cutoff/eligibility flows against the cutoff
// dataset. Each call returns a human-readable result message for one branch.
type CutoffLookup interface {
	Cutoff(ctx context.Context, branch string, category, gender Value) (string, error)
	Eligibility(ctx context.Context, rank int, branch string, category, gender Value) (string, error)
	Branches(ctx context.Context) ([]string, error)
}

// RetrievalResult is the context assembled for an informational answer.
type RetrievalResult struct {
	Context string
	Sources []string
}

// Retriever performs semantic retrieval for informational questions.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) (*RetrievalResult, error)
}

// Answerer generates the final natural-language reply for the informational
// path from the question, retrieved context, and conversation history.
type Answerer interface {
	Answer(ctx context.Context, question, ragContext string, history []*schema.Message) (string, error)
}

// ContactRequest is a completed contact-intake flow ready for submission.
type ContactRequest struct {
	Name      string
	Email     string
	Phone     string
	Programme string
	QueryType string
	Message   string // empty when skipped
}

// ContactSink persists a contact request and returns a reference id shown to
// the user.
type ContactSink interface {
	Submit(ctx context.Context, req *ContactRequest) (string, error)
}

// TranscriptRepository mirrors the conversation to durable storage. Each
// exchange is appended; a fresh in-process session rehydrates its history
// from the transcript. Failures are logged and never surfaced to the user.
type TranscriptRepository interface {
	Append(ctx context.Context, sessionID string, msg *schema.Message) error
	Load(ctx context.Context, sessionID string) ([]*schema.Message, error)
}
