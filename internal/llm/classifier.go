package llm

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/assistant/model"
)

//go:embed template/intent_prompt.txt
var intentPrompt string

// IntentResolver classifies messages the keyword classifier cannot read,
// typically non-English ones, with a small Gemini model.
type IntentResolver struct {
	chatModel *gemini.ChatModel
}

var _ model.IntentResolver = (*IntentResolver)(nil)

// NewIntentResolver builds the classification model on top of a shared
// Gemini client.
func NewIntentResolver(ctx context.Context, client *genai.Client, modelName string) (*IntentResolver, error) {
	temperature := float32(0)
	maxTokens := 10
	chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       modelName,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("create intent model: %w", err)
	}
	return &IntentResolver{chatModel: chatModel}, nil
}

// Resolve returns the model's intent verdict for one message.
func (r *IntentResolver) Resolve(ctx context.Context, text string) (model.Intent, error) {
	resp, err := r.chatModel.Generate(ctx, []*schema.Message{
		schema.SystemMessage(intentPrompt),
		schema.UserMessage(text),
	})
	if err != nil {
		return "", fmt.Errorf("classify intent: %w", err)
	}
	return parseIntent(resp.Content), nil
}

// parseIntent normalises the model output to a known label. Anything
// unrecognised falls back to informational.
func parseIntent(raw string) model.Intent {
	label := strings.ToLower(strings.TrimSpace(raw))
	label = strings.Trim(label, "\"'.`")
	switch model.Intent(label) {
	case model.IntentGreeting, model.IntentCutoff, model.IntentEligibility,
		model.IntentContactRequest, model.IntentOutOfScope, model.IntentInformational:
		return model.Intent(label)
	default:
		return model.IntentInformational
	}
}
