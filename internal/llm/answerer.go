// Package llm generates the natural-language replies for informational
// questions with Gemini, grounding every answer in retrieved context.
package llm

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/assistant/model"
	logx "github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/pkg/logger"
)

//go:embed template/system_prompt.txt
var systemPromptTemplate string

// NewGeminiClient creates the shared Gemini API client.
func NewGeminiClient(ctx context.Context, apiKey, baseURL string) (*genai.Client, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		clientCfg.HTTPOptions.BaseURL = baseURL
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return client, nil
}

// Answerer generates informational replies with a Gemini chat model.
type Answerer struct {
	chatModel *gemini.ChatModel
	modelName string
	college   model.CollegeConfig
}

var _ model.Answerer = (*Answerer)(nil)

// NewAnswerer builds the chat model on top of a shared Gemini client.
func NewAnswerer(ctx context.Context, client *genai.Client, cfg model.AnswerModelConfig, college model.CollegeConfig) (*Answerer, error) {
	chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Model,
		Temperature: &cfg.Temperature,
		MaxTokens:   &cfg.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("create answer model: %w", err)
	}
	return &Answerer{chatModel: chatModel, modelName: cfg.Model, college: college}, nil
}

// renderSystem renders the system prompt template with college identity.
func (a *Answerer) renderSystem(ctx context.Context) (string, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(systemPromptTemplate),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"CollegeName":      a.college.Name,
		"CollegeShortName": a.college.ShortName,
	})
	if err != nil {
		return "", fmt.Errorf("system prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("system prompt render: empty result")
	}
	return msgs[0].Content, nil
}

// Answer produces the reply for one informational question. History gives the
// model conversational continuity; ragContext may be empty when retrieval
// found nothing.
func (a *Answerer) Answer(ctx context.Context, question, ragContext string, history []*schema.Message) (string, error) {
	system, err := a.renderSystem(ctx)
	if err != nil {
		return "", err
	}

	msgs := make([]*schema.Message, 0, len(history)+2)
	msgs = append(msgs, schema.SystemMessage(system))
	msgs = append(msgs, history...)
	msgs = append(msgs, schema.UserMessage(buildUserContent(question, ragContext)))

	resp, err := a.chatModel.Generate(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}

	a.logUsage(resp)
	return strings.TrimSpace(resp.Content), nil
}

func buildUserContent(question, ragContext string) string {
	parts := []string{fmt.Sprintf("User question: %s", question)}
	if ragContext != "" {
		parts = append(parts, fmt.Sprintf("\n--- Retrieved Context ---\n%s", ragContext))
	} else {
		parts = append(parts,
			"\n[No specific context was retrieved. Answer based on general knowledge in the system prompt, or state that the information is unavailable.]")
	}
	return strings.Join(parts, "\n")
}

func (a *Answerer) logUsage(resp *schema.Message) {
	if resp.ResponseMeta == nil || resp.ResponseMeta.Usage == nil {
		return
	}
	usage := resp.ResponseMeta.Usage
	in, out, total := ComputeCost(usage, ResolvePricing(a.modelName))
	logx.Debug().
		Str("model", a.modelName).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Float64("input_cost_usd", in).
		Float64("output_cost_usd", out).
		Float64("total_cost_usd", total).
		Msg("answer generated")
}
