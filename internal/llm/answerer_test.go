package llm

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
)

func TestBuildUserContentWithContext(t *testing.T) {
	content := buildUserContent("what is the fee structure?", "Fees are 1.5L per year.")
	assert.Contains(t, content, "User question: what is the fee structure?")
	assert.Contains(t, content, "--- Retrieved Context ---")
	assert.Contains(t, content, "Fees are 1.5L per year.")
}

func TestBuildUserContentWithoutContext(t *testing.T) {
	content := buildUserContent("what is the fee structure?", "")
	assert.Contains(t, content, "No specific context was retrieved")
}

func TestComputeCost(t *testing.T) {
	usage := &schema.TokenUsage{PromptTokens: 1_000_000, CompletionTokens: 1_000_000}
	in, out, total := ComputeCost(usage, ResolvePricing("gemini-2.5-flash"))
	assert.InDelta(t, 0.30, in, 1e-9)
	assert.InDelta(t, 2.50, out, 1e-9)
	assert.InDelta(t, 2.80, total, 1e-9)
}

func TestComputeCostNilUsage(t *testing.T) {
	in, out, total := ComputeCost(nil, ResolvePricing("gemini-2.5-flash"))
	assert.Zero(t, in)
	assert.Zero(t, out)
	assert.Zero(t, total)
}

func TestResolvePricingUnknownModelIsZero(t *testing.T) {
	p := ResolvePricing("some-other-model")
	assert.Zero(t, p.InputPerM)
	assert.Zero(t, p.OutputPerM)
}
