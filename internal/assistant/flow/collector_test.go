package flow

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/assistant/extract"
	"github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/assistant/model"
)

var testCatalog = []string{"CSE", "CSE (AI & ML)", "CSE (Data Science)", "ECE", "EEE", "IT", "MECH", "CIVIL"}

func newTestCollector() *Collector {
	return NewCollector(extract.Fields{}, 200000)
}

func TestCutoffFlowHappyPath(t *testing.T) {
	c := newTestCollector()
	sess := model.NewSession("s1")
	spec := CutoffSpec(testCatalog)

	step := c.Begin(spec, sess, nil)
	require.Equal(t, StepAsk, step.Kind)
	assert.Equal(t, model.FieldBranch, step.Field)
	assert.Contains(t, step.Prompt, "CSE, CSE (AI & ML)")

	step = c.Consume(spec, sess, "cse and ece")
	require.Equal(t, StepAsk, step.Kind)
	assert.Equal(t, model.FieldCategory, step.Field)
	assert.Equal(t, []string{"CSE", "ECE"}, sess.Fields[model.FieldBranch].Branches)

	step = c.Consume(spec, sess, "oc")
	require.Equal(t, StepAsk, step.Kind)
	assert.Equal(t, model.FieldGender, step.Field)

	step = c.Consume(spec, sess, "boy")
	require.Equal(t, StepComplete, step.Kind)
	assert.Equal(t, "Boys", sess.Fields[model.FieldGender].Text)
}

func TestBeginSkipsPrefilledFields(t *testing.T) {
	c := newTestCollector()
	sess := model.NewSession("s1")
	spec := CutoffSpec(testCatalog)

	step := c.Begin(spec, sess, map[model.Field]model.Value{
		model.FieldBranch:   model.BranchValue([]string{"CSE"}, true),
		model.FieldCategory: model.TextValue("OC", true),
	})
	require.Equal(t, StepAsk, step.Kind)
	assert.Equal(t, model.FieldGender, step.Field)
}

func TestBeginFullyPrefilledCompletes(t *testing.T) {
	c := newTestCollector()
	sess := model.NewSession("s1")
	spec := CutoffSpec(testCatalog)

	step := c.Begin(spec, sess, map[model.Field]model.Value{
		model.FieldBranch:   model.BranchValue([]string{"IT"}, true),
		model.FieldCategory: model.TextValue("BC-B", true),
		model.FieldGender:   model.TextValue("Girls", true),
	})
	assert.Equal(t, StepComplete, step.Kind)
}

func TestBranchAllExpandsCatalog(t *testing.T) {
	c := newTestCollector()
	sess := model.NewSession("s1")
	spec := CutoffSpec(testCatalog)

	c.Begin(spec, sess, nil)
	c.Consume(spec, sess, "all")
	assert.Equal(t, testCatalog, sess.Fields[model.FieldBranch].Branches)
	assert.True(t, sess.Fields[model.FieldBranch].Recognized)
}

func TestUnrecognizedBranchKeptUppercase(t *testing.T) {
	c := newTestCollector()
	sess := model.NewSession("s1")
	spec := CutoffSpec(testCatalog)

	c.Begin(spec, sess, nil)
	step := c.Consume(spec, sess, "aero")
	assert.Equal(t, StepAsk, step.Kind)
	v := sess.Fields[model.FieldBranch]
	assert.Equal(t, []string{"AERO"}, v.Branches)
	assert.False(t, v.Recognized)
}

func TestRankEscapePhrases(t *testing.T) {
	for _, msg := range []string{"no", "No rank", "I don't know", "not sure", "skip"} {
		c := newTestCollector()
		sess := model.NewSession("s1")
		spec := EligibilitySpec(testCatalog)

		c.Begin(spec, sess, map[model.Field]model.Value{
			model.FieldBranch:   model.BranchValue([]string{"CSE"}, true),
			model.FieldCategory: model.TextValue("OC", true),
			model.FieldGender:   model.TextValue("Boys", true),
		})
		step := c.Consume(spec, sess, msg)
		assert.Equal(t, StepNoRank, step.Kind, "message %q", msg)
	}
}

func TestRankOutOfRangeVsNotANumber(t *testing.T) {
	c := newTestCollector()
	sess := model.NewSession("s1")
	spec := EligibilitySpec(testCatalog)

	c.Begin(spec, sess, map[model.Field]model.Value{
		model.FieldBranch:   model.BranchValue([]string{"CSE"}, true),
		model.FieldCategory: model.TextValue("OC", true),
		model.FieldGender:   model.TextValue("Boys", true),
	})

	step := c.Consume(spec, sess, "500000")
	require.Equal(t, StepReprompt, step.Kind)
	assert.Contains(t, step.Prompt, "1 to 200,000")

	step = c.Consume(spec, sess, "around twenty one thousand")
	require.Equal(t, StepReprompt, step.Kind)
	assert.Contains(t, step.Prompt, "as a number")

	step = c.Consume(spec, sess, "my rank is 21000")
	require.Equal(t, StepComplete, step.Kind)
	assert.Equal(t, 21000, sess.Fields[model.FieldRank].Number)
}

// A zero rank must be rejected, not stored: Number == 0 is the "no rank"
// sentinel and a stored zero would silently degrade the flow to a cutoff
// listing.
func TestRankZeroRejected(t *testing.T) {
	c := newTestCollector()
	sess := model.NewSession("s1")
	spec := EligibilitySpec(testCatalog)

	c.Begin(spec, sess, map[model.Field]model.Value{
		model.FieldBranch:   model.BranchValue([]string{"CSE"}, true),
		model.FieldCategory: model.TextValue("OC", true),
		model.FieldGender:   model.TextValue("Boys", true),
	})

	step := c.Consume(spec, sess, "0")
	require.Equal(t, StepReprompt, step.Kind)
	assert.Contains(t, step.Prompt, "1 to 200,000")
	assert.Equal(t, model.FlowEligibility, sess.ActiveFlow)
	_, stored := sess.Fields[model.FieldRank]
	assert.False(t, stored)

	step = c.Consume(spec, sess, "5000")
	require.Equal(t, StepComplete, step.Kind)
}

func TestContactFlowValidation(t *testing.T) {
	c := newTestCollector()
	sess := model.NewSession("s1")
	spec := ContactSpec()

	step := c.Begin(spec, sess, nil)
	require.Equal(t, StepAsk, step.Kind)
	assert.Equal(t, model.FieldName, step.Field)

	step = c.Consume(spec, sess, "x")
	assert.Equal(t, StepReprompt, step.Kind)

	step = c.Consume(spec, sess, "Priya Sharma")
	require.Equal(t, StepAsk, step.Kind)
	assert.Equal(t, model.FieldEmail, step.Field)
	assert.Contains(t, step.Prompt, "Priya Sharma")

	step = c.Consume(spec, sess, "not-an-email")
	assert.Equal(t, StepReprompt, step.Kind)

	step = c.Consume(spec, sess, "priya@example.com")
	require.Equal(t, StepAsk, step.Kind)
	assert.Equal(t, model.FieldPhone, step.Field)

	step = c.Consume(spec, sess, "12345")
	assert.Equal(t, StepReprompt, step.Kind)

	step = c.Consume(spec, sess, "my number is 9876543210")
	require.Equal(t, StepAsk, step.Kind)
	assert.Equal(t, model.FieldProgramme, step.Field)
	assert.Equal(t, "9876543210", sess.Fields[model.FieldPhone].Text)

	step = c.Consume(spec, sess, "btech")
	require.Equal(t, StepAsk, step.Kind)
	assert.Equal(t, model.FieldQueryType, step.Field)
	assert.Equal(t, "B.Tech", sess.Fields[model.FieldProgramme].Text)

	step = c.Consume(spec, sess, "2")
	require.Equal(t, StepAsk, step.Kind)
	assert.Equal(t, model.FieldMessage, step.Field)
	assert.Equal(t, "general_inquiry", sess.Fields[model.FieldQueryType].Text)

	step = c.Consume(spec, sess, "skip")
	require.Equal(t, StepComplete, step.Kind)
	assert.True(t, sess.Fields[model.FieldMessage].Skipped)
}

func TestQueryTypeParsing(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1", "fraud_report"},
		{"someone claiming to be an agent", "fraud_report"},
		{"general admission question", "general_inquiry"},
		{"not satisfied with the answers", "dissatisfied"},
		{"4", "other"},
	}
	for _, tt := range tests {
		got, ok := parseQueryType(tt.in)
		require.True(t, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	_, ok := parseQueryType("hmm")
	assert.False(t, ok)
}

func TestCommaFormat(t *testing.T) {
	assert.Equal(t, "200,000", commaFormat(200000))
	assert.Equal(t, "1,000", commaFormat(1000))
	assert.Equal(t, "999", commaFormat(999))
	assert.Equal(t, "1,234,567", commaFormat(1234567))
}

func TestBeginClearsPreviousFlowState(t *testing.T) {
	c := newTestCollector()
	sess := model.NewSession("s1")

	c.Begin(CutoffSpec(testCatalog), sess, map[model.Field]model.Value{
		model.FieldBranch: model.BranchValue([]string{"CSE"}, true),
	})
	step := c.Begin(ContactSpec(), sess, nil)
	require.Equal(t, StepAsk, step.Kind)
	assert.Equal(t, model.FieldName, step.Field)
	_, stale := sess.Fields[model.FieldBranch]
	assert.False(t, stale)
}

func TestPromptsCarryNoPlaceholders(t *testing.T) {
	sess := model.NewSession("s1")
	sess.Fields[model.FieldName] = model.TextValue("Ravi", true)
	for _, spec := range []Spec{CutoffSpec(testCatalog), EligibilitySpec(testCatalog), ContactSpec()} {
		for _, q := range spec.Questions {
			rendered := renderPrompt(spec, q, sess.Fields)
			assert.False(t, strings.Contains(rendered, "{"), "unrendered placeholder in %s", q.Field)
		}
	}
}
