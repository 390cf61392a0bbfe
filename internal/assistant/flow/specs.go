// Package flow implements the slot-filling machinery: flow specifications
// (ordered field/prompt lists), the generic collector that advances them one
// field at a time, message routing into flows, and reuse of a just-completed
// cutoff context.
package flow

import (
	"strings"

	"github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/assistant/model"
)

// Question pairs a field with the prompt used to ask for it.
type Question struct {
	Field  model.Field
	Prompt string
}

// Spec declares one flow: its ordered questions plus the branch catalog used
// to render the branch prompt and resolve a literal "all".
type Spec struct {
	Flow      model.Flow
	Intent    model.Intent
	Catalog   []string
	Questions []Question
}

const (
	branchPrompt   = "Which **branch(es)** are you interested in? You can pick one, multiple (e.g. CSE, ECE, IT), or say **all**.\n\n{branches}"
	categoryPrompt = "What is your **category / caste**?\n\n(e.g., OC, BC-A, BC-B, BC-C, BC-D, SC, ST, EWS)"
	genderPrompt   = "Are you a **Boy** or a **Girl**?"
	rankPrompt     = "What is your **EAPCET rank**?"

	namePrompt      = "I'd be happy to connect you with our admission team! 😊\n\nMay I have your **full name**?"
	emailPrompt     = "Thank you, {name}! 👋\n\nWhat's your **email address**?"
	phonePrompt     = "Great! What's your **phone number**? 📞"
	programmePrompt = "What programme are you interested in?\n\n1️⃣ **B.Tech** (Bachelor of Technology)\n2️⃣ **M.Tech** (Master of Technology)\n3️⃣ **MCA** (Master of Computer Applications)\n\nReply with the number or name."
	queryTypePrompt = "Thank you! What is this regarding?\n\n1️⃣ Report fraud / unauthorized agent\n2️⃣ General admission inquiry\n3️⃣ Not satisfied with chatbot response\n4️⃣ Other\n\nReply with the number or description."
	messagePrompt   = "Almost done! Would you like to add any **additional message** or details?\n\n(Or reply **skip** to submit now)"
)

// CutoffSpec asks for branch, category and gender; the result is a cutoff
// rank listing.
func CutoffSpec(catalog []string) Spec {
	return Spec{
		Flow:    model.FlowCutoff,
		Intent:  model.IntentCutoff,
		Catalog: catalog,
		Questions: []Question{
			{model.FieldBranch, branchPrompt},
			{model.FieldCategory, categoryPrompt},
			{model.FieldGender, genderPrompt},
		},
	}
}

// EligibilitySpec additionally asks for the applicant's rank.
func EligibilitySpec(catalog []string) Spec {
	return Spec{
		Flow:    model.FlowEligibility,
		Intent:  model.IntentEligibility,
		Catalog: catalog,
		Questions: []Question{
			{model.FieldBranch, branchPrompt},
			{model.FieldCategory, categoryPrompt},
			{model.FieldGender, genderPrompt},
			{model.FieldRank, rankPrompt},
		},
	}
}

// ContactSpec collects the details needed for an admission-team callback.
func ContactSpec() Spec {
	return Spec{
		Flow:   model.FlowContact,
		Intent: model.IntentContactRequest,
		Questions: []Question{
			{model.FieldName, namePrompt},
			{model.FieldEmail, emailPrompt},
			{model.FieldPhone, phonePrompt},
			{model.FieldProgramme, programmePrompt},
			{model.FieldQueryType, queryTypePrompt},
			{model.FieldMessage, messagePrompt},
		},
	}
}

// SpecFor returns the spec for an active flow so a continuation turn can be
// matched back to its question list.
func SpecFor(flow model.Flow, catalog []string) (Spec, bool) {
	switch flow {
	case model.FlowCutoff:
		return CutoffSpec(catalog), true
	case model.FlowEligibility:
		return EligibilitySpec(catalog), true
	case model.FlowContact:
		return ContactSpec(), true
	default:
		return Spec{}, false
	}
}

// renderPrompt fills prompt placeholders from the spec and collected state.
func renderPrompt(spec Spec, q Question, fields map[model.Field]model.Value) string {
	prompt := q.Prompt
	if strings.Contains(prompt, "{branches}") {
		prompt = strings.ReplaceAll(prompt, "{branches}", strings.Join(spec.Catalog, ", "))
	}
	if strings.Contains(prompt, "{name}") {
		name := "there"
		if v, ok := fields[model.FieldName]; ok && v.Text != "" {
			name = v.Text
		}
		prompt = strings.ReplaceAll(prompt, "{name}", name)
	}
	return prompt
}
