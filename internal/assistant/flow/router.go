package flow

import (
	"strings"

	"github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/assistant/model"
)

// contactTriggers start the contact-request flow regardless of what the
// classifier says.
var contactTriggers = []string{
	"contact admission", "contact the admission", "talk to admission",
	"speak to admission", "reach admission", "admission team",
	"report fraud", "report a fraud", "unauthorized agent", "fake agent",
	"not satisfied", "complaint", "raise a complaint", "file a complaint",
	"call me", "call back", "callback", "contact me", "reach out to me",
	"talk to a human", "speak to a human", "talk to someone", "human agent",
	"real person",
}

// Router turns a free-form message into a flow decision: which flow to start
// (if any) and which fields the message already answers.
type Router struct {
	ex          model.Extractors
	classifier  model.Classifier
	rankCeiling int
}

func NewRouter(ex model.Extractors, classifier model.Classifier, rankCeiling int) *Router {
	return &Router{ex: ex, classifier: classifier, rankCeiling: rankCeiling}
}

// IsContactTrigger reports whether the message explicitly asks for the
// admission team.
func IsContactTrigger(msg string) bool {
	lower := strings.ToLower(msg)
	for _, t := range contactTriggers {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

// Route classifies the message. A non-empty verdict, resolved by the LLM
// before the session lock was taken, replaces keyword classification. A
// pending data hint from an earlier turn upgrades an informational result to
// a cutoff request, since the user was mid-way through supplying cutoff data.
func (r *Router) Route(msg string, verdict model.Intent, pendingHint bool) model.Intent {
	if IsContactTrigger(msg) {
		return model.IntentContactRequest
	}
	intent := verdict
	if intent == "" {
		intent = r.classifier.Classify(msg)
	}
	if pendingHint && intent == model.IntentInformational {
		return model.IntentCutoff
	}
	return intent
}

// Prefill harvests every field the triggering message already answers, so
// the collector skips those questions. Rank is only meaningful for the
// eligibility flow, and only inside [1, ceiling]: an out-of-range rank is
// left unfilled so the collector asks for it and can re-prompt.
func (r *Router) Prefill(msg string, flow model.Flow, catalog []string) map[model.Field]model.Value {
	fields := make(map[model.Field]model.Value)
	if branches := r.ex.Branches(msg); len(branches) > 0 {
		if len(branches) == 1 && branches[0] == "ALL" {
			branches = catalog
		}
		fields[model.FieldBranch] = model.BranchValue(branches, true)
	}
	if cat := r.ex.Category(msg); cat != "" {
		fields[model.FieldCategory] = model.TextValue(cat, true)
	}
	if g := r.ex.Gender(msg); g != "" {
		fields[model.FieldGender] = model.TextValue(g, true)
	}
	if flow == model.FlowEligibility {
		if rank, ok := r.ex.Rank(msg); ok && rank >= 1 && rank <= r.rankCeiling {
			fields[model.FieldRank] = model.RankValue(rank)
		}
	}
	return fields
}
