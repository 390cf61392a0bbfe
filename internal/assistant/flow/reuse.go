package flow

import (
	"fmt"
	"strings"

	"github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/assistant/model"
)

var affirmatives = map[string]bool{
	"yes": true, "y": true, "yeah": true, "yep": true,
	"sure": true, "ok": true, "okay": true,
}

// IsAffirmative matches a bare confirmation reply.
func IsAffirmative(msg string) bool {
	return affirmatives[strings.ToLower(strings.TrimSpace(msg))]
}

// ShouldOfferReuse reports whether an eligibility request can borrow the
// branch, category and gender from the session's last completed cutoff
// lookup: the new message carries a rank but no branch of its own.
func ShouldOfferReuse(sess *model.Session, prefilled map[model.Field]model.Value) bool {
	if sess.LastCutoff == nil {
		return false
	}
	_, hasRank := prefilled[model.FieldRank]
	_, hasBranch := prefilled[model.FieldBranch]
	return hasRank && !hasBranch
}

// ReusePrompt renders the confirmation question for a remembered cutoff
// context.
func ReusePrompt(snap *model.CutoffSnapshot) string {
	return fmt.Sprintf(
		"I see you just asked about **%s** / **%s** category / **%s**. Would you like me to check eligibility for the same?\n\nReply **YES** to use these details, or provide new branch/category/gender.",
		strings.Join(snap.Branches, ", "), snap.Category.Text, snap.Gender.Text)
}

// ReuseFields converts the snapshot into prefilled eligibility fields,
// carrying the rank captured when reuse was offered.
func ReuseFields(snap *model.CutoffSnapshot, rank int) map[model.Field]model.Value {
	return map[model.Field]model.Value{
		model.FieldBranch:   model.BranchValue(snap.Branches, true),
		model.FieldCategory: snap.Category,
		model.FieldGender:   snap.Gender,
		model.FieldRank:     model.RankValue(rank),
	}
}
