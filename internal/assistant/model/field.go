package model

// Field names one slot of a collection flow. The engine asks for exactly one
// field at a time; Session.WaitingFor holds the field the next user message
// is expected to answer.
type Field string

const (
	FieldBranch   Field = "branch"
	FieldCategory Field = "category"
	FieldGender   Field = "gender"
	FieldRank     Field = "rank"

	FieldName      Field = "name"
	FieldEmail     Field = "email"
	FieldPhone     Field = "phone"
	FieldProgramme Field = "programme"
	FieldQueryType Field = "query_type"
	FieldMessage   Field = "message"

	// FieldReuseDecision is the synthetic slot the session waits on while a
	// reuse-confirmation question is outstanding.
	FieldReuseDecision Field = "reuse_decision"
)

// Value is a collected answer for a single field. Branch answers carry one or
// more branch codes; rank carries a number; everything else is text.
// Recognized distinguishes an extractor match from the permissive
// raw-uppercased fallback, so the lookup layer decides whether an unvalidated
// value is usable.
type Value struct {
	Branches   []string `json:"branches,omitempty"`
	Text       string   `json:"text,omitempty"`
	Number     int      `json:"number,omitempty"`
	Recognized bool     `json:"recognized"`
	Skipped    bool     `json:"skipped,omitempty"`
}

// BranchValue holds one or more branch codes.
func BranchValue(branches []string, recognized bool) Value {
	return Value{Branches: branches, Recognized: recognized}
}

// TextValue holds a textual field answer.
func TextValue(text string, recognized bool) Value {
	return Value{Text: text, Recognized: recognized}
}

// RankValue holds a numeric rank.
func RankValue(n int) Value {
	return Value{Number: n, Recognized: true}
}

// SkippedValue marks an optional field the user explicitly skipped. The flow
// treats the field as satisfied, not missing.
func SkippedValue() Value {
	return Value{Skipped: true}
}
