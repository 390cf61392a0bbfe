package flow

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/assistant/model"
)

// StepKind classifies what the collector wants next.
type StepKind int

const (
	// StepAsk prompts for the next unfilled field.
	StepAsk StepKind = iota
	// StepReprompt re-asks the current field after an invalid answer.
	StepReprompt
	// StepComplete signals every field is filled; the caller ends the flow.
	StepComplete
	// StepNoRank signals the caller declined to give a rank; the flow
	// degrades to a cutoff listing.
	StepNoRank
)

// Step is one collector decision: what to say, or that collection finished.
type Step struct {
	Kind   StepKind
	Field  model.Field
	Prompt string
}

var (
	emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRe = regexp.MustCompile(`\b(\d{10})\b`)

	noRankPhrases = []string{
		"no rank", "don't have", "dont have", "don't know", "dont know",
		"not sure", "skip", "no",
	}
)

const (
	nameReprompt      = "Please provide your **full name** (at least 2 characters)."
	emailReprompt     = "That doesn't look like a valid email address. Please enter your **email** (e.g., student@example.com)."
	phoneReprompt     = "Please provide a valid **10-digit phone number** (e.g., 9876543210)."
	programmeReprompt = "Please choose a programme:\n\n1️⃣ B.Tech\n2️⃣ M.Tech\n3️⃣ MCA\n\nReply with the number (1, 2, or 3)."
	queryTypeReprompt = "Please choose an option:\n\n1️⃣ Report fraud\n2️⃣ General inquiry\n3️⃣ Not satisfied with chatbot\n4️⃣ Other\n\nReply with the number (1-4)."
	rankNotNumber     = "I couldn't understand that. Please enter your **EAPCET rank** as a number (e.g., 5000).\n\nOr reply **no** if you just want to see cutoff ranks."
)

// Collector fills one flow's fields from successive user messages. It is
// stateless; all progress lives on the session.
type Collector struct {
	ex          model.Extractors
	rankCeiling int
}

func NewCollector(ex model.Extractors, rankCeiling int) *Collector {
	return &Collector{ex: ex, rankCeiling: rankCeiling}
}

// Begin starts a flow on the session, seeds it with prefilled values and
// returns the first step. A fully prefilled flow completes immediately.
func (c *Collector) Begin(spec Spec, sess *model.Session, prefilled map[model.Field]model.Value) Step {
	sess.BeginFlow(spec.Flow)
	for f, v := range prefilled {
		sess.Fields[f] = v
	}
	return c.advance(spec, sess)
}

// Consume applies one user message to the field the session is waiting for,
// then advances to the next unfilled field.
func (c *Collector) Consume(spec Spec, sess *model.Session, msg string) Step {
	field := sess.WaitingFor
	switch field {
	case model.FieldBranch:
		sess.Fields[field] = c.branchValue(spec, msg)
	case model.FieldCategory:
		sess.Fields[field] = c.categoryValue(msg)
	case model.FieldGender:
		sess.Fields[field] = c.genderValue(msg)
	case model.FieldRank:
		step, ok := c.rankStep(sess, msg)
		if !ok {
			return step
		}
	case model.FieldName:
		name := strings.TrimSpace(msg)
		if len(name) < 2 {
			return Step{Kind: StepReprompt, Field: field, Prompt: nameReprompt}
		}
		sess.Fields[field] = model.TextValue(name, true)
	case model.FieldEmail:
		email := strings.TrimSpace(msg)
		if !emailRe.MatchString(email) {
			return Step{Kind: StepReprompt, Field: field, Prompt: emailReprompt}
		}
		sess.Fields[field] = model.TextValue(email, true)
	case model.FieldPhone:
		m := phoneRe.FindStringSubmatch(msg)
		if m == nil {
			return Step{Kind: StepReprompt, Field: field, Prompt: phoneReprompt}
		}
		sess.Fields[field] = model.TextValue(m[1], true)
	case model.FieldProgramme:
		programme, ok := parseProgramme(msg)
		if !ok {
			return Step{Kind: StepReprompt, Field: field, Prompt: programmeReprompt}
		}
		sess.Fields[field] = model.TextValue(programme, true)
	case model.FieldQueryType:
		qt, ok := parseQueryType(msg)
		if !ok {
			return Step{Kind: StepReprompt, Field: field, Prompt: queryTypeReprompt}
		}
		sess.Fields[field] = model.TextValue(qt, true)
	case model.FieldMessage:
		text := strings.TrimSpace(msg)
		if strings.EqualFold(text, "skip") {
			sess.Fields[field] = model.SkippedValue()
		} else {
			sess.Fields[field] = model.TextValue(text, true)
		}
	}
	return c.advance(spec, sess)
}

func (c *Collector) advance(spec Spec, sess *model.Session) Step {
	for _, q := range spec.Questions {
		if _, ok := sess.Fields[q.Field]; ok {
			continue
		}
		sess.WaitingFor = q.Field
		return Step{Kind: StepAsk, Field: q.Field, Prompt: renderPrompt(spec, q, sess.Fields)}
	}
	return Step{Kind: StepComplete}
}

// branchValue resolves extracted branches, expanding "ALL" to the full
// catalog. Unrecognized input is kept verbatim in uppercase so the lookup
// layer can still try it.
func (c *Collector) branchValue(spec Spec, msg string) model.Value {
	branches := c.ex.Branches(msg)
	if len(branches) == 1 && branches[0] == "ALL" {
		return model.BranchValue(spec.Catalog, true)
	}
	if len(branches) > 0 {
		return model.BranchValue(branches, true)
	}
	return model.BranchValue([]string{strings.ToUpper(strings.TrimSpace(msg))}, false)
}

func (c *Collector) categoryValue(msg string) model.Value {
	if cat := c.ex.Category(msg); cat != "" {
		return model.TextValue(cat, true)
	}
	return model.TextValue(strings.ToUpper(strings.TrimSpace(msg)), false)
}

func (c *Collector) genderValue(msg string) model.Value {
	if g := c.ex.Gender(msg); g != "" {
		return model.TextValue(g, true)
	}
	return model.TextValue(strings.TrimSpace(msg), false)
}

// rankStep handles the rank answer. Escape phrases abandon the rank and the
// caller degrades the flow; a number outside [1, ceiling] and a message with
// no number get distinct reprompts. ok reports whether collection advanced.
// A stored rank is always >= 1, so Number == 0 reliably means "no rank".
func (c *Collector) rankStep(sess *model.Session, msg string) (Step, bool) {
	if declinesRank(msg) {
		return Step{Kind: StepNoRank, Field: model.FieldRank}, false
	}
	rank, ok := c.ex.Rank(msg)
	if !ok {
		return Step{Kind: StepReprompt, Field: model.FieldRank, Prompt: rankNotNumber}, false
	}
	if rank < 1 {
		prompt := fmt.Sprintf(
			"That doesn't look like a valid rank. EAPCET ranks range from **1 to %s**. Please re-enter your correct rank.",
			commaFormat(c.rankCeiling))
		return Step{Kind: StepReprompt, Field: model.FieldRank, Prompt: prompt}, false
	}
	if rank > c.rankCeiling {
		prompt := fmt.Sprintf(
			"That rank seems too high. EAPCET ranks typically range from **1 to %s**. Please re-enter your correct rank.",
			commaFormat(c.rankCeiling))
		return Step{Kind: StepReprompt, Field: model.FieldRank, Prompt: prompt}, false
	}
	sess.Fields[model.FieldRank] = model.RankValue(rank)
	return Step{}, true
}

func declinesRank(msg string) bool {
	lower := strings.ToLower(strings.TrimSpace(msg))
	lower = strings.ReplaceAll(lower, "&#39;", "'")
	for _, p := range noRankPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func parseProgramme(msg string) (string, bool) {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "1") || strings.Contains(lower, "b.tech") ||
		strings.Contains(lower, "btech") || strings.Contains(lower, "bachelor"):
		return "B.Tech", true
	case strings.Contains(lower, "2") || strings.Contains(lower, "m.tech") ||
		strings.Contains(lower, "mtech") || strings.Contains(lower, "master of tech"):
		return "M.Tech", true
	case strings.Contains(lower, "3") || strings.Contains(lower, "mca"):
		return "MCA", true
	}
	return "", false
}

func parseQueryType(msg string) (string, bool) {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "1") || strings.Contains(lower, "fraud") ||
		strings.Contains(lower, "agent") || strings.Contains(lower, "scam"):
		return "fraud_report", true
	case strings.Contains(lower, "2") || strings.Contains(lower, "general") ||
		strings.Contains(lower, "inquiry") || strings.Contains(lower, "admission"):
		return "general_inquiry", true
	case strings.Contains(lower, "3") || strings.Contains(lower, "not satisfied") ||
		strings.Contains(lower, "dissatisfied") || strings.Contains(lower, "chatbot"):
		return "dissatisfied", true
	case strings.Contains(lower, "4") || strings.Contains(lower, "other"):
		return "other", true
	}
	return "", false
}

func commaFormat(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
