// Package engine orchestrates one chat turn: rate admission, session state,
// flow continuation or routing, and resolution against the lookup, retrieval
// and answer collaborators.
//
// All session mutation happens inside the session lock; the lock is released
// before any lookup, database or LLM call, then briefly re-taken to record
// the exchange.
package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/assistant/classify"
	"github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/assistant/extract"
	"github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/assistant/flow"
	"github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/assistant/model"
	"github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/assistant/ratelimit"
	"github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/assistant/session"
	errx "github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/core/error"
	logx "github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/pkg/logger"
)

// Request is one inbound chat message.
type Request struct {
	SessionID string
	ClientKey string
	Message   string
}

// Reply is the engine's answer for one turn. SessionID must be echoed back by
// the caller on the next turn.
type Reply struct {
	Text      string
	Intent    model.Intent
	SessionID string
	Sources   []string
}

// Engine wires the dialogue core to its collaborators.
type Engine struct {
	limiter    *ratelimit.Limiter
	store      *session.Store
	router     *flow.Router
	collector  *flow.Collector
	lookup     model.CutoffLookup
	retriever  model.Retriever
	answerer   model.Answerer
	contacts   model.ContactSink
	transcript model.TranscriptRepository
	intents    model.IntentResolver

	cfg     model.EngineConfig
	college model.CollegeConfig
}

// Deps carries the engine's collaborators. Retriever, Answerer, Transcript
// and Intents may be nil; the informational path then degrades to a fixed
// reply, the durable transcript mirror is skipped, and non-English messages
// fall through to keyword classification.
type Deps struct {
	Limiter    *ratelimit.Limiter
	Store      *session.Store
	Router     *flow.Router
	Collector  *flow.Collector
	Lookup     model.CutoffLookup
	Retriever  model.Retriever
	Answerer   model.Answerer
	Contacts   model.ContactSink
	Transcript model.TranscriptRepository
	Intents    model.IntentResolver
}

func New(deps Deps, cfg model.EngineConfig, college model.CollegeConfig) *Engine {
	return &Engine{
		limiter:    deps.Limiter,
		store:      deps.Store,
		router:     deps.Router,
		collector:  deps.Collector,
		lookup:     deps.Lookup,
		retriever:  deps.Retriever,
		answerer:   deps.Answerer,
		contacts:   deps.Contacts,
		transcript: deps.Transcript,
		intents:    deps.Intents,
		cfg:        cfg,
		college:    college,
	}
}

type outcomeKind int

const (
	// outReply is a fully formed reply needing no external call.
	outReply outcomeKind = iota
	// outLookup resolves collected cutoff/eligibility fields per branch.
	outLookup
	// outContact submits a completed contact request.
	outContact
	// outInform runs the retrieval + answer-generation path.
	outInform
)

// outcome is the decision taken under the session lock. External calls happen
// after the lock is released.
type outcome struct {
	kind     outcomeKind
	intent   model.Intent
	text     string // reply for outReply, reply prefix for outLookup
	question string // original user message, for the retrieval/answer path
	sources  []string

	branches []string
	category model.Value
	gender   model.Value
	rank     int // 0 means no rank
	withRAG  bool

	contact *model.ContactRequest
	history []*schema.Message
}

// Handle processes one chat turn end to end.
func (e *Engine) Handle(ctx context.Context, req Request) (*Reply, error) {
	if !e.limiter.Admit(req.ClientKey) {
		return nil, errx.RateLimited()
	}

	msg := extract.Sanitize(req.Message, e.cfg.MaxMessageChars)
	if msg == "" {
		return nil, errx.EmptyMessage()
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	catalog := e.catalog(ctx)

	sess, created := e.store.GetOrCreate(sessionID)
	if created {
		e.rehydrate(ctx, sess)
	}

	verdict := e.resolveVerdict(ctx, sess, msg)

	sess.Lock()
	out := e.advance(sess, msg, catalog, verdict)
	if out.kind == outInform || out.withRAG {
		out.history = sess.HistorySnapshot()
	}
	sess.Unlock()

	text, sources := e.resolve(ctx, out)

	sess.Lock()
	sess.AppendExchange(msg, text, e.cfg.HistoryMax)
	sess.Unlock()

	e.mirror(ctx, sessionID, msg, text)

	return &Reply{Text: text, Intent: out.intent, SessionID: sessionID, Sources: sources}, nil
}

// rehydrate restores a freshly created session's history from the durable
// transcript, so a restart or expiry does not lose conversational context.
func (e *Engine) rehydrate(ctx context.Context, sess *model.Session) {
	if e.transcript == nil {
		return
	}
	msgs, err := e.transcript.Load(ctx, sess.ID)
	if err != nil {
		logx.Warn().Err(err).Str("session_id", sess.ID).Msg("transcript rehydration failed")
		return
	}
	if len(msgs) == 0 {
		return
	}
	if e.cfg.HistoryMax > 0 && len(msgs) > e.cfg.HistoryMax {
		msgs = msgs[len(msgs)-e.cfg.HistoryMax:]
	}
	sess.Lock()
	if len(sess.History) == 0 {
		sess.History = msgs
	}
	sess.Unlock()
}

// resolveVerdict asks the LLM resolver to classify a non-English message
// before the session lock is taken. An empty verdict means keyword
// classification applies; mid-flow messages never need one.
func (e *Engine) resolveVerdict(ctx context.Context, sess *model.Session, msg string) model.Intent {
	if e.intents == nil || !classify.IsNonEnglish(msg) {
		return ""
	}
	sess.Lock()
	active := sess.ActiveFlow
	sess.Unlock()
	if active != model.FlowNone {
		return ""
	}
	intent, err := e.intents.Resolve(ctx, msg)
	if err != nil {
		logx.Warn().Err(err).Msg("llm intent resolution failed, falling back to keywords")
		return ""
	}
	return intent
}

// advance performs all state transitions for the turn. Caller holds the
// session lock. The returned outcome is resolved without the lock.
func (e *Engine) advance(sess *model.Session, msg string, catalog []string, verdict model.Intent) outcome {
	switch {
	case sess.ActiveFlow == model.FlowReuseConfirm:
		return e.continueReuse(sess, msg, catalog)
	case sess.ActiveFlow != model.FlowNone:
		return e.continueFlow(sess, msg, catalog)
	default:
		return e.route(sess, msg, catalog, verdict)
	}
}

func (e *Engine) continueReuse(sess *model.Session, msg string, catalog []string) outcome {
	snap := sess.LastCutoff
	if !flow.IsAffirmative(msg) || snap == nil {
		// Fresh details requested; restart eligibility from the top.
		spec := flow.EligibilitySpec(catalog)
		step := e.collector.Begin(spec, sess, nil)
		sess.PendingHint = true
		return outcome{
			kind:   outReply,
			intent: model.IntentEligibility,
			text:   "Sure! Let me help you check your eligibility.\n\n" + step.Prompt,
		}
	}

	rank := sess.ReuseCarriedRank
	if rank > 0 {
		fields := flow.ReuseFields(snap, rank)
		sess.EndFlow()
		return outcome{
			kind:     outLookup,
			intent:   model.IntentEligibility,
			branches: fields[model.FieldBranch].Branches,
			category: fields[model.FieldCategory],
			gender:   fields[model.FieldGender],
			rank:     rank,
			sources:  []string{e.cutoffSource()},
		}
	}

	spec := flow.EligibilitySpec(catalog)
	step := e.collector.Begin(spec, sess, map[model.Field]model.Value{
		model.FieldBranch:   model.BranchValue(snap.Branches, true),
		model.FieldCategory: snap.Category,
		model.FieldGender:   snap.Gender,
	})
	sess.PendingHint = true
	return outcome{
		kind:   outReply,
		intent: model.IntentEligibility,
		text:   "Great! " + step.Prompt,
	}
}

func (e *Engine) continueFlow(sess *model.Session, msg string, catalog []string) outcome {
	spec, ok := flow.SpecFor(sess.ActiveFlow, catalog)
	if !ok {
		// Unknown flow state; reset and route fresh.
		sess.EndFlow()
		return e.route(sess, msg, catalog, "")
	}

	step := e.collector.Consume(spec, sess, msg)
	switch step.Kind {
	case flow.StepAsk, flow.StepReprompt:
		if spec.Flow != model.FlowContact {
			sess.PendingHint = true
		}
		return outcome{kind: outReply, intent: spec.Intent, text: step.Prompt}

	case flow.StepNoRank:
		fields := sess.EndFlow()
		category, okCat := fields[model.FieldCategory]
		if !okCat {
			category = model.TextValue("OC", true)
		}
		gender, okGen := fields[model.FieldGender]
		if !okGen {
			gender = model.TextValue("Boys", true)
		}
		return outcome{
			kind:     outLookup,
			intent:   model.IntentCutoff,
			text:     "No worries! Here are the cutoff ranks for reference:\n\n",
			branches: fields[model.FieldBranch].Branches,
			category: category,
			gender:   gender,
			sources:  []string{e.cutoffSource()},
		}

	default: // StepComplete
		return e.completeFlow(sess, spec)
	}
}

// completeFlow ends the active flow and converts its fields into a resolution
// outcome. Caller holds the session lock.
func (e *Engine) completeFlow(sess *model.Session, spec flow.Spec) outcome {
	fields := sess.EndFlow()

	if spec.Flow == model.FlowContact {
		msgText := fields[model.FieldMessage].Text
		return outcome{
			kind:   outContact,
			intent: model.IntentContactRequest,
			contact: &model.ContactRequest{
				Name:      fields[model.FieldName].Text,
				Email:     fields[model.FieldEmail].Text,
				Phone:     fields[model.FieldPhone].Text,
				Programme: fields[model.FieldProgramme].Text,
				QueryType: fields[model.FieldQueryType].Text,
				Message:   msgText,
			},
		}
	}

	rank := fields[model.FieldRank].Number
	if rank == 0 {
		// Completed without a rank; remember the context for a follow-up
		// eligibility question.
		sess.LastCutoff = &model.CutoffSnapshot{
			Branches: fields[model.FieldBranch].Branches,
			Category: fields[model.FieldCategory],
			Gender:   fields[model.FieldGender],
		}
	}

	return outcome{
		kind:     outLookup,
		intent:   spec.Intent,
		branches: fields[model.FieldBranch].Branches,
		category: fields[model.FieldCategory],
		gender:   fields[model.FieldGender],
		rank:     rank,
		sources:  []string{e.cutoffSource()},
	}
}

func (e *Engine) route(sess *model.Session, msg string, catalog []string, verdict model.Intent) outcome {
	intent := e.router.Route(msg, verdict, sess.PendingHint)

	switch intent {
	case model.IntentGreeting:
		return outcome{kind: outReply, intent: intent, text: e.greetingReply()}

	case model.IntentOutOfScope:
		return outcome{kind: outReply, intent: intent, text: e.outOfScopeReply()}

	case model.IntentContactRequest:
		spec := flow.ContactSpec()
		step := e.collector.Begin(spec, sess, nil)
		return outcome{kind: outReply, intent: intent, text: step.Prompt}

	case model.IntentCutoff, model.IntentEligibility, model.IntentMixed:
		return e.startCutoffFlow(sess, msg, intent, catalog)

	default: // informational
		sess.PendingHint = false
		return outcome{kind: outInform, intent: model.IntentInformational, question: msg}
	}
}

func (e *Engine) startCutoffFlow(sess *model.Session, msg string, intent model.Intent, catalog []string) outcome {
	spec := flow.CutoffSpec(catalog)
	intro := "Sure! Let me show you the cutoff ranks."
	if intent == model.IntentEligibility {
		spec = flow.EligibilitySpec(catalog)
		intro = "Sure! Let me help you check your eligibility."
	}

	prefilled := e.router.Prefill(msg, spec.Flow, catalog)

	if intent == model.IntentEligibility && flow.ShouldOfferReuse(sess, prefilled) {
		snap := sess.LastCutoff
		sess.BeginFlow(model.FlowReuseConfirm)
		sess.WaitingFor = model.FieldReuseDecision
		if rank, ok := prefilled[model.FieldRank]; ok {
			sess.ReuseCarriedRank = rank.Number
		}
		return outcome{kind: outReply, intent: intent, text: flow.ReusePrompt(snap)}
	}

	step := e.collector.Begin(spec, sess, prefilled)
	if step.Kind == flow.StepComplete {
		out := e.completeFlow(sess, spec)
		out.intent = intent
		if intent == model.IntentMixed {
			out.withRAG = true
			out.question = msg
		}
		return out
	}

	sess.PendingHint = true
	text := step.Prompt
	if step.Field == model.FieldBranch {
		text = intro + "\n\n" + text
	}
	return outcome{kind: outReply, intent: intent, text: text}
}

// resolve performs the external calls for an outcome. Lookup or collaborator
// failures degrade to an apology reply; flow state was already cleared so the
// user is not stuck.
func (e *Engine) resolve(ctx context.Context, out outcome) (string, []string) {
	switch out.kind {
	case outLookup:
		text, err := e.resolveLookup(ctx, out)
		if err != nil {
			logx.Error().Err(err).Msg("cutoff lookup failed")
			return e.lookupFallback(), nil
		}
		return text, out.sources

	case outContact:
		return e.resolveContact(ctx, out.contact), nil

	case outInform:
		return e.resolveInformational(ctx, out)

	default:
		return out.text, out.sources
	}
}

func (e *Engine) resolveLookup(ctx context.Context, out outcome) (string, error) {
	parts := make([]string, 0, len(out.branches))
	for _, b := range out.branches {
		var (
			line string
			err  error
		)
		if out.rank > 0 {
			line, err = e.lookup.Eligibility(ctx, out.rank, b, out.category, out.gender)
		} else {
			line, err = e.lookup.Cutoff(ctx, b, out.category, out.gender)
		}
		if err != nil {
			return "", err
		}
		parts = append(parts, line)
	}

	body := parts[0]
	if len(parts) > 1 {
		lines := make([]string, len(parts))
		for i, p := range parts {
			lines[i] = fmt.Sprintf("**%d.** %s", i+1, p)
		}
		body = strings.Join(lines, "\n\n")
	}

	if out.withRAG {
		return e.answerMixed(ctx, out, body), nil
	}
	return out.text + body, nil
}

// answerMixed lets the model weave exact cutoff figures into a broader
// answer. Retrieval or generation failure falls back to the bare cutoff data.
func (e *Engine) answerMixed(ctx context.Context, out outcome, cutoffInfo string) string {
	if e.answerer == nil {
		return cutoffInfo
	}
	ragContext := "Cutoff data (from database):\n" + cutoffInfo
	if e.retriever != nil {
		if res, err := e.retriever.Retrieve(ctx, out.question, e.cfg.RetrieverTopK); err == nil && res.Context != "" {
			ragContext += "\n\n---\n\n" + res.Context
		}
	}
	answer, err := e.answerer.Answer(ctx, out.question, ragContext, out.history)
	if err != nil {
		logx.Error().Err(err).Msg("mixed answer generation failed")
		return cutoffInfo
	}
	return answer
}

func (e *Engine) resolveContact(ctx context.Context, req *model.ContactRequest) string {
	refID, err := e.contacts.Submit(ctx, req)
	if err != nil {
		logx.Error().Err(err).Msg("contact request submission failed")
		return fmt.Sprintf(
			"⚠️ There was an issue submitting your request. Please contact our admission team directly:\n\n📧 %s\n📞 %s",
			e.college.AdmissionEmail, e.college.AdmissionPhone)
	}

	phoneNote := ""
	if req.QueryType != "fraud_report" && req.QueryType != "general_inquiry" {
		phoneNote = "\n\n🔒 **Note:** Your phone number is kept private and will not be shared with the admission team for this request type."
	}
	return fmt.Sprintf(
		"✅ **Request Submitted Successfully**\n\nThank you, **%s**! Our admission team has received your request.\n\n**Contact Details:**\n📧 %s\n📞 %s\n🎓 Programme: %s\n\n**What's next:**\nOur team will reach out to you within **24 hours**.\n\n**Reference ID:** `%s`%s",
		req.Name, req.Email, req.Phone, req.Programme, refID, phoneNote)
}

func (e *Engine) resolveInformational(ctx context.Context, out outcome) (string, []string) {
	if e.answerer == nil {
		return e.lookupFallback(), nil
	}

	ragContext := ""
	var sources []string
	if e.retriever != nil {
		res, err := e.retriever.Retrieve(ctx, out.question, e.cfg.RetrieverTopK)
		if err != nil {
			logx.Warn().Err(err).Msg("retrieval failed, answering without context")
		} else {
			ragContext = res.Context
			sources = res.Sources
		}
	}

	answer, err := e.answerer.Answer(ctx, out.question, ragContext, out.history)
	if err != nil {
		logx.Error().Err(err).Msg("answer generation failed")
		return e.lookupFallback(), nil
	}
	return answer, sources
}

// catalog fetches the live branch list, falling back to the built-in catalog
// when the store is unreachable.
func (e *Engine) catalog(ctx context.Context) []string {
	branches, err := e.lookup.Branches(ctx)
	if err != nil || len(branches) == 0 {
		if err != nil {
			logx.Warn().Err(err).Msg("branch catalog unavailable, using defaults")
		}
		return defaultCatalog()
	}
	return branches
}

func defaultCatalog() []string {
	return []string{"CIVIL", "CSE", "CSE (AI & ML)", "CSE (Data Science)", "ECE", "EEE", "IT", "MECH"}
}

// mirror copies the exchange to the durable transcript. Best effort only.
func (e *Engine) mirror(ctx context.Context, sessionID, userMsg, reply string) {
	if e.transcript == nil {
		return
	}
	if err := e.transcript.Append(ctx, sessionID, schema.UserMessage(userMsg)); err != nil {
		logx.Warn().Err(err).Str("session_id", sessionID).Msg("transcript mirror failed")
		return
	}
	if err := e.transcript.Append(ctx, sessionID, schema.AssistantMessage(reply, nil)); err != nil {
		logx.Warn().Err(err).Str("session_id", sessionID).Msg("transcript mirror failed")
	}
}

func (e *Engine) cutoffSource() string {
	return fmt.Sprintf("%s Cutoff Database", e.college.ShortName)
}

func (e *Engine) greetingReply() string {
	return fmt.Sprintf(
		"Hello! 👋 Welcome to the **%s (%s)** admissions assistant.\n\nI can help you with:\n• Admission process & eligibility\n• Branch-wise cutoff ranks\n• Required documents\n• Fee structure & scholarships\n• Campus & hostel information\n\nHow can I assist you today?",
		e.college.Name, e.college.ShortName)
}

func (e *Engine) outOfScopeReply() string {
	return fmt.Sprintf(
		"I can assist only with admissions information related to **%s** (%s). For other colleges, please refer to their official websites or counselling authorities.",
		e.college.Name, e.college.ShortName)
}

func (e *Engine) lookupFallback() string {
	return fmt.Sprintf(
		"⚠️ I couldn't fetch that information right now. Please try again in a moment, or contact our admission team directly:\n\n📧 %s\n📞 %s",
		e.college.AdmissionEmail, e.college.AdmissionPhone)
}
