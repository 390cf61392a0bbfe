package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/assistant/classify"
	"github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/assistant/extract"
	"github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/assistant/flow"
	"github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/assistant/model"
	"github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/assistant/ratelimit"
	"github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/assistant/session"
	errx "github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/core/error"
)

type fakeLookup struct {
	mu       sync.Mutex
	err      error
	calls    int
	branches []string
}

func (f *fakeLookup) Cutoff(_ context.Context, branch string, category, gender model.Value) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("cutoff %s/%s/%s", branch, category.Text, gender.Text), nil
}

func (f *fakeLookup) Eligibility(_ context.Context, rank int, branch string, category, gender model.Value) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("eligibility rank=%d %s/%s/%s", rank, branch, category.Text, gender.Text), nil
}

func (f *fakeLookup) Branches(context.Context) ([]string, error) {
	if f.branches != nil {
		return f.branches, nil
	}
	return []string{"CSE", "ECE", "IT"}, nil
}

type fakeContacts struct {
	mu   sync.Mutex
	last *model.ContactRequest
}

func (f *fakeContacts) Submit(_ context.Context, req *model.ContactRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = req
	return "REF-1234", nil
}

type fakeIntents struct {
	mu     sync.Mutex
	intent model.Intent
	err    error
	calls  int
}

func (f *fakeIntents) Resolve(context.Context, string) (model.Intent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.intent, f.err
}

type fakeTranscript struct {
	mu   sync.Mutex
	logs map[string][]*schema.Message
}

func newFakeTranscript() *fakeTranscript {
	return &fakeTranscript{logs: map[string][]*schema.Message{}}
}

func (f *fakeTranscript) Append(_ context.Context, id string, msg *schema.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs[id] = append(f.logs[id], msg)
	return nil
}

func (f *fakeTranscript) Load(_ context.Context, id string) ([]*schema.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*schema.Message, len(f.logs[id]))
	copy(out, f.logs[id])
	return out, nil
}

func college() model.CollegeConfig {
	return model.CollegeConfig{
		Name:           "VNR Vignana Jyothi Institute of Engineering and Technology",
		ShortName:      "VNRVJIET",
		AdmissionEmail: "admissions@vnrvjiet.ac.in",
		AdmissionPhone: "+91-40-2304 2758",
	}
}

func newTestEngine(t *testing.T, lookup *fakeLookup) (*Engine, *session.Store, *fakeContacts) {
	t.Helper()
	ex := extract.Fields{}
	store := session.NewStore(time.Minute)
	contacts := &fakeContacts{}
	e := New(Deps{
		Limiter:   ratelimit.New(100),
		Store:     store,
		Router:    flow.NewRouter(ex, classify.NewKeyword(ex, college()), 200000),
		Collector: flow.NewCollector(ex, 200000),
		Lookup:    lookup,
		Contacts:  contacts,
	}, model.EngineConfig{
		RatePerMinute:   100,
		HistoryMax:      20,
		RankCeiling:     200000,
		RetrieverTopK:   5,
		MaxMessageChars: 1000,
	}, college())
	return e, store, contacts
}

func say(t *testing.T, e *Engine, sessionID, msg string) *Reply {
	t.Helper()
	reply, err := e.Handle(context.Background(), Request{SessionID: sessionID, ClientKey: "10.0.0.1", Message: msg})
	require.NoError(t, err)
	return reply
}

func assertInvariant(t *testing.T, store *session.Store, sessionID string) {
	t.Helper()
	sess, ok := store.Get(sessionID)
	require.True(t, ok)
	sess.Lock()
	defer sess.Unlock()
	if sess.ActiveFlow == model.FlowNone {
		assert.Empty(t, sess.WaitingFor)
	} else {
		assert.NotEmpty(t, sess.WaitingFor)
	}
}

func TestRateLimitRejectedBeforeSessionState(t *testing.T) {
	e, store, _ := newTestEngine(t, &fakeLookup{})
	e.limiter = ratelimit.New(1)

	say(t, e, "s1", "hello")
	_, err := e.Handle(context.Background(), Request{SessionID: "s2", ClientKey: "10.0.0.1", Message: "hello"})
	require.Error(t, err)
	var appErr *errx.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 429, appErr.Status)
	_, created := store.Get("s2")
	assert.False(t, created, "rejected request must not create a session")
}

func TestEmptyMessageRejected(t *testing.T) {
	e, _, _ := newTestEngine(t, &fakeLookup{})
	_, err := e.Handle(context.Background(), Request{SessionID: "s1", ClientKey: "c", Message: "   "})
	var appErr *errx.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.Status)
}

func TestMintsSessionIDWhenAbsent(t *testing.T) {
	e, _, _ := newTestEngine(t, &fakeLookup{})
	reply, err := e.Handle(context.Background(), Request{ClientKey: "c", Message: "hello"})
	require.NoError(t, err)
	assert.NotEmpty(t, reply.SessionID)
}

func TestGreetingAndOutOfScope(t *testing.T) {
	e, store, _ := newTestEngine(t, &fakeLookup{})

	reply := say(t, e, "s1", "hello")
	assert.Equal(t, model.IntentGreeting, reply.Intent)
	assert.Contains(t, reply.Text, "VNRVJIET")

	reply = say(t, e, "s1", "what is the cutoff at bits pilani")
	assert.Equal(t, model.IntentOutOfScope, reply.Intent)
	assert.Contains(t, reply.Text, "other colleges")
	assertInvariant(t, store, "s1")
}

func TestPrefilledBranchSkipsBranchQuestion(t *testing.T) {
	e, store, _ := newTestEngine(t, &fakeLookup{})

	reply := say(t, e, "s1", "CSE cutoff")
	assert.Equal(t, model.IntentCutoff, reply.Intent)
	assert.Contains(t, reply.Text, "category")
	assert.NotContains(t, reply.Text, "branch(es)")
	assertInvariant(t, store, "s1")
}

func TestCutoffFlowStepByStepThenReuse(t *testing.T) {
	e, store, _ := newTestEngine(t, &fakeLookup{})

	say(t, e, "s1", "show me cutoffs")
	say(t, e, "s1", "cse")
	say(t, e, "s1", "oc")
	reply := say(t, e, "s1", "boy")
	assert.Equal(t, "cutoff CSE/OC/Boys", reply.Text)
	assert.Equal(t, []string{"VNRVJIET Cutoff Database"}, reply.Sources)
	assertInvariant(t, store, "s1")

	// Follow-up eligibility with a rank but no branch offers reuse.
	reply = say(t, e, "s1", "can I get in with 5000 rank")
	assert.Contains(t, reply.Text, "**CSE**")
	assert.Contains(t, reply.Text, "Reply **YES**")

	reply = say(t, e, "s1", "yes")
	assert.Equal(t, "eligibility rank=5000 CSE/OC/Boys", reply.Text)
	assertInvariant(t, store, "s1")
}

func TestReuseDeclinedRestartsEligibility(t *testing.T) {
	e, _, _ := newTestEngine(t, &fakeLookup{})

	say(t, e, "s1", "cutoff for cse, oc category, boys")
	say(t, e, "s1", "can I get in with 5000 rank")
	reply := say(t, e, "s1", "different details please")
	assert.Contains(t, reply.Text, "check your eligibility")
	assert.Contains(t, reply.Text, "branch(es)")
}

func TestSingleShotCutoffQueryResolvesImmediately(t *testing.T) {
	e, _, _ := newTestEngine(t, &fakeLookup{})

	reply := say(t, e, "s1", "cutoff for cse, oc category, boys")
	assert.Equal(t, "cutoff CSE/OC/Boys", reply.Text)
}

func TestMultiBranchNumberedReply(t *testing.T) {
	e, _, _ := newTestEngine(t, &fakeLookup{})

	say(t, e, "s1", "show me cutoffs")
	say(t, e, "s1", "cse and ece")
	say(t, e, "s1", "oc")
	reply := say(t, e, "s1", "boy")
	assert.Contains(t, reply.Text, "**1.** cutoff CSE/OC/Boys")
	assert.Contains(t, reply.Text, "**2.** cutoff ECE/OC/Boys")
}

func TestRankOutOfRangeThenDecline(t *testing.T) {
	e, store, _ := newTestEngine(t, &fakeLookup{})

	say(t, e, "s1", "am i eligible for cse")
	say(t, e, "s1", "oc")
	say(t, e, "s1", "boy")

	reply := say(t, e, "s1", "300000")
	assert.Contains(t, reply.Text, "1 to 200,000")

	reply = say(t, e, "s1", "around twenty thousand maybe")
	assert.Contains(t, reply.Text, "as a number")

	reply = say(t, e, "s1", "no")
	assert.Contains(t, reply.Text, "No worries!")
	assert.Contains(t, reply.Text, "cutoff CSE/OC/Boys")
	assertInvariant(t, store, "s1")
}

// An out-of-range rank in a single-shot eligibility query must never reach
// the lookup collaborator: the rank stays uncollected and the flow asks for
// it, re-prompting until a rank in [1, 200000] arrives.
func TestSingleShotOutOfRangeRankKeepsFlowOpen(t *testing.T) {
	lookup := &fakeLookup{}
	e, store, _ := newTestEngine(t, lookup)

	reply := say(t, e, "s1", "can i get cse with rank 300000, oc category, boys")
	assert.Equal(t, model.IntentEligibility, reply.Intent)
	assert.Contains(t, reply.Text, "EAPCET rank")
	lookup.mu.Lock()
	assert.Equal(t, 0, lookup.calls)
	lookup.mu.Unlock()
	assertInvariant(t, store, "s1")

	reply = say(t, e, "s1", "300000")
	assert.Contains(t, reply.Text, "1 to 200,000")

	reply = say(t, e, "s1", "5000")
	assert.Equal(t, "eligibility rank=5000 CSE/OC/Boys", reply.Text)
}

// Answering the rank question with "0" must re-prompt, not silently degrade
// the eligibility flow to a cutoff listing with a saved reuse snapshot.
func TestZeroRankRepromptsInsteadOfDegrading(t *testing.T) {
	e, store, _ := newTestEngine(t, &fakeLookup{})

	say(t, e, "s1", "am i eligible for cse")
	say(t, e, "s1", "oc")
	say(t, e, "s1", "boy")

	reply := say(t, e, "s1", "0")
	assert.Contains(t, reply.Text, "1 to 200,000")

	sess, _ := store.Get("s1")
	sess.Lock()
	assert.Equal(t, model.FlowEligibility, sess.ActiveFlow)
	assert.Nil(t, sess.LastCutoff)
	sess.Unlock()

	reply = say(t, e, "s1", "5000")
	assert.Equal(t, "eligibility rank=5000 CSE/OC/Boys", reply.Text)
}

// A non-English message with no active flow is classified by the LLM
// resolver; its verdict routes the turn. Mid-flow messages skip the resolver.
func TestNonEnglishMessageUsesIntentResolver(t *testing.T) {
	e, _, _ := newTestEngine(t, &fakeLookup{})
	intents := &fakeIntents{intent: model.IntentCutoff}
	e.intents = intents

	reply := say(t, e, "s1", "కటాఫ్ ర్యాంక్ ఎంత?")
	assert.Equal(t, model.IntentCutoff, reply.Intent)
	assert.Contains(t, reply.Text, "branch(es)")

	say(t, e, "s1", "ఓసీ")
	intents.mu.Lock()
	assert.Equal(t, 1, intents.calls)
	intents.mu.Unlock()
}

func TestIntentResolverFailureFallsBackToKeywords(t *testing.T) {
	e, _, _ := newTestEngine(t, &fakeLookup{})
	e.intents = &fakeIntents{err: fmt.Errorf("model unavailable")}

	reply := say(t, e, "s1", "కటాఫ్ ర్యాంక్ ఎంత?")
	assert.Equal(t, model.IntentInformational, reply.Intent)
}

// A freshly created session rehydrates its history from the transcript, so
// an engine restart or idle expiry keeps conversational context.
func TestNewSessionRehydratesFromTranscript(t *testing.T) {
	e, store, _ := newTestEngine(t, &fakeLookup{})
	transcript := newFakeTranscript()
	transcript.logs["s1"] = []*schema.Message{
		schema.UserMessage("what courses do you offer"),
		schema.AssistantMessage("We offer B.Tech, M.Tech and MCA programmes.", nil),
	}
	e.transcript = transcript

	say(t, e, "s1", "hello")

	sess, ok := store.Get("s1")
	require.True(t, ok)
	sess.Lock()
	defer sess.Unlock()
	require.Len(t, sess.History, 4)
	assert.Equal(t, "what courses do you offer", sess.History[0].Content)
}

func TestContactFlowEndToEnd(t *testing.T) {
	e, store, contacts := newTestEngine(t, &fakeLookup{})

	reply := say(t, e, "s1", "I want to talk to a human from the admission team")
	assert.Equal(t, model.IntentContactRequest, reply.Intent)
	assert.Contains(t, reply.Text, "full name")

	reply = say(t, e, "s1", "Priya Sharma")
	assert.Contains(t, reply.Text, "email")

	reply = say(t, e, "s1", "priya@example.com")
	assert.Contains(t, reply.Text, "phone")

	reply = say(t, e, "s1", "12345")
	assert.Contains(t, reply.Text, "10-digit")

	reply = say(t, e, "s1", "9876543210 call me")
	assert.Contains(t, reply.Text, "programme")

	say(t, e, "s1", "btech")
	say(t, e, "s1", "2")
	reply = say(t, e, "s1", "skip")

	assert.Contains(t, reply.Text, "Request Submitted Successfully")
	assert.Contains(t, reply.Text, "REF-1234")
	require.NotNil(t, contacts.last)
	assert.Equal(t, "Priya Sharma", contacts.last.Name)
	assert.Equal(t, "9876543210", contacts.last.Phone)
	assert.Equal(t, "general_inquiry", contacts.last.QueryType)
	assert.Empty(t, contacts.last.Message)
	assertInvariant(t, store, "s1")
}

func TestLookupFailureFallsBackAndClearsFlow(t *testing.T) {
	lookup := &fakeLookup{err: fmt.Errorf("db down")}
	e, store, _ := newTestEngine(t, lookup)

	reply := say(t, e, "s1", "cutoff for cse, oc category, boys")
	assert.Contains(t, reply.Text, "admissions@vnrvjiet.ac.in")
	assert.Empty(t, reply.Sources)
	assertInvariant(t, store, "s1")

	sess, _ := store.Get("s1")
	sess.Lock()
	assert.Equal(t, model.FlowNone, sess.ActiveFlow)
	sess.Unlock()
}

func TestHistoryNeverExceedsCap(t *testing.T) {
	e, store, _ := newTestEngine(t, &fakeLookup{})

	for i := 0; i < 30; i++ {
		say(t, e, "s1", "hello")
	}
	sess, _ := store.Get("s1")
	sess.Lock()
	defer sess.Unlock()
	assert.LessOrEqual(t, len(sess.History), 20)
}

func TestPendingHintKeepsShortRepliesInFlow(t *testing.T) {
	e, store, _ := newTestEngine(t, &fakeLookup{})

	say(t, e, "s1", "hello")
	sess, _ := store.Get("s1")
	sess.Lock()
	sess.PendingHint = true
	sess.Unlock()

	// A bare category answer classifies as informational on its own; the
	// hint routes it into the cutoff flow instead.
	reply := say(t, e, "s1", "bc-b")
	assert.Equal(t, model.IntentCutoff, reply.Intent)
	assert.Contains(t, reply.Text, "cutoff ranks")
	assert.Contains(t, reply.Text, "branch(es)")
}

func TestConcurrentAnswersAdvanceFlowOnce(t *testing.T) {
	lookup := &fakeLookup{}
	e, store, _ := newTestEngine(t, lookup)

	say(t, e, "s1", "am i eligible for cse")
	say(t, e, "s1", "oc")
	say(t, e, "s1", "boy")

	// Two racing answers for the rank question. Only one may complete the
	// flow and trigger a lookup.
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Handle(context.Background(), Request{SessionID: "s1", ClientKey: "10.0.0.1", Message: "5000"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	lookup.mu.Lock()
	assert.Equal(t, 1, lookup.calls)
	lookup.mu.Unlock()

	sess, _ := store.Get("s1")
	sess.Lock()
	defer sess.Unlock()
	assert.Equal(t, model.FlowNone, sess.ActiveFlow)
	assert.Empty(t, sess.WaitingFor)
}
