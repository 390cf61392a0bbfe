package model

import (
	"sync"

	"github.com/cloudwego/eino/schema"
)

// Flow identifies which collection flow a session is currently running.
type Flow string

const (
	FlowNone         Flow = ""
	FlowCutoff       Flow = "cutoff"
	FlowEligibility  Flow = "eligibility"
	FlowContact      Flow = "contact"
	FlowReuseConfirm Flow = "reuse_confirm"
)

// CutoffSnapshot is the context saved when a cutoff flow completes without a
// rank. A later eligibility request can reuse it instead of re-asking
// branch/category/gender.
type CutoffSnapshot struct {
	Branches []string
	Category Value
	Gender   Value
}

// Session holds all per-conversation state. Handlers for the same session id
// must serialise their read-modify-write cycle through the embedded mutex;
// see Lock/Unlock. Sessions for different ids never contend.
type Session struct {
	mu sync.Mutex

	ID         string
	ActiveFlow Flow
	WaitingFor Field
	Fields     map[Field]Value

	// History is conversational context only, never the source of truth for
	// collected fields. Capped by the engine's history limit.
	History []*schema.Message

	// LastCutoff is overwritten by each completed no-rank cutoff query and
	// read only by the reuse advisor.
	LastCutoff *CutoffSnapshot

	// ReuseCarriedRank carries a rank extracted from the message that
	// triggered a reuse-confirmation question. Zero means none.
	ReuseCarriedRank int

	// PendingHint is set after the engine asks a follow-up question and
	// consumed on the next turn to keep short replies in the cutoff flow.
	PendingHint bool
}

func NewSession(id string) *Session {
	return &Session{
		ID:     id,
		Fields: map[Field]Value{},
	}
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// BeginFlow discards any partial state and starts the given flow. A new flow
// never silently inherits another flow's fields.
func (s *Session) BeginFlow(flow Flow) {
	s.ActiveFlow = flow
	s.WaitingFor = ""
	s.Fields = map[Field]Value{}
	s.ReuseCarriedRank = 0
}

// EndFlow clears flow state and returns the collected fields so the caller
// can resolve them after releasing the session lock.
func (s *Session) EndFlow() map[Field]Value {
	fields := s.Fields
	s.ActiveFlow = FlowNone
	s.WaitingFor = ""
	s.Fields = map[Field]Value{}
	s.ReuseCarriedRank = 0
	s.PendingHint = false
	return fields
}

// AppendExchange records one user/assistant turn, evicting the oldest entries
// beyond the cap. The cap counts individual messages.
func (s *Session) AppendExchange(userMsg, assistantMsg string, capMessages int) {
	s.History = append(s.History, schema.UserMessage(userMsg), schema.AssistantMessage(assistantMsg, nil))
	if capMessages > 0 && len(s.History) > capMessages {
		s.History = s.History[len(s.History)-capMessages:]
	}
}

// HistorySnapshot copies the history so it can be read after the session
// lock is released.
func (s *Session) HistorySnapshot() []*schema.Message {
	out := make([]*schema.Message, len(s.History))
	copy(out, s.History)
	return out
}
