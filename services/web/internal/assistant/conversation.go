package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"qanunai/internal/util"
	"qanunai/pkg/domain"
)

var (
	// ErrEmptyMessage is returned for blank input; nothing is appended or sent.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrBusy is returned while another message of the conversation is in flight.
	ErrBusy = errors.New("assistant is still answering")
	// ErrSuperseded is returned when the document focus changed while the
	// reply was in flight. The reply is dropped.
	ErrSuperseded = errors.New("conversation changed while waiting for reply")
)

// Backend is the set of assistant endpoints a conversation talks to.
type Backend interface {
	Chat(ctx context.Context, message, sessionID string) (domain.ChatReply, error)
	ChatAboutDocument(ctx context.Context, documentID int64, message, sessionID string) (domain.ChatReply, error)
	SearchLawyers(ctx context.Context, message, sessionID string) (domain.LawyerSearchReply, error)
}

// Flow names one of the independent backend conversations.
type Flow string

const (
	FlowLawyerSearch Flow = "lawyer-search"
	FlowDocument     Flow = "document"
	FlowGeneral      Flow = "general"
)

// Sessions holds the backend session id of each flow. Empty means a new
// backend conversation starts on the next message.
type Sessions struct {
	Document     string `json:"document,omitempty"`
	General      string `json:"general,omitempty"`
	LawyerSearch string `json:"lawyerSearch,omitempty"`
}

func (s *Sessions) get(flow Flow) string {
	switch flow {
	case FlowDocument:
		return s.Document
	case FlowLawyerSearch:
		return s.LawyerSearch
	default:
		return s.General
	}
}

func (s *Sessions) set(flow Flow, id string) {
	switch flow {
	case FlowDocument:
		s.Document = id
	case FlowLawyerSearch:
		s.LawyerSearch = id
	default:
		s.General = id
	}
}

// Snapshot is a copy of the visible conversation state.
type Snapshot struct {
	Turns    []domain.Turn           `json:"turns"`
	Document *domain.DocumentContext `json:"document,omitempty"`
	Busy     bool                    `json:"busy"`
}

// Conversation is one browser's assistant conversation. It is safe for
// concurrent use; only one message may be in flight at a time.
type Conversation struct {
	mu       sync.Mutex
	turns    []domain.Turn
	doc      *domain.DocumentContext
	sessions Sessions
	busy     bool
	epoch    uint64

	now   func() time.Time
	newID func() string
}

// NewConversation starts a conversation showing the greeting.
func NewConversation() *Conversation {
	c := &Conversation{now: time.Now, newID: util.NewID}
	c.turns = []domain.Turn{c.assistantTurn(Greeting)}
	return c
}

// OpenGlobal leaves document focus. When a document was focused, the
// visible turns are replaced by the greeting.
func (c *Conversation) OpenGlobal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.doc == nil {
		return
	}
	c.focus(nil)
}

// OpenWithDocument focuses the conversation on doc and replaces the visible
// turns with the focus announcement.
func (c *Conversation) OpenWithDocument(doc domain.DocumentContext) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.focus(&doc)
}

// ClearDocument drops document focus and shows the greeting.
func (c *Conversation) ClearDocument() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.focus(nil)
}

// focus must be called with mu held.
func (c *Conversation) focus(doc *domain.DocumentContext) {
	if !sameDocument(c.doc, doc) {
		c.sessions.Document = ""
	}
	c.doc = doc
	c.epoch++
	if doc == nil {
		c.turns = []domain.Turn{c.assistantTurn(Greeting)}
		return
	}
	c.turns = []domain.Turn{c.assistantTurn(FocusAnnouncement(*doc))}
}

// Reset clears every flow's backend session and reseeds the visible turns
// for the current focus. It returns the sessions that were dropped.
func (c *Conversation) Reset() Sessions {
	c.mu.Lock()
	defer c.mu.Unlock()
	dropped := c.sessions
	c.sessions = Sessions{}
	c.epoch++
	if c.doc == nil {
		c.turns = []domain.Turn{c.assistantTurn(Greeting)}
	} else {
		c.turns = []domain.Turn{c.assistantTurn(FocusAnnouncement(*c.doc))}
	}
	return dropped
}

// Snapshot returns a copy of the visible state.
func (c *Conversation) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := Snapshot{
		Turns: append([]domain.Turn(nil), c.turns...),
		Busy:  c.busy,
	}
	if c.doc != nil {
		doc := *c.doc
		snap.Document = &doc
	}
	return snap
}

// Sessions returns the current backend session ids.
func (c *Conversation) Sessions() Sessions {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessions
}

// Send appends the user's turn, asks the backend and appends exactly one
// assistant turn. Backend failures are answered with Fallback.
func (c *Conversation) Send(ctx context.Context, backend Backend, text string) (domain.Turn, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Turn{}, ErrEmptyMessage
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return domain.Turn{}, ErrBusy
	}
	c.busy = true
	c.turns = append(c.turns, domain.Turn{
		ID:        c.newID(),
		Role:      domain.TurnUser,
		Content:   text,
		Timestamp: c.now(),
	})
	epoch := c.epoch
	var doc *domain.DocumentContext
	if c.doc != nil {
		copied := *c.doc
		doc = &copied
	}
	flow := route(text, doc)
	sessionID := c.sessions.get(flow)
	c.mu.Unlock()

	turn, newSessionID, err := c.dispatch(ctx, backend, flow, text, sessionID, doc)
	if err != nil {
		util.LoggerFromContext(ctx).Warn("assistant fallback", "flow", string(flow), "error", err)
		turn = c.assistantTurn(Fallback(text, doc))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	if c.epoch != epoch {
		return domain.Turn{}, ErrSuperseded
	}
	if newSessionID != "" {
		c.sessions.set(flow, newSessionID)
	}
	c.turns = append(c.turns, turn)
	return turn, nil
}

func route(text string, doc *domain.DocumentContext) Flow {
	switch {
	case doc == nil && IsLawyerSearchQuery(text):
		return FlowLawyerSearch
	case doc != nil:
		return FlowDocument
	default:
		return FlowGeneral
	}
}

func (c *Conversation) dispatch(ctx context.Context, backend Backend, flow Flow, text, sessionID string, doc *domain.DocumentContext) (domain.Turn, string, error) {
	switch flow {
	case FlowLawyerSearch:
		reply, err := backend.SearchLawyers(ctx, text, sessionID)
		if err != nil {
			return domain.Turn{}, "", err
		}
		turn := c.assistantTurn(reply.Content)
		turn.Lawyers = reply.Lawyers
		turn.FollowUpQuestions = reply.FollowUpQuestions
		turn.MessageType = domain.MessageTypeLawyerSearch
		return turn, reply.SessionID, nil
	case FlowDocument:
		reply, err := backend.ChatAboutDocument(ctx, doc.ID, text, sessionID)
		if err != nil {
			return domain.Turn{}, "", err
		}
		turn := c.assistantTurn(reply.Content)
		turn.Citations = reply.Citations
		return turn, reply.SessionID, nil
	default:
		reply, err := backend.Chat(ctx, text, sessionID)
		if err != nil {
			return domain.Turn{}, "", err
		}
		turn := c.assistantTurn(reply.Content)
		turn.Citations = reply.Citations
		return turn, reply.SessionID, nil
	}
}

func (c *Conversation) assistantTurn(content string) domain.Turn {
	return domain.Turn{
		ID:        c.newID(),
		Role:      domain.TurnAssistant,
		Content:   content,
		Timestamp: c.now(),
	}
}

func sameDocument(a, b *domain.DocumentContext) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID == b.ID
}
