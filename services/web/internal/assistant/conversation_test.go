package assistant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"qanunai/pkg/domain"
)

type call struct {
	flow      Flow
	message   string
	sessionID string
	docID     int64
}

type fakeBackend struct {
	mu    sync.Mutex
	calls []call
	err   error
	block chan struct{}
}

func (f *fakeBackend) record(c call) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	return len(f.calls)
}

func (f *fakeBackend) wait() {
	if f.block != nil {
		<-f.block
	}
}

func (f *fakeBackend) Chat(_ context.Context, message, sessionID string) (domain.ChatReply, error) {
	n := f.record(call{flow: FlowGeneral, message: message, sessionID: sessionID})
	f.wait()
	if f.err != nil {
		return domain.ChatReply{}, f.err
	}
	return domain.ChatReply{
		Content:   "general answer",
		SessionID: fmt.Sprintf("general-%d", n),
		Citations: []domain.Citation{{Source: domain.SourceLaws, ID: "12"}},
	}, nil
}

func (f *fakeBackend) ChatAboutDocument(_ context.Context, documentID int64, message, sessionID string) (domain.ChatReply, error) {
	n := f.record(call{flow: FlowDocument, message: message, sessionID: sessionID, docID: documentID})
	f.wait()
	if f.err != nil {
		return domain.ChatReply{}, f.err
	}
	return domain.ChatReply{Content: "document answer", SessionID: fmt.Sprintf("doc-%d", n)}, nil
}

func (f *fakeBackend) SearchLawyers(_ context.Context, message, sessionID string) (domain.LawyerSearchReply, error) {
	n := f.record(call{flow: FlowLawyerSearch, message: message, sessionID: sessionID})
	f.wait()
	if f.err != nil {
		return domain.LawyerSearchReply{}, f.err
	}
	return domain.LawyerSearchReply{
		Content:           "found lawyers",
		SessionID:         fmt.Sprintf("ls-%d", n),
		Lawyers:           []domain.LawyerResult{{Lawyer: domain.Lawyer{ID: 5, FullName: "A"}}},
		FollowUpQuestions: []string{"Budget?"},
	}, nil
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestConversation() *Conversation {
	c := NewConversation()
	n := 0
	c.newID = func() string { n++; return fmt.Sprintf("t%d", n) }
	c.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return c
}

func TestNewConversationShowsGreeting(t *testing.T) {
	snap := NewConversation().Snapshot()
	if len(snap.Turns) != 1 || snap.Turns[0].Content != Greeting || snap.Turns[0].Role != domain.TurnAssistant {
		t.Fatalf("unexpected initial turns %+v", snap.Turns)
	}
}

func TestSendEmptyMessageDoesNothing(t *testing.T) {
	c := newTestConversation()
	backend := &fakeBackend{}
	for _, text := range []string{"", "   ", "\n\t"} {
		if _, err := c.Send(context.Background(), backend, text); !errors.Is(err, ErrEmptyMessage) {
			t.Fatalf("expected ErrEmptyMessage for %q, got %v", text, err)
		}
	}
	if backend.callCount() != 0 {
		t.Fatalf("expected no backend calls, got %d", backend.callCount())
	}
	if got := len(c.Snapshot().Turns); got != 1 {
		t.Fatalf("expected only greeting, got %d turns", got)
	}
}

func TestSendDispatchPriority(t *testing.T) {
	c := newTestConversation()
	backend := &fakeBackend{}
	ctx := context.Background()

	turn, err := c.Send(ctx, backend, "  I need a lawyer for a property dispute ")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if turn.MessageType != domain.MessageTypeLawyerSearch || len(turn.Lawyers) != 1 || len(turn.FollowUpQuestions) != 1 {
		t.Fatalf("expected lawyer-search turn, got %+v", turn)
	}

	if _, err := c.Send(ctx, backend, "tell me about contract law"); err != nil {
		t.Fatalf("send: %v", err)
	}

	c.OpenWithDocument(domain.DocumentContext{ID: 7, Name: "Lease.pdf"})
	turn, err = c.Send(ctx, backend, "I need a lawyer for this")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if turn.MessageType != "" || turn.Content != "document answer" {
		t.Fatalf("document context must win over lawyer search, got %+v", turn)
	}

	want := []call{
		{flow: FlowLawyerSearch, message: "I need a lawyer for a property dispute"},
		{flow: FlowGeneral, message: "tell me about contract law"},
		{flow: FlowDocument, message: "I need a lawyer for this", docID: 7},
	}
	if len(backend.calls) != len(want) {
		t.Fatalf("expected %d calls, got %+v", len(want), backend.calls)
	}
	for i := range want {
		if backend.calls[i] != want[i] {
			t.Fatalf("call %d: expected %+v, got %+v", i, want[i], backend.calls[i])
		}
	}
	sessions := c.Sessions()
	if sessions.LawyerSearch != "ls-1" || sessions.General != "general-2" || sessions.Document != "doc-3" {
		t.Fatalf("unexpected sessions %+v", sessions)
	}
}

func TestSendReusesFlowSessions(t *testing.T) {
	c := newTestConversation()
	backend := &fakeBackend{}
	ctx := context.Background()
	_, _ = c.Send(ctx, backend, "hello")
	_, _ = c.Send(ctx, backend, "find lawyer please")
	_, _ = c.Send(ctx, backend, "and again")
	if backend.calls[1].sessionID != "" {
		t.Fatalf("lawyer search must not reuse the general session, got %q", backend.calls[1].sessionID)
	}
	if backend.calls[2].sessionID != "general-1" {
		t.Fatalf("expected general session reuse, got %q", backend.calls[2].sessionID)
	}
}

func TestSendAppendsUserThenAssistant(t *testing.T) {
	c := newTestConversation()
	backend := &fakeBackend{}
	turn, err := c.Send(context.Background(), backend, "hello")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	turns := c.Snapshot().Turns
	if len(turns) != 3 {
		t.Fatalf("expected greeting, user and assistant turns, got %+v", turns)
	}
	if turns[1].Role != domain.TurnUser || turns[1].Content != "hello" {
		t.Fatalf("unexpected user turn %+v", turns[1])
	}
	if turns[2].ID != turn.ID || turns[2].Role != domain.TurnAssistant || len(turns[2].Citations) != 1 {
		t.Fatalf("unexpected assistant turn %+v", turns[2])
	}
}

func TestSendFallsBackOnBackendError(t *testing.T) {
	c := newTestConversation()
	backend := &fakeBackend{err: errors.New("connection refused")}
	c.OpenWithDocument(domain.DocumentContext{ID: 1, Name: "Lease.pdf", RiskLevel: domain.RiskHigh, RiskCount: 3})
	turn, err := c.Send(context.Background(), backend, "what are the risks?")
	if err != nil {
		t.Fatalf("fallback must absorb backend errors, got %v", err)
	}
	want := Fallback("what are the risks?", &domain.DocumentContext{ID: 1, Name: "Lease.pdf", RiskLevel: domain.RiskHigh, RiskCount: 3})
	if turn.Content != want {
		t.Fatalf("expected fallback %q, got %q", want, turn.Content)
	}
	if turn.Citations != nil || turn.Lawyers != nil || turn.FollowUpQuestions != nil {
		t.Fatalf("fallback turn must be bare, got %+v", turn)
	}
	if c.Sessions().Document != "" {
		t.Fatalf("failed call must not store a session id")
	}
	if got := len(c.Snapshot().Turns); got != 3 {
		t.Fatalf("expected announcement, user and fallback turns, got %d", got)
	}
}

func TestDocumentChangeResetsDocumentSessionAndTurns(t *testing.T) {
	c := newTestConversation()
	backend := &fakeBackend{}
	ctx := context.Background()
	_, _ = c.Send(ctx, backend, "hello")
	c.OpenWithDocument(domain.DocumentContext{ID: 1, Name: "A.pdf"})
	_, _ = c.Send(ctx, backend, "summary")
	if c.Sessions().Document == "" {
		t.Fatal("expected document session")
	}

	c.OpenWithDocument(domain.DocumentContext{ID: 2, Name: "B.pdf", RiskLevel: domain.RiskMedium, RiskCount: 1})
	snap := c.Snapshot()
	if c.Sessions().Document != "" {
		t.Fatalf("document session must reset on document change")
	}
	if c.Sessions().General != "general-1" {
		t.Fatalf("general session must survive document change, got %+v", c.Sessions())
	}
	if len(snap.Turns) != 1 || snap.Turns[0].Content != FocusAnnouncement(domain.DocumentContext{ID: 2, Name: "B.pdf", RiskLevel: domain.RiskMedium, RiskCount: 1}) {
		t.Fatalf("expected single announcement turn, got %+v", snap.Turns)
	}
	if snap.Document == nil || snap.Document.ID != 2 {
		t.Fatalf("unexpected document %+v", snap.Document)
	}

	c.ClearDocument()
	snap = c.Snapshot()
	if snap.Document != nil || len(snap.Turns) != 1 || snap.Turns[0].Content != Greeting {
		t.Fatalf("expected greeting after clear, got %+v", snap)
	}
}

func TestReopeningSameDocumentKeepsSession(t *testing.T) {
	c := newTestConversation()
	backend := &fakeBackend{}
	c.OpenWithDocument(domain.DocumentContext{ID: 1, Name: "A.pdf"})
	_, _ = c.Send(context.Background(), backend, "summary")
	c.OpenWithDocument(domain.DocumentContext{ID: 1, Name: "A.pdf", RiskLevel: domain.RiskLow})
	if c.Sessions().Document != "doc-1" {
		t.Fatalf("same document must keep its session, got %+v", c.Sessions())
	}
	if got := len(c.Snapshot().Turns); got != 1 {
		t.Fatalf("turns must be reseeded, got %d", got)
	}
}

func TestOpenGlobal(t *testing.T) {
	c := newTestConversation()
	backend := &fakeBackend{}
	_, _ = c.Send(context.Background(), backend, "hello")
	c.OpenGlobal()
	if got := len(c.Snapshot().Turns); got != 3 {
		t.Fatalf("open without document focus must keep turns, got %d", got)
	}
	c.OpenWithDocument(domain.DocumentContext{ID: 4, Name: "D"})
	c.OpenGlobal()
	snap := c.Snapshot()
	if snap.Document != nil || len(snap.Turns) != 1 || snap.Turns[0].Content != Greeting {
		t.Fatalf("expected greeting after leaving document, got %+v", snap)
	}
}

func TestSendWhileBusyIsRejected(t *testing.T) {
	c := newTestConversation()
	backend := &fakeBackend{block: make(chan struct{})}
	done := make(chan error, 1)
	go func() {
		_, err := c.Send(context.Background(), backend, "hello")
		done <- err
	}()
	waitFor(t, func() bool { return backend.callCount() == 1 })

	if !c.Snapshot().Busy {
		t.Fatal("expected busy while in flight")
	}
	if _, err := c.Send(context.Background(), backend, "find lawyer"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	close(backend.block)
	if err := <-done; err != nil {
		t.Fatalf("first send: %v", err)
	}
	if backend.callCount() != 1 {
		t.Fatalf("busy send must not reach the backend")
	}
}

func TestReplyAfterFocusChangeIsDropped(t *testing.T) {
	c := newTestConversation()
	backend := &fakeBackend{block: make(chan struct{})}
	c.OpenWithDocument(domain.DocumentContext{ID: 1, Name: "A.pdf"})
	done := make(chan error, 1)
	go func() {
		_, err := c.Send(context.Background(), backend, "summary")
		done <- err
	}()
	waitFor(t, func() bool { return backend.callCount() == 1 })

	c.OpenWithDocument(domain.DocumentContext{ID: 2, Name: "B.pdf"})
	close(backend.block)
	if err := <-done; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded, got %v", err)
	}
	snap := c.Snapshot()
	if len(snap.Turns) != 1 || snap.Busy {
		t.Fatalf("stale reply must not be appended, got %+v", snap)
	}
	if c.Sessions().Document != "" {
		t.Fatalf("stale reply must not store its session id")
	}
}

func TestResetDropsSessions(t *testing.T) {
	c := newTestConversation()
	backend := &fakeBackend{}
	_, _ = c.Send(context.Background(), backend, "hello")
	dropped := c.Reset()
	if dropped.General != "general-1" {
		t.Fatalf("unexpected dropped sessions %+v", dropped)
	}
	if c.Sessions() != (Sessions{}) {
		t.Fatalf("expected empty sessions, got %+v", c.Sessions())
	}
	if got := c.Snapshot().Turns; len(got) != 1 || got[0].Content != Greeting {
		t.Fatalf("expected greeting, got %+v", got)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
