package server

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"qanunai/services/web/internal/apiclient"
	"qanunai/services/web/internal/assistant"
	"qanunai/services/web/internal/messaging"
	"qanunai/services/web/internal/session"
)

// workspaceIdleTTL is how long a browser session's conversation and pollers
// outlive its last API call.
const workspaceIdleTTL = 30 * time.Minute

// workspace is the in-memory state of one browser session.
type workspace struct {
	conversation *assistant.Conversation

	mu      sync.Mutex
	stopped bool
	inbox   *messaging.Inbox
}

// workspaces keeps one workspace per session id and stops its pollers
// when it expires.
type workspaces struct {
	items     *cache.Cache
	ttl       time.Duration
	source    messaging.Source
	intervals messaging.Intervals
	mu        sync.Mutex
}

func newWorkspaces(source messaging.Source, intervals messaging.Intervals, ttl time.Duration) *workspaces {
	items := cache.New(ttl, time.Minute)
	items.OnEvicted(func(_ string, v any) {
		if ws, ok := v.(*workspace); ok {
			ws.stop()
		}
	})
	return &workspaces{items: items, ttl: ttl, source: source, intervals: intervals}
}

// get returns the workspace of sid, creating it on first use. Each access
// extends its lifetime.
func (ws *workspaces) get(sid string) *workspace {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if v, ok := ws.items.Get(sid); ok {
		w := v.(*workspace)
		ws.items.Set(sid, w, ws.ttl)
		return w
	}
	// Set over an expired entry skips OnEvicted; purge first so its pollers stop.
	ws.items.DeleteExpired()
	w := &workspace{conversation: assistant.NewConversation()}
	ws.items.Set(sid, w, ws.ttl)
	return w
}

// drop discards the workspace of sid, as on logout.
func (ws *workspaces) drop(sid string) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.items.Delete(sid)
}

func (ws *workspaces) closeAll() {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	for sid := range ws.items.Items() {
		ws.items.Delete(sid)
	}
}

// inboxFor returns the running inbox of a workspace, starting it on first
// use. It returns nil once the workspace has been stopped.
func (w *workspace) inboxFor(ws *workspaces, token messaging.TokenFunc) *messaging.Inbox {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil
	}
	if w.inbox == nil {
		w.inbox = messaging.NewInbox(ws.source, token, ws.intervals)
		w.inbox.Start(context.Background())
	}
	return w.inbox
}

func (w *workspace) stop() {
	w.mu.Lock()
	w.stopped = true
	inbox := w.inbox
	w.inbox = nil
	w.mu.Unlock()
	if inbox != nil {
		inbox.Stop()
	}
}

// inbox returns the messaging inbox of the caller's session. Its pollers
// read the session's current token on every fetch. A workspace evicted
// between lookup and use is replaced by a fresh one.
func (s *Server) inbox(c caller) *messaging.Inbox {
	sid := c.sid
	token := func(ctx context.Context) (string, error) {
		state, err := s.sessions.EnsureFresh(ctx, sid)
		if err != nil {
			return "", err
		}
		if !state.Authenticated() {
			return "", session.ErrNotAuthenticated
		}
		return state.AccessToken, nil
	}
	for {
		if inbox := s.workspaces.get(sid).inboxFor(s.workspaces, token); inbox != nil {
			return inbox
		}
	}
}

func (s *Server) conversation(c caller) *assistant.Conversation {
	return s.workspaces.get(c.sid).conversation
}

func (s *Server) assistantBackend(c caller) assistant.Backend {
	return s.api.Assistant(c.token())
}

var _ messaging.Source = (*apiclient.Client)(nil)
