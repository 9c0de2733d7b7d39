package messaging

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"qanunai/pkg/domain"
)

const (
	DefaultThreadInterval  = 5 * time.Second
	DefaultSummaryInterval = 30 * time.Second
)

var (
	// ErrEmptyMessage is returned for blank message content.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrNoThread is returned when no conversation is open.
	ErrNoThread = errors.New("no conversation is open")
	// ErrStopped is returned by Open after Stop.
	ErrStopped = errors.New("inbox is stopped")
)

// Source is the backend messaging API.
type Source interface {
	Conversations(ctx context.Context, token string) ([]domain.ConversationSummary, error)
	Messages(ctx context.Context, token string, userID int64) ([]domain.DirectMessage, error)
	UnreadCount(ctx context.Context, token string) (int, error)
	SendMessage(ctx context.Context, token string, receiverID int64, content string, consultationID *int64) (domain.DirectMessage, error)
	MarkRead(ctx context.Context, token string, userID int64) error
}

// TokenFunc returns a current access token for each backend call.
type TokenFunc func(ctx context.Context) (string, error)

// Intervals configures the poll rates. Zero values use the defaults.
type Intervals struct {
	Thread  time.Duration
	Summary time.Duration
}

// Inbox is one browser session's messaging view: the conversation list and
// unread count, plus at most one open thread.
type Inbox struct {
	source    Source
	token     TokenFunc
	intervals Intervals

	conversations *Feed[[]domain.ConversationSummary]
	unread        *Feed[int]

	mu      sync.Mutex
	ctx     context.Context
	stopped bool
	peer    int64
	thread  *Feed[[]domain.DirectMessage]
}

// NewInbox builds an inbox that polls nothing until Start.
func NewInbox(source Source, token TokenFunc, intervals Intervals) *Inbox {
	if intervals.Thread <= 0 {
		intervals.Thread = DefaultThreadInterval
	}
	if intervals.Summary <= 0 {
		intervals.Summary = DefaultSummaryInterval
	}
	i := &Inbox{source: source, token: token, intervals: intervals, ctx: context.Background()}
	i.conversations = NewFeed("conversations", intervals.Summary, func(ctx context.Context) ([]domain.ConversationSummary, error) {
		token, err := i.token(ctx)
		if err != nil {
			return nil, err
		}
		return i.source.Conversations(ctx, token)
	})
	i.unread = NewFeed("unread-count", intervals.Summary, func(ctx context.Context) (int, error) {
		token, err := i.token(ctx)
		if err != nil {
			return 0, err
		}
		return i.source.UnreadCount(ctx, token)
	})
	return i
}

// Start begins polling the summary feeds. It does nothing after Stop.
func (i *Inbox) Start(ctx context.Context) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.stopped {
		return
	}
	i.ctx = ctx
	i.conversations.Start(ctx)
	i.unread.Start(ctx)
}

// Stop ends all polling for good.
func (i *Inbox) Stop() {
	i.mu.Lock()
	i.stopped = true
	thread := i.thread
	i.thread, i.peer = nil, 0
	i.mu.Unlock()
	if thread != nil {
		thread.Stop()
	}
	i.conversations.Stop()
	i.unread.Stop()
}

// Open makes the conversation with peerID the active thread, replacing any
// other open thread. The new thread polls only while it is still the active
// one once its first fetch returns.
func (i *Inbox) Open(ctx context.Context, peerID int64) ([]domain.DirectMessage, error) {
	i.mu.Lock()
	if i.stopped {
		i.mu.Unlock()
		return nil, ErrStopped
	}
	previous := i.thread
	if previous != nil && i.peer == peerID {
		i.mu.Unlock()
		return previous.Refresh(ctx)
	}
	thread := NewFeed("thread", i.intervals.Thread, func(ctx context.Context) ([]domain.DirectMessage, error) {
		token, err := i.token(ctx)
		if err != nil {
			return nil, err
		}
		return i.source.Messages(ctx, token, peerID)
	})
	i.thread, i.peer = thread, peerID
	i.mu.Unlock()

	if previous != nil {
		previous.Stop()
	}
	messages, err := thread.Refresh(ctx)
	i.mu.Lock()
	if i.thread == thread && !i.stopped {
		thread.Start(i.ctx)
	}
	i.mu.Unlock()
	return messages, err
}

// MarkRead marks the conversation with peerID read and refetches the counters.
func (i *Inbox) MarkRead(ctx context.Context, peerID int64) error {
	token, err := i.token(ctx)
	if err != nil {
		return err
	}
	if err := i.source.MarkRead(ctx, token, peerID); err != nil {
		return err
	}
	i.unread.Poke()
	i.conversations.Poke()
	return nil
}

// CloseThread stops polling the active thread.
func (i *Inbox) CloseThread() {
	i.mu.Lock()
	thread := i.thread
	i.thread, i.peer = nil, 0
	i.mu.Unlock()
	if thread != nil {
		thread.Stop()
	}
}

// Thread returns the active thread's peer and latest messages.
func (i *Inbox) Thread() (int64, []domain.DirectMessage, error) {
	i.mu.Lock()
	thread, peer := i.thread, i.peer
	i.mu.Unlock()
	if thread == nil {
		return 0, nil, ErrNoThread
	}
	messages, err := thread.Latest()
	return peer, messages, err
}

// Conversations returns the latest conversation list.
func (i *Inbox) Conversations() ([]domain.ConversationSummary, error) {
	return i.conversations.Latest()
}

// UnreadCount returns the latest unread count.
func (i *Inbox) UnreadCount() (int, error) {
	return i.unread.Latest()
}

// Loaded reports whether both summary feeds have completed a poll.
func (i *Inbox) Loaded() bool {
	return !i.conversations.FetchedAt().IsZero() && !i.unread.FetchedAt().IsZero()
}

// RefreshSummaries polls the conversation list and unread count now.
func (i *Inbox) RefreshSummaries(ctx context.Context) error {
	if _, err := i.conversations.Refresh(ctx); err != nil {
		return err
	}
	_, err := i.unread.Refresh(ctx)
	return err
}

// Send posts a message and refetches the affected feeds.
func (i *Inbox) Send(ctx context.Context, receiverID int64, content string, consultationID *int64) (domain.DirectMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.DirectMessage{}, ErrEmptyMessage
	}
	token, err := i.token(ctx)
	if err != nil {
		return domain.DirectMessage{}, err
	}
	msg, err := i.source.SendMessage(ctx, token, receiverID, content, consultationID)
	if err != nil {
		return domain.DirectMessage{}, err
	}
	i.mu.Lock()
	if i.thread != nil && i.peer == receiverID {
		i.thread.Poke()
	}
	i.mu.Unlock()
	i.conversations.Poke()
	return msg, nil
}
