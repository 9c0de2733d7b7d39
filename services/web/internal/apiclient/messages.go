package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"qanunai/pkg/domain"
)

func (c *Client) Conversations(ctx context.Context, token string) ([]domain.ConversationSummary, error) {
	var resp listBody[domain.ConversationSummary]
	if err := c.getList(ctx, "/messages/conversations/", token, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// Messages returns the thread between the caller and userID.
func (c *Client) Messages(ctx context.Context, token string, userID int64) ([]domain.DirectMessage, error) {
	var resp listBody[domain.DirectMessage]
	if err := c.getList(ctx, fmt.Sprintf("/messages/?user_id=%d", userID), token, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) SendMessage(ctx context.Context, token string, receiverID int64, content string, consultationID *int64) (domain.DirectMessage, error) {
	payload := struct {
		ReceiverID     int64  `json:"receiver_id"`
		Content        string `json:"content"`
		ConsultationID *int64 `json:"consultation_id,omitempty"`
	}{receiverID, content, consultationID}
	var msg domain.DirectMessage
	if err := c.doJSON(ctx, http.MethodPost, "/messages/", token, payload, &msg); err != nil {
		return domain.DirectMessage{}, err
	}
	return msg, nil
}

func (c *Client) MarkRead(ctx context.Context, token string, userID int64) error {
	return c.doJSON(ctx, http.MethodPost, "/messages/mark-read/", token, map[string]int64{"user_id": userID}, nil)
}

func (c *Client) UnreadCount(ctx context.Context, token string) (int, error) {
	var resp struct {
		UnreadCount int `json:"unread_count"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/messages/unread-count/", token, nil, &resp); err != nil {
		return 0, err
	}
	return resp.UnreadCount, nil
}
