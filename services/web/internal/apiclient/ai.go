package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"qanunai/pkg/domain"
)

// LawyerSearchPath is the lawyer-search assistant endpoint.
const LawyerSearchPath = "/ai/lawyer-search/chat/"

type chatRequest struct {
	Message    string `json:"message"`
	SessionID  string `json:"session_id,omitempty"`
	DocumentID *int64 `json:"document_id,omitempty"`
}

type chatResponse struct {
	Content    string           `json:"content"`
	SessionID  string           `json:"session_id"`
	Citations  []citationRecord `json:"citations"`
	Confidence string           `json:"confidence"`
	Disclaimer string           `json:"disclaimer"`
}

func (r chatResponse) reply() domain.ChatReply {
	return domain.ChatReply{
		Content:    r.Content,
		SessionID:  r.SessionID,
		Citations:  normalizeCitations(r.Citations),
		Confidence: r.Confidence,
		Disclaimer: r.Disclaimer,
	}
}

type lawyerSearchResponse struct {
	Content           string         `json:"content"`
	SessionID         string         `json:"session_id"`
	Lawyers           []lawyerRecord `json:"lawyers"`
	FollowUpQuestions []string       `json:"follow_up_questions"`
}

func (c *Client) DocumentAnalysis(ctx context.Context, token string, documentID int64) (domain.Analysis, error) {
	var analysis domain.Analysis
	path := fmt.Sprintf("/ai/documents/%d/analyze/", documentID)
	if err := c.doJSON(ctx, http.MethodGet, path, token, nil, &analysis); err != nil {
		return domain.Analysis{}, err
	}
	return analysis, nil
}

// AnalyzeDocumentAI runs the AI analysis; force re-runs it when one already exists.
func (c *Client) AnalyzeDocumentAI(ctx context.Context, token string, documentID int64, force bool) (domain.Analysis, error) {
	var analysis domain.Analysis
	path := fmt.Sprintf("/ai/documents/%d/analyze/", documentID)
	if err := c.doJSON(ctx, http.MethodPost, path, token, map[string]bool{"force": force}, &analysis); err != nil {
		return domain.Analysis{}, err
	}
	return analysis, nil
}

func (c *Client) Chat(ctx context.Context, token, message, sessionID string) (domain.ChatReply, error) {
	var resp chatResponse
	payload := chatRequest{Message: message, SessionID: sessionID}
	if err := c.doJSON(ctx, http.MethodPost, "/ai/chat/", token, payload, &resp); err != nil {
		return domain.ChatReply{}, err
	}
	return resp.reply(), nil
}

func (c *Client) ChatAboutDocument(ctx context.Context, token string, documentID int64, message, sessionID string) (domain.ChatReply, error) {
	var resp chatResponse
	path := fmt.Sprintf("/ai/documents/%d/chat/", documentID)
	payload := chatRequest{Message: message, SessionID: sessionID}
	if err := c.doJSON(ctx, http.MethodPost, path, token, payload, &resp); err != nil {
		return domain.ChatReply{}, err
	}
	return resp.reply(), nil
}

func (c *Client) SearchLawyers(ctx context.Context, token, message, sessionID string) (domain.LawyerSearchReply, error) {
	var resp lawyerSearchResponse
	payload := chatRequest{Message: message, SessionID: sessionID}
	if err := c.doJSON(ctx, http.MethodPost, LawyerSearchPath, token, payload, &resp); err != nil {
		return domain.LawyerSearchReply{}, err
	}
	return domain.LawyerSearchReply{
		Content:           resp.Content,
		SessionID:         resp.SessionID,
		Lawyers:           normalizeResults(resp.Lawyers),
		FollowUpQuestions: resp.FollowUpQuestions,
	}, nil
}

// ChatSuggestions returns starter questions, scoped to a document when documentID is non-zero.
func (c *Client) ChatSuggestions(ctx context.Context, token string, documentID int64) ([]string, error) {
	path := "/ai/chat/suggestions/"
	if documentID > 0 {
		path = fmt.Sprintf("/ai/documents/%d/chat/suggestions/", documentID)
	}
	var resp struct {
		Questions []string `json:"questions"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Questions, nil
}

func (c *Client) ClearChatHistory(ctx context.Context, token, sessionID string) error {
	path := "/ai/chat/" + url.PathEscape(sessionID) + "/clear/"
	return c.doJSON(ctx, http.MethodDelete, path, token, nil, nil)
}

// AssistantBackend binds the three assistant endpoints to one access token.
type AssistantBackend struct {
	client *Client
	token  string
}

// Assistant returns the assistant endpoints authorized with token.
func (c *Client) Assistant(token string) *AssistantBackend {
	return &AssistantBackend{client: c, token: token}
}

func (a *AssistantBackend) Chat(ctx context.Context, message, sessionID string) (domain.ChatReply, error) {
	return a.client.Chat(ctx, a.token, message, sessionID)
}

func (a *AssistantBackend) ChatAboutDocument(ctx context.Context, documentID int64, message, sessionID string) (domain.ChatReply, error) {
	return a.client.ChatAboutDocument(ctx, a.token, documentID, message, sessionID)
}

func (a *AssistantBackend) SearchLawyers(ctx context.Context, message, sessionID string) (domain.LawyerSearchReply, error) {
	return a.client.SearchLawyers(ctx, a.token, message, sessionID)
}
