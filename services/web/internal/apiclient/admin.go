package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"qanunai/pkg/domain"
)

// AdminAuthResult is the admin portal login payload.
type AdminAuthResult struct {
	AccessToken  string           `json:"accessToken"`
	RefreshToken string           `json:"refreshToken"`
	User         domain.AdminUser `json:"user"`
}

// AdminDashboard holds the portal's headline counters.
type AdminDashboard struct {
	TotalUsers          int `json:"total_users"`
	NewUsersThisWeek    int `json:"new_users_this_week"`
	TotalLawyers        int `json:"total_lawyers"`
	NewLawyersThisWeek  int `json:"new_lawyers_this_week"`
	PendingApplications int `json:"pending_applications"`
	TotalLegalUpdates   int `json:"total_legal_updates"`
	TotalDocuments      int `json:"total_documents"`
}

// LegalUpdateInput is the admin form for a legal update. Tags arrive comma separated.
type LegalUpdateInput struct {
	Headline    string `json:"headline"`
	Summary     string `json:"summary"`
	Source      string `json:"source"`
	PublishDate string `json:"publish_date"`
	Category    string `json:"category"`
	Importance  string `json:"importance"`
	ReadTime    string `json:"read_time"`
	URL         string `json:"url"`
	Tags        string `json:"tags"`
}

func (in LegalUpdateInput) payload() map[string]any {
	return map[string]any{
		"headline":     in.Headline,
		"summary":      in.Summary,
		"source":       in.Source,
		"publish_date": in.PublishDate,
		"category":     in.Category,
		"importance":   in.Importance,
		"read_time":    in.ReadTime,
		"url":          in.URL,
		"tags":         SplitTags(in.Tags),
	}
}

// SplitTags splits a comma separated tag list, dropping blanks.
func SplitTags(s string) []string {
	tags := []string{}
	for _, tag := range strings.Split(s, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func (c *Client) AdminLogin(ctx context.Context, email, password string) (AdminAuthResult, error) {
	var resp AdminAuthResult
	payload := map[string]string{"email": email, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, "/admin-portal/login/", "", payload, &resp); err != nil {
		return AdminAuthResult{}, err
	}
	return resp, nil
}

func (c *Client) AdminDashboard(ctx context.Context, token string) (AdminDashboard, error) {
	var resp AdminDashboard
	if err := c.doJSON(ctx, http.MethodGet, "/admin-portal/dashboard/", token, nil, &resp); err != nil {
		return AdminDashboard{}, err
	}
	return resp, nil
}

// AdminLawyers lists lawyer applications, optionally filtered by status.
func (c *Client) AdminLawyers(ctx context.Context, token string, status domain.LawyerStatus) ([]domain.Lawyer, error) {
	path := "/admin-portal/lawyers/"
	if status != "" {
		path += "?status=" + url.QueryEscape(string(status))
	}
	var resp listBody[lawyerRecord]
	if err := c.getList(ctx, path, token, &resp); err != nil {
		return nil, err
	}
	return normalizeLawyers(resp.Items), nil
}

func (c *Client) AdminLawyer(ctx context.Context, token string, id int64) (domain.Lawyer, error) {
	var record lawyerRecord
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/admin-portal/lawyers/%d/", id), token, nil, &record); err != nil {
		return domain.Lawyer{}, err
	}
	return record.lawyer(), nil
}

func (c *Client) ApproveLawyer(ctx context.Context, token string, id int64) error {
	return c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/admin-portal/lawyers/%d/approve/", id), token, nil, nil)
}

func (c *Client) RejectLawyer(ctx context.Context, token string, id int64, reason string) error {
	path := fmt.Sprintf("/admin-portal/lawyers/%d/reject/", id)
	return c.doJSON(ctx, http.MethodPost, path, token, map[string]string{"reason": reason}, nil)
}

// AdminUsers lists accounts, optionally filtered by role.
func (c *Client) AdminUsers(ctx context.Context, token string, role domain.Role) ([]domain.User, error) {
	path := "/admin-portal/users/"
	if role != "" {
		path += "?role=" + url.QueryEscape(string(role))
	}
	var resp listBody[domain.User]
	if err := c.getList(ctx, path, token, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) AdminLegalUpdates(ctx context.Context, token string) ([]domain.LegalUpdate, error) {
	var resp listBody[domain.LegalUpdate]
	if err := c.getList(ctx, "/admin/legal-updates/", token, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) CreateLegalUpdate(ctx context.Context, token string, in LegalUpdateInput) (domain.LegalUpdate, error) {
	var update domain.LegalUpdate
	if err := c.doJSON(ctx, http.MethodPost, "/admin/legal-updates/", token, in.payload(), &update); err != nil {
		return domain.LegalUpdate{}, err
	}
	return update, nil
}

func (c *Client) UpdateLegalUpdate(ctx context.Context, token string, id int64, in LegalUpdateInput) (domain.LegalUpdate, error) {
	var update domain.LegalUpdate
	path := fmt.Sprintf("/admin/legal-updates/%d/", id)
	if err := c.doJSON(ctx, http.MethodPut, path, token, in.payload(), &update); err != nil {
		return domain.LegalUpdate{}, err
	}
	return update, nil
}

func (c *Client) DeleteLegalUpdate(ctx context.Context, token string, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/admin/legal-updates/%d/", id), token, nil, nil)
}
