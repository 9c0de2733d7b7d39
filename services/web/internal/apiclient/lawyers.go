package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"qanunai/pkg/domain"
)

// LawyerFilter narrows the public lawyer directory.
type LawyerFilter struct {
	Specialization string
	City           string
}

func (f LawyerFilter) query() string {
	values := url.Values{}
	if f.Specialization != "" {
		values.Set("specialization", f.Specialization)
	}
	if f.City != "" {
		values.Set("city", f.City)
	}
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}

func (c *Client) ListLawyers(ctx context.Context, token string, filter LawyerFilter) ([]domain.Lawyer, error) {
	var resp listBody[lawyerRecord]
	if err := c.getList(ctx, "/lawyers/"+filter.query(), token, &resp); err != nil {
		return nil, err
	}
	return normalizeLawyers(resp.Items), nil
}

func (c *Client) GetLawyer(ctx context.Context, token string, id int64) (domain.Lawyer, error) {
	var record lawyerRecord
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/lawyers/%d/", id), token, nil, &record); err != nil {
		return domain.Lawyer{}, err
	}
	return record.lawyer(), nil
}

func (c *Client) MyLawyerProfile(ctx context.Context, token string) (domain.Lawyer, error) {
	var record lawyerRecord
	if err := c.doJSON(ctx, http.MethodGet, "/lawyer-profile/me/", token, nil, &record); err != nil {
		return domain.Lawyer{}, err
	}
	return record.lawyer(), nil
}

// SaveLawyerProfile creates (POST) or partially updates (PATCH) the signed-in lawyer's profile.
func (c *Client) SaveLawyerProfile(ctx context.Context, token, method string, fields map[string]any) (domain.Lawyer, error) {
	if method != http.MethodPost && method != http.MethodPatch {
		return domain.Lawyer{}, fmt.Errorf("unsupported profile method %q", method)
	}
	var record lawyerRecord
	if err := c.doJSON(ctx, method, "/lawyer-profile/me/", token, fields, &record); err != nil {
		return domain.Lawyer{}, err
	}
	return record.lawyer(), nil
}

// LawyerStats returns the dashboard counters of the signed-in lawyer as sent by the backend.
func (c *Client) LawyerStats(ctx context.Context, token string) (map[string]any, error) {
	var stats map[string]any
	if err := c.doJSON(ctx, http.MethodGet, "/lawyer-profile/stats/", token, nil, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}
