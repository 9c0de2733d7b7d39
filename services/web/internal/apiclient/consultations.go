package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"qanunai/pkg/domain"
)

// ListConsultations lists the caller's consultations; asLawyer selects the
// ones addressed to the caller as a lawyer.
func (c *Client) ListConsultations(ctx context.Context, token string, asLawyer bool) ([]domain.Consultation, error) {
	path := "/consultations/"
	if asLawyer {
		path += "?role=lawyer"
	}
	var resp listBody[domain.Consultation]
	if err := c.getList(ctx, path, token, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) GetConsultation(ctx context.Context, token string, id int64) (domain.Consultation, error) {
	var consultation domain.Consultation
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/consultations/%d/", id), token, nil, &consultation); err != nil {
		return domain.Consultation{}, err
	}
	return consultation, nil
}

func (c *Client) CreateConsultation(ctx context.Context, token string, req domain.ConsultationRequest) (domain.Consultation, error) {
	var consultation domain.Consultation
	if err := c.doJSON(ctx, http.MethodPost, "/consultations/", token, req, &consultation); err != nil {
		return domain.Consultation{}, err
	}
	return consultation, nil
}

func (c *Client) UpdateConsultationStatus(ctx context.Context, token string, id int64, status string) (domain.Consultation, error) {
	var consultation domain.Consultation
	path := fmt.Sprintf("/consultations/%d/status/", id)
	if err := c.doJSON(ctx, http.MethodPut, path, token, map[string]string{"status": status}, &consultation); err != nil {
		return domain.Consultation{}, err
	}
	return consultation, nil
}
