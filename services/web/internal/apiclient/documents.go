package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"qanunai/pkg/domain"
)

func (c *Client) ListDocuments(ctx context.Context, token string) ([]domain.Document, error) {
	var resp listBody[domain.Document]
	if err := c.getList(ctx, "/documents/", token, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) GetDocument(ctx context.Context, token string, id int64) (domain.Document, error) {
	var doc domain.Document
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/documents/%d/", id), token, nil, &doc); err != nil {
		return domain.Document{}, err
	}
	return doc, nil
}

// UploadDocument sends the file as multipart form data. The backend stores the
// display name under "name".
func (c *Client) UploadDocument(ctx context.Context, token, filename, name string, file io.Reader) (domain.Document, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return domain.Document{}, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return domain.Document{}, err
	}
	if name != "" {
		if err := writer.WriteField("name", name); err != nil {
			return domain.Document{}, err
		}
	}
	if err := writer.Close(); err != nil {
		return domain.Document{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/documents/", &body)
	if err != nil {
		return domain.Document{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	var doc domain.Document
	if err := c.do(req, token, &doc, "Upload failed"); err != nil {
		return domain.Document{}, uploadError(err)
	}
	return doc, nil
}

// uploadError surfaces the first file or name complaint on its own,
// without the field prefix used by the generic decoder.
func uploadError(err error) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || len(apiErr.Fields) == 0 {
		return err
	}
	for _, field := range []string{"file", "name", "non_field_errors"} {
		if msgs := apiErr.Fields[field]; len(msgs) > 0 {
			apiErr.Message = msgs[0]
			return apiErr
		}
	}
	apiErr.Message = "Upload failed"
	return apiErr
}

func (c *Client) DeleteDocument(ctx context.Context, token string, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/documents/%d/", id), token, nil, nil)
}

func (c *Client) AnalyzeDocument(ctx context.Context, token string, id int64) (domain.Document, error) {
	var doc domain.Document
	if err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/documents/%d/analyze/", id), token, nil, &doc); err != nil {
		return domain.Document{}, err
	}
	return doc, nil
}
