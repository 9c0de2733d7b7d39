package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/net/html"

	"qanunai/pkg/domain"
)

func (c *Client) LegalUpdates(ctx context.Context, token string) ([]domain.LegalUpdate, error) {
	var resp listBody[domain.LegalUpdate]
	if err := c.getList(ctx, "/legal-updates/", token, &resp); err != nil {
		return nil, err
	}
	for i := range resp.Items {
		resp.Items[i].Summary = PlainText(resp.Items[i].Summary)
	}
	return resp.Items, nil
}

func (c *Client) LegalUpdate(ctx context.Context, token string, id int64) (domain.LegalUpdate, error) {
	var update domain.LegalUpdate
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/legal-updates/%d/", id), token, nil, &update); err != nil {
		return domain.LegalUpdate{}, err
	}
	update.Summary = PlainText(update.Summary)
	return update, nil
}

// PlainText strips markup from an editor-authored summary and collapses whitespace.
// Script and style bodies are dropped.
func PlainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	tokenizer := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	skip := 0
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			switch string(name) {
			case "script", "style":
				skip++
			case "br", "p", "div", "li":
				b.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			switch string(name) {
			case "script", "style":
				if skip > 0 {
					skip--
				}
			case "p", "div", "li":
				b.WriteByte(' ')
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(tokenizer.Text())
			}
		}
	}
}
