package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/mpham/mailboard/internal/model"
)

// EmailClient implements EmailService against the mailboard backend.
type EmailClient struct {
	client *Client
}

// NewEmailClient creates an EmailService backed by the given API client.
func NewEmailClient(client *Client) *EmailClient {
	return &EmailClient{client: client}
}

// ListEmails fetches one page of emails matching the query descriptor.
func (e *EmailClient) ListEmails(ctx context.Context, query EmailQuery) (*EmailPage, error) {
	path := "/emails?" + query.Values().Encode()

	var page EmailPage
	if err := e.client.Get(ctx, path, &page); err != nil {
		return nil, fmt.Errorf("listing emails: %w", err)
	}
	return &page, nil
}

// GetEmail fetches a single email with its full body.
func (e *EmailClient) GetEmail(ctx context.Context, id string) (*model.Email, error) {
	var email model.Email
	if err := e.client.Get(ctx, "/emails/"+url.PathEscape(id), &email); err != nil {
		return nil, fmt.Errorf("getting email %s: %w", id, err)
	}
	return &email, nil
}

// UpdateEmail applies a partial update and returns the server-authoritative
// record.
func (e *EmailClient) UpdateEmail(ctx context.Context, id string, patch model.EmailPatch) (*model.Email, error) {
	var email model.Email
	if err := e.client.Patch(ctx, "/emails/"+url.PathEscape(id), patch, &email); err != nil {
		return nil, fmt.Errorf("updating email %s: %w", id, err)
	}
	return &email, nil
}

// DeleteEmail removes the email from the mailbox.
func (e *EmailClient) DeleteEmail(ctx context.Context, id string) error {
	if err := e.client.Delete(ctx, "/emails/"+url.PathEscape(id)); err != nil {
		return fmt.Errorf("deleting email %s: %w", id, err)
	}
	return nil
}

// SendEmail submits a composed draft for delivery.
func (e *EmailClient) SendEmail(ctx context.Context, draft model.Draft) error {
	if err := e.client.Post(ctx, "/emails/send", draft, nil); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}

// FuzzySearch runs a fuzzy full-text search across the given fields and
// returns results carrying relevance scores.
func (e *EmailClient) FuzzySearch(ctx context.Context, params FuzzySearchParams) (*EmailPage, error) {
	v := url.Values{}
	v.Set("q", params.Q)
	if params.MailboxID != "" {
		v.Set("mailboxId", params.MailboxID)
	}
	if params.Threshold > 0 {
		v.Set("threshold", strconv.FormatFloat(params.Threshold, 'f', -1, 64))
	}
	if len(params.Fields) > 0 {
		v.Set("fields", strings.Join(params.Fields, ","))
	}
	if params.Page > 0 {
		v.Set("page", strconv.Itoa(params.Page))
	}
	if params.Limit > 0 {
		v.Set("limit", strconv.Itoa(params.Limit))
	}

	var page EmailPage
	if err := e.client.Get(ctx, "/emails/search?"+v.Encode(), &page); err != nil {
		return nil, fmt.Errorf("searching emails: %w", err)
	}
	return &page, nil
}

// GetSearchSuggestions returns contact and keyword completions for q.
func (e *EmailClient) GetSearchSuggestions(ctx context.Context, q string) (*Suggestions, error) {
	v := url.Values{}
	v.Set("q", q)

	var s Suggestions
	if err := e.client.Get(ctx, "/emails/suggestions?"+v.Encode(), &s); err != nil {
		return nil, fmt.Errorf("getting search suggestions: %w", err)
	}
	return &s, nil
}
