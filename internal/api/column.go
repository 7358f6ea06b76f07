package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/mpham/mailboard/internal/model"
)

// ColumnClient implements ColumnService against the mailboard backend.
type ColumnClient struct {
	client *Client
}

// NewColumnClient creates a ColumnService backed by the given API client.
func NewColumnClient(client *Client) *ColumnClient {
	return &ColumnClient{client: client}
}

// ListColumns returns the board's column configuration ordered by the
// server (callers re-sort by order index regardless).
func (c *ColumnClient) ListColumns(ctx context.Context) ([]model.Column, error) {
	var columns []model.Column
	if err := c.client.Get(ctx, "/columns", &columns); err != nil {
		return nil, fmt.Errorf("listing columns: %w", err)
	}
	return columns, nil
}

// CreateColumn adds a new column to the board.
func (c *ColumnClient) CreateColumn(ctx context.Context, input model.ColumnInput) (*model.Column, error) {
	var column model.Column
	if err := c.client.Post(ctx, "/columns", input, &column); err != nil {
		return nil, fmt.Errorf("creating column: %w", err)
	}
	return &column, nil
}

// UpdateColumn edits an existing column.
func (c *ColumnClient) UpdateColumn(ctx context.Context, id string, input model.ColumnInput) (*model.Column, error) {
	var column model.Column
	if err := c.client.Patch(ctx, "/columns/"+url.PathEscape(id), input, &column); err != nil {
		return nil, fmt.Errorf("updating column %s: %w", id, err)
	}
	return &column, nil
}

// DeleteColumn removes a column. The backend rejects the request for
// default columns; that surfaces here as a ValidationError.
func (c *ColumnClient) DeleteColumn(ctx context.Context, id string) error {
	if err := c.client.Delete(ctx, "/columns/"+url.PathEscape(id)); err != nil {
		return fmt.Errorf("deleting column %s: %w", id, err)
	}
	return nil
}

// InitializeDefaultColumns creates the standard Inbox/To Do/In Progress/
// Done set for a board with no columns yet.
func (c *ColumnClient) InitializeDefaultColumns(ctx context.Context) ([]model.Column, error) {
	var columns []model.Column
	if err := c.client.Post(ctx, "/columns/initialize", nil, &columns); err != nil {
		return nil, fmt.Errorf("initializing default columns: %w", err)
	}
	return columns, nil
}

// MoveEmailToColumn performs the combined label/task-status mutation for
// a board move in a single request.
func (c *ColumnClient) MoveEmailToColumn(ctx context.Context, emailID string, req MoveRequest) error {
	path := "/emails/" + url.PathEscape(emailID) + "/column"
	if err := c.client.Post(ctx, path, req, nil); err != nil {
		return fmt.Errorf("moving email %s to column %s: %w", emailID, req.ColumnID, err)
	}
	return nil
}
