package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const defaultTimeout = 5 * time.Second

// Client is a Service backed by the task service's REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Client for the task service at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// MarkCompleted records a task as completed in the task service.
func (c *Client) MarkCompleted(ctx context.Context, taskID uuid.UUID) error {
	url := fmt.Sprintf("%s/api/v1/tasks/%s/complete", c.baseURL, taskID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return fmt.Errorf("building task completion request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling task service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("task service returned status %d", resp.StatusCode)
	}
	return nil
}

type sessionEndReport struct {
	SessionID  uuid.UUID   `json:"sessionId"`
	Completed  []uuid.UUID `json:"completedTaskIds"`
	Incomplete []uuid.UUID `json:"incompleteTaskIds"`
}

// ReportSessionEnd forwards the end-of-session completion report.
func (c *Client) ReportSessionEnd(ctx context.Context, sessionID uuid.UUID, completed, incomplete []uuid.UUID) error {
	body, err := json.Marshal(sessionEndReport{
		SessionID:  sessionID,
		Completed:  completed,
		Incomplete: incomplete,
	})
	if err != nil {
		return fmt.Errorf("marshaling session end report: %w", err)
	}

	url := c.baseURL + "/api/v1/tasks/session-report"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building session report request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling task service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("task service returned status %d", resp.StatusCode)
	}
	return nil
}

type completedQuery struct {
	TaskIDs []uuid.UUID `json:"taskIds"`
}

type completedResponse struct {
	Completed []uuid.UUID `json:"completed"`
}

// Completed returns the subset of taskIDs recorded as completed.
func (c *Client) Completed(ctx context.Context, taskIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(taskIDs) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(completedQuery{TaskIDs: taskIDs})
	if err != nil {
		return nil, fmt.Errorf("marshaling completed query: %w", err)
	}

	url := c.baseURL + "/api/v1/tasks/completed"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building completed query: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling task service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("task service returned status %d", resp.StatusCode)
	}

	var out completedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding completed response: %w", err)
	}
	return out.Completed, nil
}

// Verify interface compliance.
var _ Service = (*Client)(nil)
