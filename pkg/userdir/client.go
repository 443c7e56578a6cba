package userdir

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// defaultTimeout bounds directory lookups so the core never blocks
// indefinitely on the user service.
const defaultTimeout = 5 * time.Second

// Client is a Directory backed by the user service's REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Client for the user service at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

type userResponse struct {
	Username string `json:"username"`
}

// Resolve fetches the username for the user id from the user service.
func (c *Client) Resolve(ctx context.Context, userID uuid.UUID) (string, error) {
	url := fmt.Sprintf("%s/api/v1/users/%s", c.baseURL, userID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building user lookup request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling user directory: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return "", ErrUnknownUser
	default:
		return "", fmt.Errorf("user directory returned status %d", resp.StatusCode)
	}

	var user userResponse
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return "", fmt.Errorf("decoding user response: %w", err)
	}
	if user.Username == "" {
		return "", ErrUnknownUser
	}
	return user.Username, nil
}

// Verify interface compliance.
var _ Directory = (*Client)(nil)
