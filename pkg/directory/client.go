package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const lookupPath = "/User/GetUser"

// Client looks routing keys up in the account-directory HTTP service.
type Client struct {
	http    *http.Client
	baseURL string
	guidKey string
}

// NewClient creates a directory client from config. Each lookup is bounded
// by the configured per-service timeout (5s by default).
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, ErrMissingBaseURL
	}
	guidKey := cfg.GUIDKey
	if guidKey == "" {
		guidKey = "cognitoUserId"
	}
	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		guidKey: guidKey,
	}, nil
}

// Lookup fetches the directory record for userID and extracts its routing
// key. A 404 maps to ErrUserNotFound; transport errors, 5xx responses and
// malformed payloads map to ErrUnavailable.
func (c *Client) Lookup(ctx context.Context, userID string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", ErrEmptyUserID
	}

	u := c.baseURL + lookupPath + "?id=" + url.QueryEscape(userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", errors.Join(ErrUnavailable, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.Join(ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("%w: directory returned status %d", ErrUnavailable, resp.StatusCode)
	}

	var record map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return "", errors.Join(ErrUnavailable, err)
	}

	guid, ok := record[c.guidKey].(string)
	if !ok || guid == "" {
		return "", fmt.Errorf("%w: response missing %q field", ErrUnavailable, c.guidKey)
	}
	return guid, nil
}
