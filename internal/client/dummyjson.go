package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// ErrNotFound is returned for provider 4xx responses; these are not retried.
var ErrNotFound = errors.New("provider: not found")

// TransientError marks failures the job runner may retry: network errors,
// timeouts and provider 5xx responses.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "provider: " + e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err belongs to the retryable class.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// UserRecord is one provider user. Address and Bank are kept as raw JSON so
// the mapper can both extract fields and retain the original payload.
type UserRecord struct {
	ID        int             `json:"id"`
	FirstName string          `json:"firstName"`
	LastName  string          `json:"lastName"`
	Username  string          `json:"username"`
	Email     string          `json:"email"`
	Phone     string          `json:"phone"`
	Domain    string          `json:"domain"`
	Company   json.RawMessage `json:"company"`
	Address   json.RawMessage `json:"address"`
	Bank      json.RawMessage `json:"bank"`
}

type listUsersResponse struct {
	Users []UserRecord `json:"users"`
	Total int          `json:"total"`
}

// DummyJSONClient is a minimal HTTP client for the DummyJSON users API.
// It never retries; retry policy belongs to the job runner.
type DummyJSONClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewDummyJSONClient(baseURL string, httpClient *http.Client) *DummyJSONClient {
	return &DummyJSONClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// ListUsers fetches one page of users. Returns the page and the provider's
// reported total.
func (c *DummyJSONClient) ListUsers(ctx context.Context, limit, skip int) ([]UserRecord, int, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("skip", strconv.Itoa(skip))

	var payload listUsersResponse
	if err := c.getJSON(ctx, "/users?"+params.Encode(), &payload); err != nil {
		return nil, 0, err
	}
	return payload.Users, payload.Total, nil
}

// GetUser fetches the full record for one external id, including the nested
// address and bank objects.
func (c *DummyJSONClient) GetUser(ctx context.Context, externalID int) (*UserRecord, error) {
	var record UserRecord
	if err := c.getJSON(ctx, fmt.Sprintf("/users/%d", externalID), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (c *DummyJSONClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransientError{Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return &TransientError{Err: fmt.Errorf("status %d from %s", resp.StatusCode, path)}
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
