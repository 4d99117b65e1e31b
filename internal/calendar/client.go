package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// SyncFailedError reports a failed external call. It is always
// recoverable: the caller may retry the same gated operation.
type SyncFailedError struct {
	Message string
}

func (e *SyncFailedError) Error() string {
	return "calendar sync failed: " + e.Message
}

// Client creates events in the external calendar. Implementations own
// the network concerns; callers only see the event id or a failure.
type Client interface {
	CreateEvent(ctx context.Context, bearer string, ev Event) (string, error)
}

const defaultBaseURL = "https://www.googleapis.com/calendar/v3"

// GoogleClient talks to the Google Calendar v3 events endpoint.
type GoogleClient struct {
	httpClient *http.Client
	baseURL    string
}

func NewGoogleClient(timeout time.Duration) *GoogleClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &GoogleClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
	}
}

// NewGoogleClientWithBaseURL exists for tests pointed at a local server.
func NewGoogleClientWithBaseURL(baseURL string, timeout time.Duration) *GoogleClient {
	c := NewGoogleClient(timeout)
	c.baseURL = baseURL
	return c
}

func (c *GoogleClient) CreateEvent(ctx context.Context, bearer string, ev Event) (string, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return "", &SyncFailedError{Message: err.Error()}
	}

	endpoint := fmt.Sprintf("%s/calendars/primary/events?sendUpdates=%s",
		c.baseURL, url.QueryEscape(ev.SendUpdates))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &SyncFailedError{Message: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &SyncFailedError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		msg := fmt.Sprintf("calendar API returned %d", resp.StatusCode)
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		return "", &SyncFailedError{Message: msg}
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &SyncFailedError{Message: "could not decode calendar response"}
	}
	if out.ID == "" {
		return "", &SyncFailedError{Message: "calendar response missing event id"}
	}
	return out.ID, nil
}
