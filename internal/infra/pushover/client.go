package pushover

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"event-panel/internal/domain"
)

const defaultURL = "https://api.pushover.net/1/messages.json"

// Client forwards toasts to the operator's phone.
type Client struct {
	token      string
	userKey    string
	errorsOnly bool
	endpoint   string
	httpClient *http.Client
}

func NewClient(token, userKey string, errorsOnly bool) *Client {
	return NewClientWithURL(token, userKey, errorsOnly, defaultURL)
}

func NewClientWithURL(token, userKey string, errorsOnly bool, endpoint string) *Client {
	return &Client{
		token:      token,
		userKey:    userKey,
		errorsOnly: errorsOnly,
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Notify(ctx context.Context, toast domain.Toast) error {
	if c.token == "" || c.userKey == "" {
		return nil
	}
	if c.errorsOnly && toast.Level != domain.ToastError {
		return nil
	}

	data := url.Values{}
	data.Set("token", c.token)
	data.Set("user", c.userKey)
	data.Set("message", toast.Message)
	data.Set("title", "Painel")
	data.Set("timestamp", fmt.Sprintf("%d", toast.CreatedAt.Unix()))
	if toast.Level == domain.ToastError {
		data.Set("priority", "1")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pushover error: %s", resp.Status)
	}

	return nil
}
