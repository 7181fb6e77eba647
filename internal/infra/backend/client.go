package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"event-panel/internal/domain"
	"event-panel/internal/infra"
)

var (
	ErrLoginFailed     = errors.New("login refused: check username and password")
	ErrSessionRequired = errors.New("backend requires a session but no credentials are configured")
)

// Client talks to the panel backend: mixer status, preview, scenes, relays
// and the song database. It keeps a cookie session and logs in again when
// the session expires.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	retry      infra.RetryConfig
	logger     *slog.Logger

	loginMu sync.Mutex
}

func NewClient(baseURL, username, password string, timeout time.Duration, logger *slog.Logger) *Client {
	// cookiejar.New only fails on a bad PublicSuffixList, and we pass none.
	jar, _ := cookiejar.New(nil)

	return &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		username: username,
		password: password,
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		retry:  infra.DefaultRetryConfig(),
		logger: logger,
	}
}

// WithRetryConfig replaces the backoff used for idempotent queries.
func (c *Client) WithRetryConfig(cfg infra.RetryConfig) *Client {
	c.retry = cfg
	return c
}

// Login opens a session. A redirect anywhere but back to the login page
// means the credentials were accepted.
func (c *Client) Login(ctx context.Context) error {
	c.loginMu.Lock()
	defer c.loginMu.Unlock()
	return c.login(ctx)
}

func (c *Client) login(ctx context.Context) error {
	if c.username == "" {
		return ErrSessionRequired
	}

	form := url.Values{}
	form.Set("username", c.username)
	form.Set("password", c.password)

	req, err := c.newRequest(ctx, http.MethodPost, "/login", form)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending login: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if !isRedirect(resp.StatusCode) || redirectsToLogin(resp) {
		return ErrLoginFailed
	}

	c.logger.Info("backend session opened", "user", c.username)
	return nil
}

type connectionStatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (c *Client) Status(ctx context.Context) (domain.ConnectionStatus, error) {
	var body connectionStatusResponse
	if err := c.call(ctx, http.MethodGet, "/api/obs/status", nil, &body); err != nil {
		return domain.ConnectionStatus{}, fmt.Errorf("checking mixer status: %w", err)
	}

	return domain.ConnectionStatus{
		Connected: body.Status == "connected",
		Message:   body.Message,
		CheckedAt: time.Now(),
	}, nil
}

type previewResponse struct {
	Success   bool   `json:"success"`
	ImageData string `json:"imageData"`
	Message   string `json:"message"`
}

func (c *Client) Preview(ctx context.Context) (string, error) {
	var body previewResponse
	if err := c.call(ctx, http.MethodGet, "/api/obs/preview", nil, &body); err != nil {
		return "", fmt.Errorf("fetching preview: %w", err)
	}
	if !body.Success {
		return "", &domain.RejectionError{Message: body.Message}
	}
	return body.ImageData, nil
}

type scenesResponse struct {
	Success bool     `json:"success"`
	Scenes  []string `json:"scenes"`
	Message string   `json:"message"`
}

func (c *Client) Scenes(ctx context.Context) ([]string, error) {
	var body scenesResponse
	if err := c.call(ctx, http.MethodGet, "/api/obs/scenes", nil, &body); err != nil {
		return nil, fmt.Errorf("fetching scenes: %w", err)
	}
	if !body.Success {
		return nil, &domain.RejectionError{Message: body.Message}
	}
	if body.Scenes == nil {
		return []string{}, nil
	}
	return body.Scenes, nil
}

type commandResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (c *Client) SwitchScene(ctx context.Context, name string) (string, error) {
	form := url.Values{}
	form.Set("scene_name", name)

	var body commandResponse
	if err := c.call(ctx, http.MethodPost, "/api/obs/switch_scene", form, &body); err != nil {
		return "", fmt.Errorf("switching scene: %w", err)
	}
	if !body.Success {
		return "", &domain.RejectionError{Message: body.Message}
	}
	return body.Message, nil
}

// ControlRelay switches a single relay or a whole group; the backend
// resolves group ids itself.
func (c *Client) ControlRelay(ctx context.Context, target string, state domain.RelayState) (string, error) {
	form := url.Values{}
	form.Set("relay_id", target)
	form.Set("state", string(state))

	var body commandResponse
	if err := c.call(ctx, http.MethodPost, "/api/relay/control", form, &body); err != nil {
		return "", fmt.Errorf("controlling relay %s: %w", target, err)
	}
	if !body.Success {
		return "", &domain.RejectionError{Message: body.Message}
	}
	return body.Message, nil
}

type relayStatusResponse struct {
	Success bool              `json:"success"`
	Status  map[string]string `json:"status"`
	Message string            `json:"message"`
}

func (c *Client) RelayStatus(ctx context.Context) (map[string]domain.RelayState, error) {
	var body relayStatusResponse
	if err := c.call(ctx, http.MethodGet, "/api/relay/initial_status", nil, &body); err != nil {
		return nil, fmt.Errorf("fetching relay status: %w", err)
	}
	if !body.Success {
		return nil, &domain.RejectionError{Message: body.Message}
	}

	states := make(map[string]domain.RelayState, len(body.Status))
	for id, raw := range body.Status {
		state, err := domain.ParseRelayState(strings.ToLower(raw))
		if err != nil {
			c.logger.Warn("ignoring relay status", "relay", id, "error", err)
			continue
		}
		states[id] = state
	}
	return states, nil
}

func (c *Client) SearchSongs(ctx context.Context, term string) ([]domain.Song, error) {
	form := url.Values{}
	form.Set("search_term", term)

	var songs []domain.Song
	if err := c.call(ctx, http.MethodPost, "/api/search_songs", form, &songs); err != nil {
		return nil, fmt.Errorf("searching songs: %w", err)
	}
	if songs == nil {
		songs = []domain.Song{}
	}
	return songs, nil
}

type response struct {
	status int
	body   []byte
}

// call sends one request and decodes the JSON body whatever the status,
// since refusals arrive as JSON with 4xx/5xx. GET queries are retried on
// transport failures and overload statuses. Commands are sent once.
func (c *Client) call(ctx context.Context, method, path string, form url.Values, out any) error {
	var resp *response

	send := func() error {
		resp = nil
		r, err := c.send(ctx, method, path, form)
		if err != nil {
			return err
		}
		resp = r
		if infra.IsRetryableHTTPStatus(r.status) {
			return fmt.Errorf("backend status %d (retryable)", r.status)
		}
		return nil
	}

	var err error
	if method == http.MethodGet {
		err = infra.WithRetry(ctx, c.retry, send)
	} else {
		err = send()
	}

	if resp == nil {
		return err
	}

	if decodeErr := json.Unmarshal(resp.body, out); decodeErr != nil {
		return fmt.Errorf("decoding %s %s (status %d): %w", method, path, resp.status, decodeErr)
	}
	return nil
}

// send performs the round trip, logging in again once when the session has
// expired.
func (c *Client) send(ctx context.Context, method, path string, form url.Values) (*response, error) {
	for attempt := 0; ; attempt++ {
		req, err := c.newRequest(ctx, method, path, form)
		if err != nil {
			return nil, infra.Permanent(err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("sending request: %w", err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading response: %w", err)
		}

		if !sessionExpired(resp) {
			return &response{status: resp.StatusCode, body: body}, nil
		}
		if attempt > 0 {
			return nil, infra.Permanent(fmt.Errorf("%s %s: session rejected after login", method, path))
		}

		c.logger.Debug("backend session expired, logging in", "path", path)
		c.loginMu.Lock()
		err = c.login(ctx)
		c.loginMu.Unlock()
		if err != nil {
			return nil, infra.Permanent(fmt.Errorf("logging in: %w", err))
		}
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, form url.Values) (*http.Request, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return req, nil
}

func sessionExpired(resp *http.Response) bool {
	if resp.StatusCode == http.StatusUnauthorized {
		return true
	}
	return isRedirect(resp.StatusCode) && redirectsToLogin(resp)
}

func isRedirect(status int) bool {
	return status >= 300 && status < 400
}

func redirectsToLogin(resp *http.Response) bool {
	loc, err := resp.Location()
	if err != nil {
		return false
	}
	return strings.TrimSuffix(loc.Path, "/") == "/login"
}
