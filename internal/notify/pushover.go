package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	defaultPushoverBaseURL = "https://api.pushover.net"

	// pushoverMaxMessageLen is the Pushover per-message limit.
	pushoverMaxMessageLen = 1024
)

// PushoverNotifier delivers messages through the Pushover API.
type PushoverNotifier struct {
	apiToken   string
	userKey    string
	baseURL    string
	httpClient *http.Client
}

// NewPushoverNotifier creates a Pushover notifier. baseURL overrides the API
// endpoint and is empty in production.
func NewPushoverNotifier(apiToken, userKey, baseURL string) *PushoverNotifier {
	if baseURL == "" {
		baseURL = defaultPushoverBaseURL
	}
	return &PushoverNotifier{
		apiToken:   apiToken,
		userKey:    userKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Name implements Notifier.
func (n *PushoverNotifier) Name() string { return "pushover" }

// SendMessage implements Notifier. Messages are truncated to the Pushover
// limit rather than split; the digest link structure survives truncation.
func (n *PushoverNotifier) SendMessage(ctx context.Context, text string) error {
	form := url.Values{}
	form.Set("token", n.apiToken)
	form.Set("user", n.userKey)
	form.Set("message", truncateRunes(text, pushoverMaxMessageLen))

	endpoint := n.baseURL + "/1/messages.json"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build pushover request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send pushover message: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("pushover API returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// SendMessages implements Notifier by sending sequentially.
func (n *PushoverNotifier) SendMessages(ctx context.Context, texts []string) error {
	return sendSequential(ctx, n, texts)
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

var _ Notifier = (*PushoverNotifier)(nil)
