package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultTelegramBaseURL = "https://api.telegram.org"

	// telegramMaxMessageLen is the Telegram Bot API per-message text limit.
	telegramMaxMessageLen = 4096
)

// TelegramNotifier delivers messages through the Telegram Bot API.
type TelegramNotifier struct {
	botToken   string
	chatID     string
	baseURL    string
	httpClient *http.Client
}

// NewTelegramNotifier creates a Telegram notifier. baseURL overrides the
// Bot API endpoint and is empty in production.
func NewTelegramNotifier(botToken, chatID, baseURL string) *TelegramNotifier {
	if baseURL == "" {
		baseURL = defaultTelegramBaseURL
	}
	return &TelegramNotifier{
		botToken:   botToken,
		chatID:     chatID,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Name implements Notifier.
func (n *TelegramNotifier) Name() string { return "telegram" }

// SendMessage implements Notifier. Messages longer than the API limit are
// split on line boundaries and sent as consecutive messages.
func (n *TelegramNotifier) SendMessage(ctx context.Context, text string) error {
	for _, chunk := range splitMessage(text, telegramMaxMessageLen) {
		if err := n.sendOne(ctx, chunk); err != nil {
			return err
		}
	}
	return nil
}

// SendMessages implements Notifier by sending sequentially.
func (n *TelegramNotifier) SendMessages(ctx context.Context, texts []string) error {
	return sendSequential(ctx, n, texts)
}

func (n *TelegramNotifier) sendOne(ctx context.Context, text string) error {
	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    text,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("telegram API returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// splitMessage splits text into chunks of at most maxLen bytes, preferring
// line boundaries. A single line longer than maxLen is split mid-line.
func splitMessage(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	for _, line := range strings.Split(text, "\n") {
		// Hard-split oversized individual lines.
		for len(line) > maxLen {
			if current.Len() > 0 {
				chunks = append(chunks, current.String())
				current.Reset()
			}
			chunks = append(chunks, line[:maxLen])
			line = line[maxLen:]
		}
		if current.Len() > 0 && current.Len()+1+len(line) > maxLen {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

var _ Notifier = (*TelegramNotifier)(nil)
