package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"InstrumentsMonitor/internal/domain"
	"InstrumentsMonitor/internal/ports"
)

const (
	defaultAPIBase = "https://api.telegram.org"
	maxMessageLen  = 4096
)

// Notifier sends the run report to a Telegram chat via bot API.
type Notifier struct {
	botToken string
	chatID   string
	apiBase  string
	client   *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier. apiBase defaults to the public API.
func NewNotifier(botToken, chatID, apiBase string, client *http.Client) *Notifier {
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &Notifier{
		botToken: botToken,
		chatID:   chatID,
		apiBase:  strings.TrimSuffix(apiBase, "/"),
		client:   client,
	}
}

// Name identifies the channel in logs.
func (n *Notifier) Name() string {
	return "telegram"
}

// Publish posts the Markdown digest (plain text when none was rendered).
func (n *Notifier) Publish(ctx context.Context, msg domain.Message) error {
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return fmt.Errorf("telegram: %w", domain.ErrNotifierMisconfigured)
	}

	text, mode := msg.Markdown, "Markdown"
	if text == "" {
		text, mode = msg.Subject+"\n\n"+msg.Text, ""
	}
	if r := []rune(text); len(r) > maxMessageLen {
		// A cut Markdown body may end inside an entity, so send it as plain text.
		if mode != "" {
			text, mode = msg.Subject+"\n\n"+msg.Text, ""
			r = []rune(text)
		}
		if len(r) > maxMessageLen {
			text = string(r[:maxMessageLen-1]) + "…"
		}
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", text)
	if mode != "" {
		form.Set("parse_mode", mode)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}
