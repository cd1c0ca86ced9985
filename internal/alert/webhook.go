// Package alert delivers best-effort notifications about severe failures to
// an operational webhook (Discord-compatible embed payload).
package alert

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	apperrors "github.com/guardianlk/guardian/internal/errors"
	"github.com/guardianlk/guardian/internal/redact"
)

// embedColorRed is the accent color of the error embed.
const embedColorRed = 0xE02424

// Payload is the webhook body. Shaped for Discord but generic enough for any
// JSON webhook receiver.
type Payload struct {
	Username string  `json:"username"`
	Content  string  `json:"content"`
	Embeds   []Embed `json:"embeds"`
}

// Embed is one embed block of the payload.
type Embed struct {
	Title     string  `json:"title"`
	Color     int     `json:"color"`
	Timestamp string  `json:"timestamp"`
	Fields    []Field `json:"fields"`
}

// Field is one name/value pair of an embed.
type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Notifier posts severe-failure alerts to a configured webhook.
//
// Delivery is fire-and-forget: NotifySevere returns immediately, the post
// runs on its own goroutine with a bounded client timeout, and failures are
// never allowed to affect the response path. Outcomes are observable through
// the result hook for tests.
type Notifier struct {
	webhookURL  string
	environment string
	client      *http.Client
	logger      *slog.Logger
	resultHook  func(error)
}

// NewNotifier creates a webhook notifier. An empty webhookURL disables
// delivery entirely.
func NewNotifier(webhookURL, environment string, timeout time.Duration, logger *slog.Logger) *Notifier {
	return &Notifier{
		webhookURL:  webhookURL,
		environment: environment,
		client:      &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

// SetResultHook installs a callback invoked with every delivery outcome
// (nil on success). Intended for tests observing swallowed failures.
func (n *Notifier) SetResultHook(hook func(error)) {
	n.resultHook = hook
}

// Enabled reports whether a webhook endpoint is configured.
func (n *Notifier) Enabled() bool {
	return n.webhookURL != ""
}

// NotifySevere dispatches an alert for a severe classified error. No-op when
// no webhook is configured.
func (n *Notifier) NotifySevere(ce *apperrors.ClassifiedError, method string) {
	if !n.Enabled() {
		return
	}

	payload := n.buildPayload(ce, method)
	go n.post(payload)
}

// buildPayload renders the Discord-friendly embed. The message is truncated
// and both message and path are redacted before leaving the process.
func (n *Notifier) buildPayload(ce *apperrors.ClassifiedError, method string) *Payload {
	message := ce.ClientMessage
	if ce.InternalDetail != nil {
		message = ce.InternalDetail.Error()
	}
	if len(message) > 300 {
		message = message[:300]
	}
	message = redact.Text(message)

	path := redact.Path(ce.RequestPath)
	if path == "" {
		path = "-"
	}
	requestID := ce.RequestID
	if requestID == "" {
		requestID = "-"
	}

	title := fmt.Sprintf("%d", ce.StatusCode)
	if ce.StatusCode >= 500 {
		title = fmt.Sprintf("CRITICAL %d", ce.StatusCode)
	}

	return &Payload{
		Username: "Guardian Alerts",
		Content:  fmt.Sprintf("🚨 **%s** %s %s (%s)", title, method, path, n.environment),
		Embeds: []Embed{
			{
				Title:     "Server Error",
				Color:     embedColorRed,
				Timestamp: time.Now().UTC().Format(time.RFC3339),
				Fields: []Field{
					{Name: "Status", Value: fmt.Sprintf("%d", ce.StatusCode), Inline: true},
					{Name: "Method", Value: method, Inline: true},
					{Name: "Path", Value: path},
					{Name: "Request ID", Value: requestID},
					{Name: "Message", Value: "```\n" + message + "\n```"},
				},
			},
		},
	}
}

// post delivers the payload. All failures end up in the result hook and,
// outside production, the debug log; none propagate.
func (n *Notifier) post(payload *Payload) {
	err := n.send(payload)

	if n.resultHook != nil {
		n.resultHook(err)
	}
	if err != nil && n.environment != "production" && n.logger != nil {
		n.logger.Debug("alert webhook delivery failed", slog.Any("error", err))
	}
}

func (n *Notifier) send(payload *Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal alert payload")
	}

	resp, err := n.client.Post(n.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return apperrors.Wrap(err, "failed to post alert webhook")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("alert webhook returned status %d", resp.StatusCode)
	}
	return nil
}
