package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/concave-dev/ceph-sentinel/internal/logging"
	"github.com/concave-dev/ceph-sentinel/internal/netutil"
	"github.com/concave-dev/ceph-sentinel/internal/version"
	"github.com/go-resty/resty/v2"
)

// mandrillSendPath is the transactional send endpoint relative to the API root.
const mandrillSendPath = "/messages/send.json"

type mandrillRecipient struct {
	Email string `json:"email"`
	Type  string `json:"type"`
}

type mandrillMessage struct {
	FromEmail string              `json:"from_email"`
	FromName  string              `json:"from_name,omitempty"`
	Subject   string              `json:"subject"`
	Text      string              `json:"text"`
	To        []mandrillRecipient `json:"to"`
}

type mandrillRequest struct {
	Key     string          `json:"key"`
	Message mandrillMessage `json:"message"`
}

// mandrillResult is the per-recipient delivery status.
type mandrillResult struct {
	Email        string `json:"email"`
	Status       string `json:"status"`
	RejectReason string `json:"reject_reason"`
	ID           string `json:"_id"`
}

// mandrillError is the body Mandrill returns with a non-2xx status.
type mandrillError struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// MandrillNotifier sends messages through the Mandrill transactional API.
type MandrillNotifier struct {
	client   *resty.Client
	key      string
	from     string
	fromName string
	to       []string
}

// NewMandrillNotifier builds a resty client for cfg.MandrillURL. Transport
// errors are retried cfg.Retries times; HTTP errors are not.
func NewMandrillNotifier(cfg *Config) *MandrillNotifier {
	client := resty.New()

	client.SetLogger(logging.RestyLogger{Prefix: "mandrill: "})

	client.
		SetTimeout(cfg.Timeout).
		SetBaseURL(strings.TrimRight(cfg.MandrillURL, "/")).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", fmt.Sprintf("ceph-sentinel/%s", version.SentinelVersion))

	client.
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			// Only retry on connection errors, not HTTP errors
			return err != nil
		})

	client.OnBeforeRequest(func(c *resty.Client, req *resty.Request) error {
		logging.Debug("Mandrill request: %s %s", req.Method, req.URL)
		return nil
	})

	client.OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
		logging.Debug("Mandrill response: %d (took %v)", resp.StatusCode(), resp.Time())
		return nil
	})

	to := make([]string, len(cfg.To))
	copy(to, cfg.To)

	return &MandrillNotifier{
		client:   client,
		key:      cfg.APIKey,
		from:     cfg.From,
		fromName: cfg.FromName,
		to:       to,
	}
}

// Name returns "mandrill".
func (*MandrillNotifier) Name() string {
	return "mandrill"
}

// Send posts msg to every recipient. Any recipient reported as rejected or
// invalid fails the whole send.
func (n *MandrillNotifier) Send(ctx context.Context, msg Message) error {
	req := mandrillRequest{
		Key: n.key,
		Message: mandrillMessage{
			FromEmail: n.from,
			FromName:  n.fromName,
			Subject:   msg.Subject,
			Text:      msg.Body,
		},
	}
	for _, addr := range n.to {
		req.Message.To = append(req.Message.To, mandrillRecipient{Email: addr, Type: "to"})
	}

	logging.Info("Sending notification via Mandrill to %d recipient(s)", len(n.to))

	var results []mandrillResult
	var apiErr mandrillError
	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&results).
		SetError(&apiErr).
		Post(mandrillSendPath)
	if err != nil {
		if netutil.IsConnectionRefusedError(err) {
			return &NotificationError{Provider: n.Name(),
				Err: fmt.Errorf("endpoint %s refused connection: %w", n.client.BaseURL, err)}
		}
		return &NotificationError{Provider: n.Name(), Err: fmt.Errorf("request failed: %w", err)}
	}

	if resp.IsError() {
		if apiErr.Message != "" {
			return &NotificationError{Provider: n.Name(),
				Err: fmt.Errorf("API error %d (%s): %s", resp.StatusCode(), apiErr.Name, apiErr.Message)}
		}
		return &NotificationError{Provider: n.Name(),
			Err: fmt.Errorf("API request failed with status %d: %s", resp.StatusCode(), resp.String())}
	}

	if len(results) == 0 {
		return &NotificationError{Provider: n.Name(), Err: fmt.Errorf("empty delivery report")}
	}

	var failed []string
	for _, r := range results {
		switch r.Status {
		case "rejected", "invalid":
			reason := r.RejectReason
			if reason == "" {
				reason = r.Status
			}
			failed = append(failed, fmt.Sprintf("%s (%s)", r.Email, reason))
		default:
			logging.Debug("Mandrill accepted %s: %s", r.Email, r.Status)
		}
	}
	if len(failed) > 0 {
		return &NotificationError{Provider: n.Name(),
			Err: fmt.Errorf("recipients not accepted: %s", strings.Join(failed, ", "))}
	}

	logging.Success("Sent notification via Mandrill: %s", msg.Subject)
	return nil
}
