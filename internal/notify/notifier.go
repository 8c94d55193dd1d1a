// Package notify builds and delivers operator notifications.
//
// Every finished sentinel run produces exactly one Message: a subject whose
// prefix carries the severity, and a plain-text body holding the verdict,
// the restart result if any, every sample line collected during the run and
// a short footer describing the sentinel host. Delivery goes through a
// Notifier; the Mandrill implementation is used when an API key is
// configured and the log implementation otherwise.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	configDefaults "github.com/concave-dev/ceph-sentinel/internal/config"
	"github.com/concave-dev/ceph-sentinel/internal/logging"
	"github.com/concave-dev/ceph-sentinel/internal/validate"
)

// Message is one operator notification.
type Message struct {
	Subject string
	Body    string
}

// Notifier delivers messages.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
	Name() string
}

// NotificationError reports a failed delivery. It is logged and counted by
// the caller, never escalated.
type NotificationError struct {
	Provider string
	Err      error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("%s notification failed: %v", e.Provider, e.Err)
}

func (e *NotificationError) Unwrap() error {
	return e.Err
}

// IsNotificationError reports whether err wraps a *NotificationError.
func IsNotificationError(err error) bool {
	var nerr *NotificationError
	return errors.As(err, &nerr)
}

// Config holds notifier settings.
type Config struct {
	Provider      string `validate:"required,oneof=mandrill log"`
	Location      string `validate:"required"` // Cluster tag used in subjects
	SubjectSuffix string `validate:"required"`
	MandrillURL   string `validate:"omitempty,url"`
	APIKey        string // Mandrill API key; never logged
	From          string `validate:"omitempty,email"`
	FromName      string
	To            []string
	Timeout       time.Duration `validate:"required"`
	Retries       int           `validate:"min=0,max=10"`
}

// DefaultConfig returns notifier defaults. Recipients and the API key have
// no defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:      configDefaults.DefaultNotifyProvider,
		Location:      configDefaults.DefaultLocation,
		SubjectSuffix: configDefaults.DefaultSubjectSuffix,
		MandrillURL:   configDefaults.DefaultMandrillURL,
		FromName:      "Ceph Sentinel",
		Timeout:       configDefaults.DefaultNotifyTimeout,
		Retries:       configDefaults.DefaultNotifyRetries,
	}
}

// Validate checks the configuration. The Mandrill provider needs a key, a
// sender and at least one recipient.
func (c *Config) Validate() error {
	if err := validate.ValidateStruct(c); err != nil {
		return fmt.Errorf("notifier config validation failed: %w", err)
	}
	if err := validate.LocationFormat(c.Location); err != nil {
		return err
	}
	if c.Provider != "mandrill" {
		return nil
	}
	if err := validate.ValidateRequiredString(c.APIKey, "mandrill API key"); err != nil {
		return err
	}
	if err := validate.ValidateRequiredString(c.From, "sender address"); err != nil {
		return err
	}
	return validate.ValidateEmailList(c.To, "recipient list")
}

// New returns the notifier selected by cfg.
func New(cfg *Config) (Notifier, error) {
	if cfg == nil {
		return nil, fmt.Errorf("notifier config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Provider == "log" {
		return &LogNotifier{}, nil
	}
	return NewMandrillNotifier(cfg), nil
}

// LogNotifier writes messages to the log instead of sending them.
type LogNotifier struct{}

// Name returns "log".
func (*LogNotifier) Name() string {
	return "log"
}

// Send logs the subject at WARN for non-healthy reports and INFO otherwise,
// followed by each body line.
func (*LogNotifier) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return &NotificationError{Provider: "log", Err: err}
	}

	logf := logging.Info
	if !strings.HasPrefix(msg.Subject, SeverityHealthy.String()) {
		logf = logging.Warn
	}

	logf("Notification: %s", msg.Subject)
	for _, line := range strings.Split(msg.Body, "\n") {
		if line = strings.TrimRight(line, " "); line != "" {
			logf("  %s", line)
		}
	}
	return nil
}
