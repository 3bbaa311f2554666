package mail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/telekom/relaynotify/pkg/config"
	"github.com/telekom/relaynotify/pkg/metrics"
)

// State is a step of a run: Disconnected → Connected → Authenticated →
// Sending → Closed, or Failed from any of the non-terminal ones.
type State string

const (
	StateDisconnected  State = "Disconnected"
	StateConnected     State = "Connected"
	StateAuthenticated State = "Authenticated"
	StateSending       State = "Sending"
	StateClosed        State = "Closed"
	StateFailed        State = "Failed"
)

// Result describes one run. FailedFrom is the state the run was in when it
// failed.
type Result struct {
	RunID      string        `json:"runID" yaml:"runID"`
	Host       string        `json:"host" yaml:"host"`
	Total      int           `json:"total" yaml:"total"`
	Delivered  []string      `json:"delivered" yaml:"delivered"`
	State      State         `json:"state" yaml:"state"`
	FailedFrom State         `json:"failedFrom,omitempty" yaml:"failedFrom,omitempty"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
	Err        error         `json:"-" yaml:"-"`
}

type hostGetter interface {
	GetHost() string
}

// Notifier sends the configured message to every recipient over one session.
type Notifier struct {
	dialer     Dialer
	host       string
	sender     config.Sender
	message    config.Message
	recipients []string
	progress   io.Writer
	log        *zap.SugaredLogger
}

type Option func(*Notifier)

// WithProgress sets where the per-recipient confirmation lines go.
func WithProgress(w io.Writer) Option {
	return func(n *Notifier) { n.progress = w }
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(n *Notifier) { n.log = log }
}

// WithHost overrides the host label used in logs and metrics.
func WithHost(host string) Option {
	return func(n *Notifier) { n.host = host }
}

func NewNotifier(dialer Dialer, sender config.Sender, message config.Message, recipients []string, opts ...Option) *Notifier {
	n := &Notifier{
		dialer:     dialer,
		sender:     sender,
		message:    message,
		recipients: append([]string(nil), recipients...),
		progress:   io.Discard,
		log:        zap.NewNop().Sugar(),
	}
	if hg, ok := dialer.(hostGetter); ok {
		n.host = hg.GetHost()
	}
	for _, opt := range opts {
		opt(n)
	}
	n.log = n.log.Named("notifier")
	return n
}

// Run opens the session once, submits one message per recipient in order and
// closes the session. The first failure aborts the rest of the run; the
// returned Result always lists what was delivered before it.
func (n *Notifier) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{
		RunID:     uuid.NewString(),
		Host:      n.host,
		Total:     len(n.recipients),
		Delivered: []string{},
		State:     StateDisconnected,
	}
	log := n.log.With("runID", res.RunID, "host", n.host)
	log.Infow("Starting notification run", "recipients", res.Total, "subject", n.message.Subject)

	err := n.run(ctx, res, log)
	res.Duration = time.Since(start)
	metrics.LastRunTimestamp.WithLabelValues(n.host).SetToCurrentTime()
	if err != nil {
		res.FailedFrom = res.State
		res.State = StateFailed
		res.Err = err
		metrics.MailSendFailure.WithLabelValues(n.host, string(KindOf(err))).Inc()
		log.Errorw("Notification run failed",
			"kind", KindOf(err),
			"failedFrom", res.FailedFrom,
			"delivered", len(res.Delivered),
			"error", err)
		return res, err
	}
	log.Infow("Notification run finished", "delivered", len(res.Delivered), "duration", res.Duration)
	return res, nil
}

func (n *Notifier) run(ctx context.Context, res *Result, log *zap.SugaredLogger) error {
	if err := ctx.Err(); err != nil {
		return &DeliveryError{Kind: KindCanceled, Err: err}
	}

	sc, err := n.dialer.Dial()
	if err != nil {
		var de *DeliveryError
		if !errors.As(err, &de) {
			de = &DeliveryError{Kind: KindConnect, Err: err}
		}
		if de.Kind == KindAuth {
			res.State = StateConnected
		}
		return de
	}
	res.State = StateAuthenticated
	metrics.SessionsOpened.WithLabelValues(n.host).Inc()
	log.Debug("Relay session authenticated")

	closed := false
	defer func() {
		if !closed {
			if cerr := sc.Close(); cerr != nil {
				log.Warnw("Error closing relay session after failure", "error", cerr)
			}
		}
	}()

	for i, rcpt := range n.recipients {
		if err := ctx.Err(); err != nil {
			return &DeliveryError{Kind: KindCanceled, Delivered: len(res.Delivered), Err: err}
		}
		res.State = StateSending
		msg := NewMessage(n.sender, n.message, rcpt)
		if err := gomail.Send(sc, msg.Gomail()); err != nil {
			return &DeliveryError{Kind: KindSubmit, Recipient: rcpt, Delivered: len(res.Delivered), Err: err}
		}
		res.Delivered = append(res.Delivered, rcpt)
		metrics.MailSendSuccess.WithLabelValues(n.host).Inc()
		log.Infow("Email sent", "recipient", rcpt, "index", i)
		if _, err := fmt.Fprintf(n.progress, "Email sent to %s\n", rcpt); err != nil {
			log.Warnw("Failed to write progress line", "error", err)
		}
	}

	closed = true
	if err := sc.Close(); err != nil {
		return &DeliveryError{Kind: KindClose, Delivered: len(res.Delivered), Err: err}
	}
	res.State = StateClosed
	return nil
}
