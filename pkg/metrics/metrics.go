package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	SessionsOpened = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relaynotify_sessions_total",
		Help: "Total number of relay sessions opened and authenticated",
	}, []string{"host"})
	// Mail metrics
	MailSendSuccess = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relaynotify_mail_send_success_total",
		Help: "Total number of messages accepted by the relay",
	}, []string{"host"})
	// kind is one of connect, auth, submit, close, canceled.
	MailSendFailure = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relaynotify_mail_send_failure_total",
		Help: "Total number of failed runs grouped by failure kind",
	}, []string{"host", "kind"})
	LastRunTimestamp = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "relaynotify_last_run_timestamp_seconds",
		Help: "Unix time of the last completed run",
	}, []string{"host"})
)

func init() {
	prometheus.MustRegister(SessionsOpened)
	prometheus.MustRegister(MailSendSuccess)
	prometheus.MustRegister(MailSendFailure)
	prometheus.MustRegister(LastRunTimestamp)
}

// WriteTextfile writes every registered metric to path so the node exporter
// textfile collector can pick it up after the process exits.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
