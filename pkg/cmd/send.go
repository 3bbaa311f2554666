package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/telekom/relaynotify/pkg/mail"
	"github.com/telekom/relaynotify/pkg/metrics"
	"github.com/telekom/relaynotify/pkg/output"
	"github.com/telekom/relaynotify/pkg/secrets"
)

func NewSendCommand() *cobra.Command {
	var (
		strict          bool
		summary         bool
		metricsTextfile string
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send the configured message to every recipient",
		Long: `Opens one session to the relay, authenticates once and submits one
message per recipient in list order. Every run delivers again to every
recipient; there is no deduplication between runs.

A failure at any stage aborts the remaining recipients and prints a single
"Error:" line. The exit status stays 0 unless --strict is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			if err := rt.EnsureConfigLoaded(); err != nil {
				return err
			}
			cfg := rt.cfg
			log := rt.Logger()

			password, err := secrets.Resolve(cfg.Relay.Password)
			if err != nil {
				return fmt.Errorf("failed to resolve relay secret: %w", err)
			}

			dialer := mail.NewDialer(cfg.Relay, password, log)
			notifier := mail.NewNotifier(dialer, cfg.Sender, cfg.Message, cfg.Recipients,
				mail.WithProgress(rt.Writer()),
				mail.WithLogger(log))

			res, runErr := notifier.Run(cmd.Context())

			if metricsTextfile != "" {
				if err := metrics.WriteTextfile(metricsTextfile); err != nil {
					log.Warnw("Could not write metrics textfile", "path", metricsTextfile, "error", err)
				}
			}
			if summary {
				output.WriteResultTable(rt.Writer(), res)
			}
			if runErr != nil {
				_, _ = fmt.Fprintf(rt.Writer(), "Error: %v\n", runErr)
				if strict {
					return &reportedError{err: runErr}
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when delivery fails")
	cmd.Flags().BoolVar(&summary, "summary", false, "Print a run summary table after sending")
	cmd.Flags().StringVar(&metricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file after the run")

	return cmd
}
