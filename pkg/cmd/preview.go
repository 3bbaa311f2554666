package cmd

import (
	"github.com/spf13/cobra"

	"github.com/telekom/relaynotify/pkg/mail"
	"github.com/telekom/relaynotify/pkg/output"
)

func NewPreviewCommand() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show the messages send would submit, without contacting the relay",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			if err := rt.EnsureConfigLoaded(); err != nil {
				return err
			}
			msgs := mail.Compose(rt.cfg.Sender, rt.cfg.Message, rt.cfg.Recipients)
			return output.WriteMessages(rt.Writer(), output.Format(outputFormat), msgs)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", string(output.FormatTable), "Output format: table, json, yaml, mime")

	return cmd
}
