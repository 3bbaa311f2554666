package output

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/telekom/relaynotify/pkg/mail"
)

type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatMIME  Format = "mime"
)

func WriteObject(w io.Writer, format Format, obj any) error {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(obj, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case FormatYAML:
		data, err := yaml.Marshal(obj)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(w, string(data))
		return err
	case FormatTable:
		return fmt.Errorf("table format requires a specific formatter")
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

// WriteMessages renders a preview of the messages a run would submit.
func WriteMessages(w io.Writer, format Format, msgs []mail.Message) error {
	switch format {
	case FormatTable, "":
		WriteMessageTable(w, msgs)
		return nil
	case FormatMIME:
		for i, m := range msgs {
			if i > 0 {
				if _, err := fmt.Fprintln(w); err != nil {
					return err
				}
			}
			if _, err := m.WriteTo(w); err != nil {
				return fmt.Errorf("failed to render message for %s: %w", m.To, err)
			}
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		return nil
	default:
		return WriteObject(w, format, msgs)
	}
}
