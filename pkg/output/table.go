package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/telekom/relaynotify/pkg/mail"
)

const bodyPreviewLen = 40

func newTable(w io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	return tw
}

func WriteMessageTable(w io.Writer, msgs []mail.Message) {
	tw := newTable(w)
	tw.AppendHeader(table.Row{"#", "FROM", "TO", "SUBJECT", "BODY"})
	for i, m := range msgs {
		tw.AppendRow(table.Row{i + 1, m.From, m.To, m.Subject, preview(m.Body)})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 1, Align: text.AlignRight}})
	tw.Render()
}

func WriteResultTable(w io.Writer, res *mail.Result) {
	tw := newTable(w)
	tw.AppendHeader(table.Row{"RUN", "HOST", "STATE", "DELIVERED", "DURATION"})
	state := string(res.State)
	if res.FailedFrom != "" {
		state = fmt.Sprintf("%s (from %s)", res.State, res.FailedFrom)
	}
	tw.AppendRow(table.Row{
		res.RunID,
		res.Host,
		state,
		strconv.Itoa(len(res.Delivered)) + "/" + strconv.Itoa(res.Total),
		res.Duration.Round(time.Millisecond).String(),
	})
	tw.Render()
}

func preview(body string) string {
	s := strings.Join(strings.Fields(body), " ")
	if len([]rune(s)) <= bodyPreviewLen {
		return s
	}
	return string([]rune(s)[:bodyPreviewLen-3]) + "..."
}
