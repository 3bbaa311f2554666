package mail

import (
	"io"

	"gopkg.in/gomail.v2"

	"github.com/telekom/relaynotify/pkg/config"
)

// Message is one email addressed to a single recipient. It is a value type;
// the Notifier builds a fresh one for every recipient.
type Message struct {
	From     string `json:"from" yaml:"from"`
	FromName string `json:"fromName,omitempty" yaml:"fromName,omitempty"`
	To       string `json:"to" yaml:"to"`
	Subject  string `json:"subject" yaml:"subject"`
	Body     string `json:"body" yaml:"body"`
}

func NewMessage(sender config.Sender, msg config.Message, to string) Message {
	return Message{
		From:     sender.Address,
		FromName: sender.Name,
		To:       to,
		Subject:  msg.Subject,
		Body:     msg.Body,
	}
}

// Compose builds the messages a run would submit, in recipient order.
func Compose(sender config.Sender, msg config.Message, recipients []string) []Message {
	out := make([]Message, 0, len(recipients))
	for _, r := range recipients {
		out = append(out, NewMessage(sender, msg, r))
	}
	return out
}

// Gomail converts the message into its wire representation: From, To and
// Subject headers and a single text/plain body.
func (m Message) Gomail() *gomail.Message {
	gm := gomail.NewMessage()
	if m.FromName != "" {
		gm.SetAddressHeader("From", m.From, m.FromName)
	} else {
		gm.SetHeader("From", m.From)
	}
	gm.SetHeader("To", m.To)
	gm.SetHeader("Subject", m.Subject)
	gm.SetBody("text/plain", m.Body)
	return gm
}

// WriteTo renders the MIME form of the message.
func (m Message) WriteTo(w io.Writer) (int64, error) {
	return m.Gomail().WriteTo(w)
}
