package mailtest

import (
	"fmt"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer_RecordsEnvelope(t *testing.T) {
	srv, err := NewServer(Options{RejectRecipients: []string{"no@x.com"}})
	require.NoError(t, err)
	defer srv.Close()

	c, err := smtp.Dial(fmt.Sprintf("%s:%d", srv.Host, srv.Port))
	require.NoError(t, err)
	require.NoError(t, c.Mail("from@x.com"))
	require.NoError(t, c.Rcpt("a@x.com"))
	assert.Error(t, c.Rcpt("no@x.com"))
	w, err := c.Data()
	require.NoError(t, err)
	_, err = w.Write([]byte("Subject: hi\r\n\r\n.leading dot\r\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, c.Quit())

	srv.Close()
	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "from@x.com", msgs[0].From)
	assert.Equal(t, []string{"a@x.com"}, msgs[0].To)
	assert.Equal(t, "hi", msgs[0].Header("Subject"))
	assert.Equal(t, ".leading dot\r\n", msgs[0].Body())
	assert.Equal(t, 1, srv.Sessions())
	assert.Equal(t, 1, srv.Quits())
}

func TestStart_RequiresAuthBeforeMail(t *testing.T) {
	srv := Start(t, Options{Username: "bot@x.com", Password: "pw"})

	c, err := smtp.Dial(fmt.Sprintf("%s:%d", srv.Host, srv.Port))
	require.NoError(t, err)
	defer c.Close()
	assert.Error(t, c.Mail("from@x.com"))
}
