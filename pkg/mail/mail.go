package mail

import (
	"crypto/tls"
	"net/smtp"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/telekom/relaynotify/pkg/config"
)

// Dialer opens one session to the relay. The returned SendCloser is already
// encrypted and authenticated.
type Dialer interface {
	Dial() (gomail.SendCloser, error)
}

// RelayDialer dials the configured relay with gomail. Errors from Dial are
// *DeliveryError values of kind connect or auth.
type RelayDialer struct {
	dialer   *gomail.Dialer
	username string
	password string
	log      *zap.SugaredLogger
}

// trackingAuth records whether the AUTH exchange was reached so a dial error
// can be attributed to the connection or to the credentials.
type trackingAuth struct {
	smtp.Auth
	started bool
}

func (a *trackingAuth) Start(server *smtp.ServerInfo) (string, []byte, error) {
	a.started = true
	return a.Auth.Start(server)
}

func NewDialer(relay config.Relay, password string, log *zap.SugaredLogger) *RelayDialer {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	log = log.Named("mail")
	log.Infow("Initializing relay dialer",
		"host", relay.Host,
		"port", relay.Port,
		"user", relay.Username,
		"ssl", relay.SSL)

	d := gomail.NewDialer(relay.Host, relay.Port, relay.Username, password)
	if relay.SSL {
		d.SSL = true
	}
	if relay.InsecureSkipVerify {
		log.Warn("InsecureSkipVerify is enabled for relay TLS connection")
		d.TLSConfig = &tls.Config{ServerName: relay.Host, InsecureSkipVerify: true} //nolint:gosec // opt-in for internal relays
	}
	d.LocalName = relay.LocalName

	return &RelayDialer{
		dialer:   d,
		username: relay.Username,
		password: password,
		log:      log,
	}
}

// Dial connects, upgrades to TLS when the relay offers STARTTLS (or uses
// implicit TLS) and authenticates with PLAIN when a username is configured.
func (r *RelayDialer) Dial() (gomail.SendCloser, error) {
	var auth *trackingAuth
	if r.username != "" {
		auth = &trackingAuth{Auth: smtp.PlainAuth("", r.username, r.password, r.dialer.Host)}
		r.dialer.Auth = auth
	} else {
		r.dialer.Auth = nil
	}

	r.log.Debugw("Dialing relay", "host", r.GetHost(), "port", r.GetPort())
	sc, err := r.dialer.Dial()
	if err != nil {
		kind := KindConnect
		if auth != nil && auth.started {
			kind = KindAuth
		}
		r.log.Debugw("Relay dial failed", "kind", kind, "error", err)
		return nil, &DeliveryError{Kind: kind, Err: err}
	}
	return sc, nil
}

func (r *RelayDialer) GetHost() string {
	return r.dialer.Host
}

func (r *RelayDialer) GetPort() int {
	return r.dialer.Port
}
