// Package mailtest runs a minimal in-process SMTP relay for tests. It speaks
// just enough of the protocol for net/smtp and gomail clients: EHLO, AUTH
// PLAIN, MAIL, RCPT, DATA, RSET and QUIT.
//
// NewServer returns a running relay the caller must Close. Start wraps it for
// tests and registers Close as cleanup. The package does not import testing.
package mailtest

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"
)

// Options configure the relay's behaviour.
type Options struct {
	// Username and Password enable AUTH PLAIN; MAIL is refused until a
	// client authenticates with them.
	Username string
	Password string
	// RejectRecipients lists addresses answered with 550 on RCPT.
	RejectRecipients []string
}

// Envelope is one message accepted by the relay.
type Envelope struct {
	From string
	To   []string
	Data string
}

// Body returns the message content after the header block.
func (e Envelope) Body() string {
	if i := strings.Index(e.Data, "\r\n\r\n"); i >= 0 {
		return e.Data[i+4:]
	}
	return ""
}

// Header returns the first value of the named header.
func (e Envelope) Header(name string) string {
	head := e.Data
	if i := strings.Index(head, "\r\n\r\n"); i >= 0 {
		head = head[:i]
	}
	prefix := strings.ToLower(name) + ":"
	for _, line := range strings.Split(head, "\r\n") {
		if strings.HasPrefix(strings.ToLower(line), prefix) {
			return strings.TrimSpace(line[len(prefix):])
		}
	}
	return ""
}

type Server struct {
	Host string
	Port int

	opts Options
	ln   net.Listener
	wg   sync.WaitGroup

	mu           sync.Mutex
	sessions     int
	authAttempts int
	quits        int
	messages     []Envelope
}

// TB is the part of testing.TB that Start uses.
type TB interface {
	Helper()
	Fatalf(format string, args ...any)
	Cleanup(func())
}

// NewServer listens on a random loopback port.
func NewServer(opts Options) (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}
	addr := ln.Addr().(*net.TCPAddr)
	s := &Server{
		Host: "127.0.0.1",
		Port: addr.Port,
		opts: opts,
		ln:   ln,
	}
	s.wg.Add(1)
	go s.acceptLoop()
	return s, nil
}

// Start runs a relay for the duration of a test.
func Start(t TB, opts Options) *Server {
	t.Helper()
	s, err := NewServer(opts)
	if err != nil {
		t.Fatalf("mailtest: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

// Close stops accepting and waits for open sessions to end.
func (s *Server) Close() {
	_ = s.ln.Close()
	s.wg.Wait()
}

// Sessions counts accepted connections.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions
}

func (s *Server) AuthAttempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authAttempts
}

// Quits counts sessions the client ended with QUIT.
func (s *Server) Quits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quits
}

func (s *Server) Messages() []Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Envelope, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.sessions++
		s.mu.Unlock()
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serve(conn)
		}()
	}
}

func (s *Server) authEnabled() bool {
	return s.opts.Username != ""
}

func (s *Server) rejected(addr string) bool {
	for _, r := range s.opts.RejectRecipients {
		if strings.EqualFold(r, addr) {
			return true
		}
	}
	return false
}

func (s *Server) serve(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(10 * time.Second))
	r := bufio.NewReader(conn)
	reply := func(format string, args ...any) {
		_, _ = fmt.Fprintf(conn, format+"\r\n", args...)
	}

	reply("220 localhost relaynotify test relay ready")

	authed := false
	var from string
	var to []string
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		upper := strings.ToUpper(line)

		switch {
		case strings.HasPrefix(upper, "EHLO"), strings.HasPrefix(upper, "HELO"):
			if s.authEnabled() {
				reply("250-localhost Hello")
				reply("250-AUTH PLAIN")
				reply("250 OK")
			} else {
				reply("250-localhost Hello")
				reply("250 OK")
			}
		case strings.HasPrefix(upper, "AUTH PLAIN"):
			s.mu.Lock()
			s.authAttempts++
			s.mu.Unlock()
			if s.checkPlain(strings.TrimSpace(line[len("AUTH PLAIN"):])) {
				authed = true
				reply("235 2.7.0 Authentication successful")
			} else {
				reply("535 5.7.8 Authentication credentials invalid")
			}
		case line == "*":
			reply("501 5.7.0 Authentication cancelled")
		case strings.HasPrefix(upper, "MAIL FROM:"):
			if s.authEnabled() && !authed {
				reply("530 5.7.0 Authentication required")
				continue
			}
			from = extractAddress(line[len("MAIL FROM:"):])
			to = nil
			reply("250 OK")
		case strings.HasPrefix(upper, "RCPT TO:"):
			addr := extractAddress(line[len("RCPT TO:"):])
			if s.rejected(addr) {
				reply("550 5.1.1 Mailbox unavailable")
				continue
			}
			to = append(to, addr)
			reply("250 OK")
		case upper == "DATA":
			reply("354 End data with <CR><LF>.<CR><LF>")
			var data strings.Builder
			for {
				dline, derr := r.ReadString('\n')
				if derr != nil {
					return
				}
				if strings.TrimRight(dline, "\r\n") == "." {
					break
				}
				if strings.HasPrefix(dline, "..") {
					dline = dline[1:]
				}
				data.WriteString(dline)
			}
			s.mu.Lock()
			s.messages = append(s.messages, Envelope{From: from, To: to, Data: data.String()})
			s.mu.Unlock()
			from, to = "", nil
			reply("250 OK: queued")
		case upper == "RSET":
			from, to = "", nil
			reply("250 OK")
		case upper == "QUIT":
			s.mu.Lock()
			s.quits++
			s.mu.Unlock()
			reply("221 Bye")
			return
		default:
			reply("250 OK")
		}
	}
}

func (s *Server) checkPlain(encoded string) bool {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return false
	}
	parts := strings.Split(string(raw), "\x00")
	if len(parts) != 3 {
		return false
	}
	return parts[1] == s.opts.Username && parts[2] == s.opts.Password
}

func extractAddress(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, ">"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimPrefix(s, "<")
}
