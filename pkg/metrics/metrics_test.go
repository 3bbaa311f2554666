package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMailMetricsIncrement(t *testing.T) {
	host := "test-relay"
	MailSendSuccess.WithLabelValues(host).Inc()
	if v := testutil.ToFloat64(MailSendSuccess.WithLabelValues(host)); v < 1 {
		t.Fatalf("expected MailSendSuccess >= 1, got %v", v)
	}
	MailSendFailure.WithLabelValues(host, "auth").Inc()
	if v := testutil.ToFloat64(MailSendFailure.WithLabelValues(host, "auth")); v < 1 {
		t.Fatalf("expected MailSendFailure >= 1, got %v", v)
	}
	SessionsOpened.WithLabelValues(host).Inc()
	if v := testutil.ToFloat64(SessionsOpened.WithLabelValues(host)); v < 1 {
		t.Fatalf("expected SessionsOpened >= 1, got %v", v)
	}
}

func TestWriteTextfile(t *testing.T) {
	SessionsOpened.WithLabelValues("textfile-relay").Inc()

	path := filepath.Join(t.TempDir(), "relaynotify.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(content), `relaynotify_sessions_total{host="textfile-relay"}`) {
		t.Fatalf("textfile missing session counter:\n%s", content)
	}
}

func TestWriteTextfile_BadPath(t *testing.T) {
	if err := WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom")); err == nil {
		t.Fatal("expected error for unwritable path")
	}
}
