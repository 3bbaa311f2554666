package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telekom/relaynotify/pkg/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name           string
		configContent  string
		expectedHost   string
		expectedPort   int
		expectedSender string
		expectedRcpts  []string
		expectError    bool
	}{
		{
			name: "full config",
			configContent: `
relay:
  host: smtp.example.com
  port: 2525
  username: bot@example.com
  password:
    env: RELAY_SECRET
sender:
  address: noreply@example.com
  name: Admin
message:
  subject: Hello
  body: Body text
recipients:
  - a@x.com
  - b@x.com
`,
			expectedHost:   "smtp.example.com",
			expectedPort:   2525,
			expectedSender: "noreply@example.com",
			expectedRcpts:  []string{"a@x.com", "b@x.com"},
		},
		{
			name: "defaults port and sender from username",
			configContent: `
relay:
  host: smtp.example.com
  username: bot@example.com
  password:
    env: RELAY_SECRET
message:
  subject: Hello
  body: Body text
`,
			expectedHost:   "smtp.example.com",
			expectedPort:   config.DefaultRelayPort,
			expectedSender: "bot@example.com",
		},
		{
			name:          "unknown field is rejected",
			configContent: "relay:\n  hostname: smtp.example.com\n",
			expectError:   true,
		},
		{
			name:          "invalid yaml",
			configContent: "relay: [",
			expectError:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.Load(writeConfig(t, tt.configContent))
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedHost, cfg.Relay.Host)
			assert.Equal(t, tt.expectedPort, cfg.Relay.Port)
			assert.Equal(t, tt.expectedSender, cfg.Sender.Address)
			assert.Equal(t, tt.expectedRcpts, cfg.Recipients)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = config.Load("")
	assert.Error(t, err)
}

func TestLoad_BodyFileRelativeToConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "body.txt"), []byte("from file\n"), 0o600))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
relay:
  host: localhost
sender:
  address: a@x.com
message:
  subject: s
  bodyFile: body.txt
`), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from file\n", cfg.Message.Body)
}

func TestDefaults_ImplicitTLSAndKeyring(t *testing.T) {
	cfg := config.Config{
		Relay: config.Relay{
			Host:     "smtp.example.com",
			Port:     465,
			Username: "bot@example.com",
			Password: config.SecretSource{Keyring: &config.KeyringRef{}},
		},
	}
	cfg.Defaults()

	assert.True(t, cfg.Relay.SSL)
	assert.Equal(t, config.DefaultKeyringService, cfg.Relay.Password.Keyring.Service)
	assert.Equal(t, "bot@example.com", cfg.Relay.Password.Keyring.User)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("RELAYNOTIFY_HOST", "relay.internal")
	t.Setenv("RELAYNOTIFY_PORT", "2525")
	t.Setenv("RELAYNOTIFY_USERNAME", "svc@internal")
	t.Setenv("RELAYNOTIFY_SENDER", "noreply@internal")

	cfg := config.Example()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, "relay.internal", cfg.Relay.Host)
	assert.Equal(t, 2525, cfg.Relay.Port)
	assert.Equal(t, "svc@internal", cfg.Relay.Username)
	assert.Equal(t, "noreply@internal", cfg.Sender.Address)

	t.Setenv("RELAYNOTIFY_PORT", "not-a-port")
	assert.Error(t, cfg.ApplyEnv())
}

func TestApplyEnv_UsernameOverrideUpdatesDerivedFields(t *testing.T) {
	cfg, err := config.Parse([]byte(`
relay:
  host: smtp.example.com
  username: file@x.com
  password:
    keyring: {}
message:
  subject: s
  body: b
`))
	require.NoError(t, err)
	require.Equal(t, "file@x.com", cfg.Sender.Address)
	require.Equal(t, "file@x.com", cfg.Relay.Password.Keyring.User)

	t.Setenv("RELAYNOTIFY_USERNAME", "env@x.com")
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, "env@x.com", cfg.Relay.Username)
	assert.Equal(t, "env@x.com", cfg.Sender.Address)
	assert.Equal(t, "env@x.com", cfg.Relay.Password.Keyring.User)
	assert.Equal(t, config.DefaultKeyringService, cfg.Relay.Password.Keyring.Service)
}

func TestApplyEnv_UsernameOverrideKeepsExplicitFields(t *testing.T) {
	cfg, err := config.Parse([]byte(`
relay:
  host: smtp.example.com
  username: file@x.com
  password:
    keyring:
      user: vault-user
sender:
  address: noreply@x.com
message:
  subject: s
  body: b
`))
	require.NoError(t, err)

	t.Setenv("RELAYNOTIFY_USERNAME", "env@x.com")
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, "noreply@x.com", cfg.Sender.Address)
	assert.Equal(t, "vault-user", cfg.Relay.Password.Keyring.User)

	t.Setenv("RELAYNOTIFY_SENDER", "ops@x.com")
	t.Setenv("RELAYNOTIFY_USERNAME", "other@x.com")
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, "ops@x.com", cfg.Sender.Address)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr string
	}{
		{name: "example is valid", mutate: func(*config.Config) {}},
		{name: "empty recipient list is valid", mutate: func(c *config.Config) { c.Recipients = nil }},
		{
			name:   "duplicate recipients are kept",
			mutate: func(c *config.Config) { c.Recipients = []string{"a@x.com", "a@x.com"} },
		},
		{name: "missing host", mutate: func(c *config.Config) { c.Relay.Host = "" }, wantErr: "relay.host"},
		{name: "bad port", mutate: func(c *config.Config) { c.Relay.Port = 70000 }, wantErr: "relay.port"},
		{
			name:    "username without secret",
			mutate:  func(c *config.Config) { c.Relay.Password = config.SecretSource{} },
			wantErr: "relay.password",
		},
		{name: "bad sender", mutate: func(c *config.Config) { c.Sender.Address = "nope" }, wantErr: "sender.address"},
		{name: "missing subject", mutate: func(c *config.Config) { c.Message.Subject = " " }, wantErr: "message.subject"},
		{name: "missing body", mutate: func(c *config.Config) { c.Message.Body = "" }, wantErr: "message.body"},
		{
			name:    "bad recipient",
			mutate:  func(c *config.Config) { c.Recipients = []string{"a@x.com", "broken"} },
			wantErr: "recipients[1]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Example()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := config.Example()
	require.NoError(t, config.Save(path, &cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, *loaded)
}

func TestDefaultConfigPath_Env(t *testing.T) {
	t.Setenv("RELAYNOTIFY_CONFIG", "/tmp/custom.yaml")
	assert.Equal(t, "/tmp/custom.yaml", config.DefaultConfigPath())
}
