package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/telekom/relaynotify/pkg/config"
	"github.com/telekom/relaynotify/pkg/secrets"
)

type keyringFlags struct {
	service string
	user    string
}

func (f *keyringFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.service, "service", "", "Keyring service (default from config or "+config.DefaultKeyringService+")")
	cmd.Flags().StringVar(&f.user, "user", "", "Keyring user (default from config relay.username)")
}

// resolve fills missing service/user from the config file, with environment
// overrides applied, when one can be loaded.
func (f *keyringFlags) resolve(rt *runtimeState) (string, string, error) {
	service, user := f.service, f.user
	if service == "" || user == "" {
		if cfg, err := loadWithEnv(rt.configPathValue()); err == nil {
			if k := cfg.Relay.Password.Keyring; k != nil {
				if service == "" {
					service = k.Service
				}
				if user == "" {
					user = k.User
				}
			}
			if user == "" {
				user = cfg.Relay.Username
			}
		}
	}
	if service == "" {
		service = config.DefaultKeyringService
	}
	if user == "" {
		return "", "", errors.New("keyring user is required (use --user or set relay.username)")
	}
	return service, user, nil
}

func loadWithEnv(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func NewSecretCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage the relay secret in the OS keyring",
	}
	cmd.AddCommand(newSecretSetCommand(), newSecretDeleteCommand())
	return cmd
}

func newSecretSetCommand() *cobra.Command {
	var kf keyringFlags
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store the relay secret read from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			service, user, err := kf.resolve(rt)
			if err != nil {
				return err
			}
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("failed to read secret from stdin: %w", err)
			}
			if err := secrets.Store(service, user, strings.TrimRight(line, "\r\n")); err != nil {
				return err
			}
			rt.Logger().Infow("Stored relay secret in keyring", "service", service, "user", user)
			_, _ = fmt.Fprintf(rt.Writer(), "Secret stored for %s/%s\n", service, user)
			return nil
		},
	}
	kf.bind(cmd)
	return cmd
}

func newSecretDeleteCommand() *cobra.Command {
	var kf keyringFlags
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove the relay secret from the keyring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			service, user, err := kf.resolve(rt)
			if err != nil {
				return err
			}
			if err := secrets.Delete(service, user); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(rt.Writer(), "Secret deleted for %s/%s\n", service, user)
			return nil
		},
	}
	kf.bind(cmd)
	return cmd
}
