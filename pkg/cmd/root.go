package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/telekom/relaynotify/pkg/config"
	"github.com/telekom/relaynotify/pkg/logging"
)

type Config struct {
	ConfigPath   string
	OutputWriter io.Writer
	// Logger replaces the logger built from --debug; tests inject zaptest here.
	Logger *zap.SugaredLogger
}

type runtimeState struct {
	configPath string
	envFile    string
	debug      bool
	cfg        *config.Config
	writer     io.Writer
	log        *zap.SugaredLogger
}

type runtimeKey struct{}

func DefaultConfig() Config {
	return Config{
		ConfigPath:   config.DefaultConfigPath(),
		OutputWriter: os.Stdout,
	}
}

func NewRootCommand(cfg Config) *cobra.Command {
	rt := &runtimeState{configPath: cfg.ConfigPath, writer: cfg.OutputWriter, log: cfg.Logger}

	root := &cobra.Command{
		Use:           "relaynotify",
		Short:         "Send a fixed notification to a list of recipients over one SMTP relay session",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if rt.writer == nil {
				rt.writer = os.Stdout
			}
			if rt.configPath == "" {
				rt.configPath = config.DefaultConfigPath()
			}
			if rt.envFile == "" {
				rt.envFile = os.Getenv("RELAYNOTIFY_ENV_FILE")
			}
			if !rt.debug {
				rt.debug = strings.EqualFold(os.Getenv("RELAYNOTIFY_DEBUG"), "true")
			}
			if rt.envFile != "" {
				// Existing environment variables take precedence over the file.
				if err := godotenv.Load(rt.envFile); err != nil {
					return fmt.Errorf("failed to load env file %s: %w", rt.envFile, err)
				}
			}
			if rt.log == nil {
				log, err := logging.New(rt.debug)
				if err != nil {
					return err
				}
				rt.log = log
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&rt.configPath, "config", rt.configPath, "Path to config file")
	root.PersistentFlags().StringVar(&rt.envFile, "env-file", "", "Load environment variables from this .env file")
	root.PersistentFlags().BoolVar(&rt.debug, "debug", false, "Enable debug level logging")

	root.SetContext(context.WithValue(context.Background(), runtimeKey{}, rt))

	root.AddCommand(
		NewSendCommand(),
		NewPreviewCommand(),
		NewConfigCommand(),
		NewSecretCommand(),
		NewVersionCommand(),
	)

	return root
}

func getRuntime(cmd *cobra.Command) (*runtimeState, error) {
	rt, ok := cmd.Context().Value(runtimeKey{}).(*runtimeState)
	if !ok || rt == nil {
		return nil, errors.New("runtime not initialized")
	}
	return rt, nil
}

func (rt *runtimeState) Writer() io.Writer {
	if rt.writer != nil {
		return rt.writer
	}
	return os.Stdout
}

func (rt *runtimeState) Logger() *zap.SugaredLogger {
	if rt.log != nil {
		return rt.log
	}
	return zap.NewNop().Sugar()
}

// EnsureConfigLoaded loads, overrides from the environment and validates the
// configuration once per invocation.
func (rt *runtimeState) EnsureConfigLoaded() error {
	if rt.cfg != nil {
		return nil
	}
	cfg, err := config.Load(rt.configPathValue())
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration %s: %w", rt.configPathValue(), err)
	}
	rt.cfg = cfg
	return nil
}

func (rt *runtimeState) configPathValue() string {
	if rt.configPath == "" {
		return config.DefaultConfigPath()
	}
	return rt.configPath
}

// reportedError marks an error whose message was already written to the
// user, so main only needs to set the exit code.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string {
	return e.err.Error()
}

func (e *reportedError) Unwrap() error {
	return e.err
}

// IsReported reports whether err was already printed by a command.
func IsReported(err error) bool {
	var re *reportedError
	return errors.As(err, &re)
}
