// Package cli implements crmctl, the operator CLI for the client directory.
package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"clientDirectory/internal/app"
	"clientDirectory/internal/config"
)

// Env supplies configuration to the commands.
type Env struct {
	LoadConfig func() (*config.Config, error)
	Logger     *zap.Logger
}

type runtime struct {
	env      Env
	jsonMode bool
}

// NewRootCmd builds the crmctl command tree.
func NewRootCmd(env Env, version string) *cobra.Command {
	if env.LoadConfig == nil {
		env.LoadConfig = config.LoadWithDefaults
	}
	if env.Logger == nil {
		env.Logger = zap.NewNop()
	}
	rt := &runtime{env: env}

	root := &cobra.Command{
		Use:           "crmctl",
		Short:         "Client directory administration tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&rt.jsonMode, "json", false, "Output in JSON format")

	root.AddCommand(
		newMigrateCmd(rt),
		newAdminCmd(rt),
		newTokenCmd(rt),
		newStatsCmd(rt),
	)
	return root
}

func (rt *runtime) output(cmd *cobra.Command) *Output {
	return NewOutput(rt.jsonMode, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// withStore loads configuration, opens the store and runs fn with both.
func (rt *runtime) withStore(fn func(cfg *config.Config, s *app.Store) error) error {
	cfg, err := rt.env.LoadConfig()
	if err != nil {
		return err
	}
	s, err := app.OpenStore(cfg.Database)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(cfg, s)
}
