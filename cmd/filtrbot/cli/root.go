// Package cli implements the filtrbot command line.
package cli

import (
	"github.com/spf13/cobra"

	corecmd "github.com/m3rciful/filtrbot/core/cmd"
)

const defaultConfigPath = "config.yaml"

var cfgFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "filtrbot",
		Short: "Telegram bot with switchable message filters",
		Long: `filtrbot runs a Telegram bot whose message filters can be enabled,
disabled, loaded and unloaded at runtime. Filter state is kept in Postgres
and survives restarts.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (YAML); falls back to $"+corecmd.DefaultConfigEnvVar+" then "+defaultConfigPath)
	root.AddCommand(newRunCmd(), newFiltersCmd(), newVersionCmd())
	return root
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func configOptions() corecmd.Options {
	return corecmd.Options{
		ConfigPath:        cfgFile,
		ConfigEnvVar:      corecmd.DefaultConfigEnvVar,
		DefaultConfigPath: defaultConfigPath,
	}
}
