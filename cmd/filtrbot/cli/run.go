package cli

import (
	"github.com/spf13/cobra"

	"github.com/m3rciful/filtrbot/bot"
	corecmd "github.com/m3rciful/filtrbot/core/cmd"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the bot until interrupted",
		Example: `  filtrbot run -c config.yaml
  CONFIG_PATH=/etc/filtrbot.yaml filtrbot run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := configOptions()
			opts.LoadConfig = func(path string) (corecmd.ConfigCarrier, error) {
				return bot.LoadConfig(path)
			}
			opts.Bootstrap = bot.Bootstrap
			return corecmd.Run(opts)
		},
	}
}
