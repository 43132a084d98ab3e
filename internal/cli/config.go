package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/autoflex/pkg/config"
)

// configCommand creates the config command, which prints the effective
// configuration.
func (c *CLI) configCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		Long: `Print the effective configuration as TOML.

The output combines the built-in defaults, the file given with --config (or
` + envConfig + `) and any override flags. Save it as a starting point for
a custom configuration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			return config.Encode(stdout, cfg)
		},
	}
}
