package cli

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/kilupskalvis/gitsim/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create the configuration",
	Long: `Print the effective configuration. With --init, write a default
configuration to ./.gitsim/config.`,
	Args: cobra.NoArgs,
	Run:  runConfig,
}

var configInit bool

func init() {
	configCmd.Flags().BoolVar(&configInit, "init", false, "Create .gitsim/config in the current directory")
}

func runConfig(cmd *cobra.Command, args []string) {
	if configInit {
		wd, err := os.Getwd()
		if err != nil {
			exitError("%v", err)
		}
		cfg, err := config.Initialize(wd)
		if err != nil {
			exitError("%v", err)
		}
		green.Fprintf(stdout, "Created %s\n", cfg.Path())
		return
	}

	cfg := loadConfig()
	if cfg.Path() != "" {
		fmt.Fprintf(stdout, "# %s\n", cfg.Path())
	} else {
		fmt.Fprintln(stdout, "# defaults (no config file found)")
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		exitError("failed to marshal config: %v", err)
	}
	stdout.Write(data)
}
