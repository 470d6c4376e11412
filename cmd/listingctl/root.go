package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lodging_console_v1_202610/pkg/config"
	"lodging_console_v1_202610/pkg/logger"
)

// cliOptions 全局参数
type cliOptions struct {
	configFile string
	envFile    string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:           "listingctl",
		Short:         "Operator CLI for lodging listing drafts",
		Long:          "listingctl validates listing draft files and submits them to the listing backend\nthrough the same pipeline the console uses.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "YAML config file")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", ".env file (default ./.env if present)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newValidateCmd())
	root.AddCommand(newSubmitCmd(opts))
	root.AddCommand(newTokenCmd(opts))
	return root
}

func (o *cliOptions) load() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(o.configFile, o.envFile)
	if err != nil {
		return nil, nil, err
	}

	level := cfg.Log.Level
	if o.verbose {
		level = "debug"
	}
	log, err := logger.New(level, true)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
