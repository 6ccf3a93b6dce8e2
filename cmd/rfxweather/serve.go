package main

import (
	"fmt"

	"github.com/chrissnell/rfxweather/internal/app"
	"github.com/chrissnell/rfxweather/internal/log"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		cfgFile    string
		cfgBackend string
		debug      bool
		logFile    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the decoder service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := log.InitWithOptions(log.Options{Debug: debug, File: logFile}); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer log.Sync()

			provider, err := openProvider(cfgFile, cfgBackend)
			if err != nil {
				log.Errorf("Failed to load configuration: %v", err)
				return err
			}
			defer provider.Close()

			application := app.New(provider, log.GetSugaredLogger())
			if err := application.Run(cmd.Context()); err != nil {
				log.Errorf("Application error: %v", err)
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cfgFile, "config", "config.yaml", "Path to configuration source (YAML file or SQLite database; use config-convert for YAML to SQLite)")
	cmd.Flags().StringVar(&cfgBackend, "config-backend", "yaml", "Configuration backend type: 'yaml' or 'sqlite'")
	cmd.Flags().BoolVar(&debug, "debug", false, "Turn on debugging output")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Also write JSON logs to this file, rotated by size")
	return cmd
}
