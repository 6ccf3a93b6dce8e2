package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/chrissnell/rfxweather/internal/log"
	"github.com/chrissnell/rfxweather/pkg/config"
	"github.com/chrissnell/rfxweather/pkg/rfx"
	"github.com/spf13/cobra"
)

const version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "rfxweather",
		Short: "Decode RFXCOM weather sensor frames",
		Long: `rfxweather decodes frames from RFXCOM-style 433 MHz receivers into
temperature, humidity and rainfall readings. It can decode frames given on the
command line, verify temperature/humidity field layouts against reference
packets, and run as a service that reads frames from MQTT and publishes the
readings.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newDecodeCmd(),
		newCalibrateCmd(),
		newFamiliesCmd(),
		newServeCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "rfxweather %s\n", version)
		},
	}
}

// openProvider opens a configuration source by backend name.
func openProvider(cfgFile, cfgBackend string) (config.ConfigProvider, error) {
	filename, _ := filepath.Abs(cfgFile)

	switch cfgBackend {
	case "yaml":
		return config.NewYAMLProvider(filename), nil
	case "sqlite":
		provider, err := config.NewSQLiteProvider(filename, log.GetSugaredLogger())
		if err != nil {
			return nil, fmt.Errorf("error creating SQLite provider: %w", err)
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("unsupported configuration backend: %s. Use 'yaml' or 'sqlite'", cfgBackend)
	}
}

// loadDecoder builds a decoder with the enabled calibrations from cfgFile.
// An empty path yields a decoder with only the fixed-layout families.
func loadDecoder(cfgFile string) (*rfx.Decoder, error) {
	if cfgFile == "" {
		return rfx.NewDecoder(), nil
	}
	calibrations, err := config.NewYAMLProvider(cfgFile).GetCalibrations()
	if err != nil {
		return nil, err
	}
	opts, err := config.DecoderOptions(calibrations)
	if err != nil {
		return nil, err
	}
	return rfx.NewDecoder(opts...), nil
}
