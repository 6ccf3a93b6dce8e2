package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/chrissnell/rfxweather/pkg/config"
	"go.uber.org/zap"
)

func main() {
	var (
		yamlFile   = flag.String("yaml", "", "Path to YAML configuration file (required)")
		sqliteFile = flag.String("sqlite", "", "Path to SQLite database file (required)")
		force      = flag.Bool("force", false, "Overwrite existing SQLite database")
		dryRun     = flag.Bool("dry-run", false, "Show what would be done without executing")
	)
	flag.Parse()

	if *yamlFile == "" || *sqliteFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -yaml <config.yaml> -sqlite <config.db>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := convert(os.Stdout, *yamlFile, *sqliteFile, *force, *dryRun); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func convert(w io.Writer, yamlFile, sqliteFile string, force, dryRun bool) error {
	if _, err := os.Stat(yamlFile); os.IsNotExist(err) {
		return fmt.Errorf("YAML file does not exist: %s", yamlFile)
	}

	if _, err := os.Stat(sqliteFile); err == nil && !force {
		return fmt.Errorf("SQLite file already exists: %s (use -force to overwrite or choose a different filename)", sqliteFile)
	}

	fmt.Fprintf(w, "Converting YAML configuration to SQLite...\n")
	fmt.Fprintf(w, "  Source: %s\n", yamlFile)
	fmt.Fprintf(w, "  Target: %s\n", sqliteFile)

	if dryRun {
		fmt.Fprintln(w, "DRY RUN - No changes will be made")
	}

	fmt.Fprintf(w, "Loading YAML configuration...\n")
	configData, err := config.NewYAMLProvider(yamlFile).LoadConfig()
	if err != nil {
		return fmt.Errorf("loading YAML configuration: %w", err)
	}
	if err := configData.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	fmt.Fprintf(w, "  Loaded %d calibrations, %d sources, %d sinks, %d controllers\n",
		len(configData.Calibrations), len(configData.Sources), len(configData.Sinks), len(configData.Controllers))

	if dryRun {
		printConfigSummary(w, configData)
		fmt.Fprintln(w, "DRY RUN complete - no database created")
		return nil
	}

	if force {
		if err := os.Remove(sqliteFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing existing SQLite file: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(sqliteFile), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Opening the provider applies the embedded schema migrations.
	fmt.Fprintf(w, "Creating SQLite database...\n")
	provider, err := config.NewSQLiteProvider(sqliteFile, zap.NewNop().Sugar())
	if err != nil {
		return fmt.Errorf("creating SQLite database: %w", err)
	}
	defer provider.Close()

	fmt.Fprintf(w, "Loading configuration into SQLite database...\n")
	if err := provider.SaveConfig(configData); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Fprintf(w, "Conversion completed successfully!\n")
	fmt.Fprintf(w, "You can now use the SQLite backend with: rfxweather serve --config-backend sqlite --config %s\n", sqliteFile)
	return nil
}

func printConfigSummary(w io.Writer, configData *config.ConfigData) {
	fmt.Fprintln(w, "\nConfiguration Summary:")
	fmt.Fprintf(w, "Calibrations (%d):\n", len(configData.Calibrations))
	for _, c := range configData.Calibrations {
		state := "disabled"
		if c.Enabled {
			state = "enabled"
		}
		fmt.Fprintf(w, "  - %s (packet type 0x%02X, %s, %d references)\n", c.Name, c.PacketType, state, len(c.References))
	}

	fmt.Fprintf(w, "\nSources (%d):\n", len(configData.Sources))
	for _, s := range configData.Sources {
		fmt.Fprintf(w, "  - %s (%s)\n", s.Name, s.Type)
	}

	fmt.Fprintf(w, "\nSinks (%d):\n", len(configData.Sinks))
	for _, s := range configData.Sinks {
		fmt.Fprintf(w, "  - %s (%s)\n", s.Name, s.Type)
	}

	fmt.Fprintf(w, "\nControllers (%d):\n", len(configData.Controllers))
	for _, c := range configData.Controllers {
		fmt.Fprintf(w, "  - %s\n", c.Type)
	}
}
