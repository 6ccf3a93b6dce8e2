package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"

	"github.com/chrissnell/rfxweather/pkg/config"
	"go.uber.org/zap"
)

func main() {
	var (
		yamlFile   = flag.String("yaml", "", "Path to YAML configuration file")
		sqliteFile = flag.String("sqlite", "", "Path to SQLite configuration file")
	)
	flag.Parse()

	if *yamlFile == "" || *sqliteFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -yaml <config.yaml> -sqlite <config.db>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	diffs, err := compareFiles(os.Stdout, *yamlFile, *sqliteFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if diffs > 0 {
		os.Exit(2)
	}
}

// compareFiles loads both configurations and reports every section entry that
// differs. It returns the number of differences.
func compareFiles(w io.Writer, yamlFile, sqliteFile string) (int, error) {
	fmt.Fprintln(w, "Configuration Comparison Test")
	fmt.Fprintln(w, "===========================")

	fmt.Fprintf(w, "Loading YAML configuration: %s\n", yamlFile)
	yamlConfig, err := config.NewYAMLProvider(yamlFile).LoadConfig()
	if err != nil {
		return 0, fmt.Errorf("loading YAML config: %w", err)
	}

	fmt.Fprintf(w, "Loading SQLite configuration: %s\n", sqliteFile)
	sqliteProvider, err := config.NewSQLiteProvider(sqliteFile, zap.NewNop().Sugar())
	if err != nil {
		return 0, fmt.Errorf("creating SQLite provider: %w", err)
	}
	defer sqliteProvider.Close()

	sqliteConfig, err := sqliteProvider.LoadConfig()
	if err != nil {
		return 0, fmt.Errorf("loading SQLite config: %w", err)
	}

	fmt.Fprintln(w, "\nComparison Results:")
	fmt.Fprintln(w, "==================")

	diffs := 0
	diffs += compareSection(w, "Calibrations",
		byName(yamlConfig.Calibrations, func(c config.CalibrationData) string { return c.Name }),
		byName(sqliteConfig.Calibrations, func(c config.CalibrationData) string { return c.Name }))
	diffs += compareSection(w, "Sources",
		byName(yamlConfig.Sources, func(s config.SourceData) string { return s.Name }),
		byName(sqliteConfig.Sources, func(s config.SourceData) string { return s.Name }))
	diffs += compareSection(w, "Sinks",
		byName(yamlConfig.Sinks, func(s config.SinkData) string { return s.Name }),
		byName(sqliteConfig.Sinks, func(s config.SinkData) string { return s.Name }))
	diffs += compareSection(w, "Controllers",
		byName(yamlConfig.Controllers, func(c config.ControllerData) string { return c.Type }),
		byName(sqliteConfig.Controllers, func(c config.ControllerData) string { return c.Type }))

	if diffs == 0 {
		fmt.Fprintln(w, "\n✓ Configurations match")
	} else {
		fmt.Fprintf(w, "\n✗ %d difference(s)\n", diffs)
	}
	return diffs, nil
}

func byName[T any](items []T, key func(T) string) map[string]T {
	m := make(map[string]T, len(items))
	for _, it := range items {
		m[key(it)] = it
	}
	return m
}

func compareSection[T any](w io.Writer, title string, yamlItems, sqliteItems map[string]T) int {
	fmt.Fprintf(w, "\n%s - YAML: %d, SQLite: %d\n", title, len(yamlItems), len(sqliteItems))

	names := make([]string, 0, len(yamlItems)+len(sqliteItems))
	for name := range yamlItems {
		names = append(names, name)
	}
	for name := range sqliteItems {
		if _, ok := yamlItems[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	diffs := 0
	for _, name := range names {
		y, inYAML := yamlItems[name]
		s, inSQLite := sqliteItems[name]
		switch {
		case !inSQLite:
			fmt.Fprintf(w, "✗ %s missing from SQLite\n", name)
			diffs++
		case !inYAML:
			fmt.Fprintf(w, "✗ %s missing from YAML\n", name)
			diffs++
		case !reflect.DeepEqual(y, s):
			fmt.Fprintf(w, "✗ %s differs\n    YAML:   %+v\n    SQLite: %+v\n", name, y, s)
			diffs++
		default:
			fmt.Fprintf(w, "✓ %s matches\n", name)
		}
	}
	return diffs
}
