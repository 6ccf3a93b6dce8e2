package main

import (
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/chrissnell/rfxweather/pkg/config"
	"github.com/chrissnell/rfxweather/pkg/migrate"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // SQLite driver
)

func main() {
	var (
		dbPath        = flag.String("db", "", "Path to the SQLite configuration database")
		command       = flag.String("command", "status", "Migration command: up, down, to, version, status")
		targetVersion = flag.Int("target", -1, "Target version for down/to commands")
		helpFlag      = flag.Bool("help", false, "Show help")
	)

	flag.Parse()

	if *helpFlag {
		showHelp(os.Stdout)
		return
	}

	if *dbPath == "" {
		fmt.Fprintf(os.Stderr, "Error: -db flag is required\n")
		showHelp(os.Stderr)
		os.Exit(1)
	}

	if err := run(os.Stdout, *dbPath, *command, *targetVersion); err != nil {
		fmt.Fprintf(os.Stderr, "Migration command failed: %v\n", err)
		os.Exit(1)
	}
}

func run(w io.Writer, dbPath, command string, target int) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	migrator := config.NewSchemaMigrator(db, zap.NewNop().Sugar())

	switch command {
	case "up":
		err = migrator.MigrateUp()
	case "down", "to":
		if target < 0 {
			return fmt.Errorf("-target is required for the %s command", command)
		}
		if command == "down" {
			err = migrator.MigrateDown(target)
		} else {
			err = migrator.MigrateTo(target)
		}
	case "version":
		version, err := migrator.GetCurrentVersion()
		if err != nil {
			return fmt.Errorf("failed to get current version: %w", err)
		}
		fmt.Fprintf(w, "Current version: %d\n", version)
		return nil
	case "status":
		return showStatus(w, migrator)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "Migration completed successfully")
	return nil
}

func showStatus(w io.Writer, migrator *migrate.Migrator) error {
	currentVersion, err := migrator.GetCurrentVersion()
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	pending, err := migrator.GetPendingMigrations()
	if err != nil {
		return fmt.Errorf("failed to get pending migrations: %w", err)
	}

	fmt.Fprintf(w, "Current version: %d\n", currentVersion)
	fmt.Fprintf(w, "Pending migrations: %d\n", len(pending))

	if len(pending) > 0 {
		fmt.Fprintln(w, "\nPending migrations:")
		for _, migration := range pending {
			fmt.Fprintf(w, "  %d: %s\n", migration.Version, migration.Name)
		}
	}

	return nil
}

func showHelp(w io.Writer) {
	fmt.Fprintln(w, "Configuration Database Migration Tool")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  migrate -db config.db [-command up|down|to|version|status] [-target N]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  up                 Apply all pending migrations")
	fmt.Fprintln(w, "  down               Roll back to target version")
	fmt.Fprintln(w, "  to                 Migrate to specific version (up or down)")
	fmt.Fprintln(w, "  version            Show current migration version")
	fmt.Fprintln(w, "  status             Show migration status (default)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  migrate -db config.db -command up")
	fmt.Fprintln(w, "  migrate -db config.db -command down -target 0")
}
