// Package main provides topicctl, the administrative CLI for the topic store.
//
//	topicctl [-config topicd.yaml] migrate up|down|status
//	topicctl config
//	topicctl version
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/kimhsiao/topicflow/backend/internal/config"
	"github.com/kimhsiao/topicflow/backend/internal/db"
)

// Version is set at build time
var Version = "0.1.0"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "topicctl: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("topicctl", flag.ContinueOnError)
	fs.SetOutput(out)
	configPath := fs.String("config", "", "path to topicd.yaml")
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch cmd := fs.Arg(0); cmd {
	case "version":
		fmt.Fprintf(out, "topicctl v%s\n", Version)
		return nil
	case "config":
		fmt.Fprint(out, config.DefaultYAML())
		return nil
	case "migrate":
		cfg, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		return migrate(cfg.Database.DSN, fs.Arg(1), out)
	case "":
		return fmt.Errorf("missing command (migrate, config, version)")
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func migrate(dsn, direction string, out io.Writer) error {
	database, err := db.Open(dsn)
	if err != nil {
		return err
	}
	defer database.Close()

	m := db.NewEmbeddedMigrator(database.DB)
	switch direction {
	case "up":
		if err := m.Up(); err != nil {
			return err
		}
	case "down":
		if err := m.Down(); err != nil {
			return err
		}
	case "status", "":
		if err := m.Initialize(); err != nil {
			return err
		}
		applied, err := m.GetAppliedMigrations()
		if err != nil {
			return err
		}
		for _, mig := range applied {
			fmt.Fprintf(out, "V%d %s applied %s\n", mig.Version, mig.Description, mig.AppliedAt.UTC().Format("2006-01-02 15:04:05"))
		}
	default:
		return fmt.Errorf("unknown migrate direction %q (up, down, status)", direction)
	}

	version, err := m.CurrentVersion()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "schema version %d\n", version)
	return nil
}
