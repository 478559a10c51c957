// Copyright 2026 The Bimsync Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"github.com/tidwall/jsonc"

	"github.com/baps-project/bimsync/api"
	"github.com/baps-project/bimsync/cmd/bimsync/cli"
	"github.com/baps-project/bimsync/extract"
)

func schedulesCommand() *cli.Command {
	return &cli.Command{
		Name:    "schedules",
		Summary: "Work with exported schedule tables",
		Description: `Operate on exported schedule tables: tabular data dumped from the
host application as JSON ({schedule_name, headers, data}).

"parse" sends a table to the backend's AI parser, which recognizes
elements from free-form schedule content. "records" converts a table
locally into canonical records (one per row) without touching the
backend.`,
		Subcommands: []*cli.Command{
			schedulesParseCommand(),
			schedulesRecordsCommand(),
		},
	}
}

func schedulesParseCommand() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:    "parse",
		Summary: "Parse a schedule table with the backend AI",
		Usage:   "bimsync schedules parse <table-file> [flags]",
		Examples: []cli.Example{
			{
				Description: "Parse an exported door schedule",
				Command:     "bimsync schedules parse door-schedule.json",
			},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("parse", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to config file")
			return flags
		},
		Run: func(ctx context.Context, args []string) error {
			table, err := loadScheduleTable(args)
			if err != nil {
				return err
			}

			r, err := newRuntime(configPath)
			if err != nil {
				return err
			}
			token, err := r.token()
			if err != nil {
				return err
			}
			client, err := r.client()
			if err != nil {
				return err
			}

			elements, err := client.ParseSchedule(ctx, token, *table)
			if api.IsAuthentication(err) {
				return cli.Auth("the backend rejected the session (run 'bimsync login')")
			}
			if err != nil {
				return cli.Transient("%v", err)
			}

			fmt.Fprintf(os.Stderr, "Recognized %d element(s) from %q\n", len(elements), table.Name)
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(elements)
		},
	}
}

func schedulesRecordsCommand() *cli.Command {
	return &cli.Command{
		Name:    "records",
		Summary: "Convert a schedule table to canonical records locally",
		Usage:   "bimsync schedules records <table-file>",
		Run: func(ctx context.Context, args []string) error {
			table, err := loadScheduleTable(args)
			if err != nil {
				return err
			}

			records := table.Records()
			fmt.Fprintf(os.Stderr, "Converted %d row(s) from %q\n", len(records), table.Name)
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(records)
		},
	}
}

// loadScheduleTable reads the table file named by the command args.
func loadScheduleTable(args []string) (*extract.ScheduleTable, error) {
	if len(args) < 1 {
		return nil, cli.Validation("table file is required")
	}
	path := args[0]
	if len(args) > 1 {
		return nil, cli.Validation("unexpected argument: %s", args[1])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cli.Internal("reading %s: %v", path, err)
	}

	var table extract.ScheduleTable
	if err := json.Unmarshal(jsonc.ToJSON(data), &table); err != nil {
		return nil, cli.Validation("parsing %s: %v", path, err)
	}
	if table.Name == "" {
		return nil, cli.Validation("%s: missing schedule_name", path)
	}
	return &table, nil
}
