// Copyright 2026 The Bimsync Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the bimsync CLI command tree.
package commands

import (
	"context"
	"fmt"

	"github.com/baps-project/bimsync/cmd/bimsync/cli"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// Root builds and returns the complete bimsync command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "bimsync",
		Description: `bimsync: sync BIM model data to the BAPS backend.

Extract building elements and schedules from exported model snapshots,
normalize them into canonical records, and upload them for estimation
and AI-assisted pricing.`,
		Subcommands: []*cli.Command{
			loginCommand(),
			registerCommand(),
			logoutCommand(),
			statusCommand(),
			syncCommand(),
			elementsCommand(),
			pricingCommand(),
			schedulesCommand(),
			snapshotCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, args []string) error {
					fmt.Printf("bimsync %s\n", Version)
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Authenticate (saves the session locally for 24 hours)",
				Command:     "bimsync login gc@example.com",
			},
			{
				Description: "Check whether the saved session is still valid",
				Command:     "bimsync status",
			},
			{
				Description: "Upload every extractable element from a model snapshot",
				Command:     "bimsync sync model.bsnp",
			},
			{
				Description: "Upload only records that changed since the last sync",
				Command:     "bimsync sync model.bsnp --changed-only",
			},
			{
				Description: "Ask the backend for an AI pricing suggestion",
				Command:     "bimsync pricing 42",
			},
			{
				Description: "Parse an exported schedule table with the backend AI parser",
				Command:     "bimsync schedules parse door-schedule.json",
			},
		},
	}
}
