// Copyright 2026 The Bimsync Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/baps-project/bimsync/api"
	"github.com/baps-project/bimsync/cmd/bimsync/cli"
)

func elementsCommand() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:    "elements",
		Summary: "List elements synced to the backend",
		Description: `List the elements the backend currently holds for this account, with
their backend IDs. The IDs are what "bimsync pricing" addresses.`,
		Usage: "bimsync elements [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("elements", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to config file")
			return flags
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
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

			elements, err := client.Elements(ctx, token)
			if api.IsAuthentication(err) {
				return cli.Auth("the backend rejected the session (run 'bimsync login')")
			}
			if err != nil {
				return cli.Transient("%v", err)
			}

			if len(elements) == 0 {
				fmt.Fprintln(os.Stderr, "No elements synced yet.")
				return nil
			}

			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tQUANTITY\tUNIT")
			for _, element := range elements {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%g\t%s\n",
					element.ID, element.Name, element.Category, element.Quantity, element.Unit)
			}
			return tw.Flush()
		},
	}
}
