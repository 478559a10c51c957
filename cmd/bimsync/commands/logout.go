// Copyright 2026 The Bimsync Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/baps-project/bimsync/cmd/bimsync/cli"
)

func logoutCommand() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:    "logout",
		Summary: "Discard the saved session",
		Description: `Remove the local session file. Idempotent: logging out twice is not
an error. The backend keeps no session state to invalidate.`,
		Usage: "bimsync logout [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("logout", pflag.ContinueOnError)
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
			if err := r.store().Clear(); err != nil {
				return cli.Internal("clearing session: %v", err)
			}
			fmt.Fprintln(os.Stderr, "Logged out")
			return nil
		},
	}
}
