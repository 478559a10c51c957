// Copyright 2026 The Bimsync Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/baps-project/bimsync/cmd/bimsync/cli"
	"github.com/baps-project/bimsync/syncer"
)

func loginCommand() *cli.Command {
	var (
		configPath   string
		passwordFile string
	)

	return &cli.Command{
		Name:    "login",
		Summary: "Authenticate with the backend",
		Description: `Log in to the BAPS backend and save the session locally.

After login, commands like "bimsync sync" use the saved session
transparently for 24 hours. The session file is stored at
~/.config/bimsync/session.json (or $BIMSYNC_SESSION_FILE if set) with
mode 0600 since it contains the access token.

The password can be provided via --password-file (a path to a file
containing the password) or prompted interactively if --password-file
is "-" or omitted.`,
		Usage: "bimsync login <email> [flags]",
		Examples: []cli.Example{
			{
				Description: "Log in interactively (prompts for password)",
				Command:     "bimsync login gc@example.com",
			},
			{
				Description: "Log in with password from file",
				Command:     "bimsync login gc@example.com --password-file /path/to/password",
			},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("login", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to config file")
			flags.StringVar(&passwordFile, "password-file", "", "path to file containing password, or - to prompt (default: prompt)")
			return flags
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) < 1 {
				return cli.Validation("email is required\n\nUsage: bimsync login <email> [flags]")
			}
			email := args[0]
			if len(args) > 1 {
				return cli.Validation("unexpected argument: %s", args[1])
			}

			password, err := readPassword(passwordFile, "Password: ")
			if err != nil {
				return err
			}

			r, err := newRuntime(configPath)
			if err != nil {
				return err
			}
			orchestrator, err := r.orchestrator(nil)
			if err != nil {
				return err
			}

			sess, err := orchestrator.Login(ctx, email, password)
			if errors.Is(err, syncer.ErrRoleNotAllowed) {
				return cli.Auth("%v", err)
			}
			if err != nil {
				return cli.Auth("login failed: %v", err)
			}

			fmt.Fprintf(os.Stderr, "Logged in as %s (%s)\n", sess.User.Email, sess.User.Role)
			fmt.Fprintf(os.Stderr, "Session saved to %s\n", r.cfg.SessionPath())
			return nil
		},
	}
}
