// Copyright 2026 The Bimsync Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/baps-project/bimsync/api"
	"github.com/baps-project/bimsync/cmd/bimsync/cli"
	"github.com/baps-project/bimsync/syncer"
)

func registerCommand() *cli.Command {
	var (
		configPath   string
		passwordFile string
		role         string
	)

	return &cli.Command{
		Name:    "register",
		Summary: "Create a backend account",
		Description: `Create a new account on the BAPS backend and save the session it
issues.

The role must be one of the contractor roles: GENERAL_CONTRACTOR,
GC_USER, or GC_ADMIN. Other roles are rejected locally before any
request is made.`,
		Usage: "bimsync register <email> [flags]",
		Examples: []cli.Example{
			{
				Description: "Register a standard contractor user",
				Command:     "bimsync register gc@example.com",
			},
			{
				Description: "Register an admin account",
				Command:     "bimsync register admin@example.com --role GC_ADMIN",
			},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("register", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to config file")
			flags.StringVar(&passwordFile, "password-file", "", "path to file containing password, or - to prompt (default: prompt)")
			flags.StringVar(&role, "role", api.RoleGCUser, "account role (GENERAL_CONTRACTOR, GC_USER, GC_ADMIN)")
			return flags
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) < 1 {
				return cli.Validation("email is required\n\nUsage: bimsync register <email> [flags]")
			}
			email := args[0]
			if len(args) > 1 {
				return cli.Validation("unexpected argument: %s", args[1])
			}
			if !api.AllowedRole(role) {
				return cli.Validation("role %q is not permitted (use GENERAL_CONTRACTOR, GC_USER, or GC_ADMIN)", role)
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

			sess, err := orchestrator.Register(ctx, email, password, role)
			if errors.Is(err, syncer.ErrRoleNotAllowed) {
				return cli.Validation("%v", err)
			}
			if err != nil {
				return cli.Auth("registration failed: %v", err)
			}

			fmt.Fprintf(os.Stderr, "Registered %s (%s)\n", sess.User.Email, sess.User.Role)
			fmt.Fprintf(os.Stderr, "Session saved to %s\n", r.cfg.SessionPath())
			return nil
		},
	}
}
