// Copyright 2026 The Bimsync Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/pflag"

	"github.com/baps-project/bimsync/cmd/bimsync/cli"
)

var (
	statusLabelStyle   = lipgloss.NewStyle().Bold(true)
	statusOKStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	statusExpiredStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	statusFaintStyle   = lipgloss.NewStyle().Faint(true)
)

func statusCommand() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:    "status",
		Summary: "Show session and backend status",
		Description: `Report whether a session is saved, who it belongs to, and how long it
remains valid. Sessions expire 24 hours after issue.

Exits 0 when a valid session exists, 1 otherwise, so scripts can gate
on "bimsync status" before running a sync.`,
		Usage: "bimsync status [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("status", pflag.ContinueOnError)
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

			store := r.store()
			sess, err := store.Load()
			if err != nil {
				return cli.Internal("loading session: %v", err)
			}

			fmt.Printf("%s %s\n", statusLabelStyle.Render("Backend:"), r.cfg.Backend.BaseURL)
			fmt.Printf("%s %s\n", statusLabelStyle.Render("Session file:"), r.cfg.SessionPath())

			if sess == nil {
				fmt.Printf("%s %s\n",
					statusLabelStyle.Render("Session:"),
					statusExpiredStyle.Render("not logged in"))
				return &cli.ExitError{Code: 1}
			}

			fmt.Printf("%s %s (%s)\n",
				statusLabelStyle.Render("Account:"), sess.User.Email, sess.User.Role)
			fmt.Printf("%s %s\n",
				statusLabelStyle.Render("Issued:"),
				statusFaintStyle.Render(sess.IssuedAt.Local().Format(time.RFC1123)))

			remaining := store.Remaining(sess)
			if store.Valid(sess) {
				fmt.Printf("%s %s\n",
					statusLabelStyle.Render("Session:"),
					statusOKStyle.Render(fmt.Sprintf("valid for %s", formatDuration(remaining))))
				return nil
			}

			fmt.Printf("%s %s\n",
				statusLabelStyle.Render("Session:"),
				statusExpiredStyle.Render(fmt.Sprintf("expired %s ago", formatDuration(-remaining))))
			return &cli.ExitError{Code: 1}
		},
	}
}

// formatDuration renders a duration as "17h32m" — seconds add noise at
// the scale of a 24-hour session.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	if hours == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh%02dm", hours, minutes)
}
