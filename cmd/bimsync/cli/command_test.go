// Copyright 2026 The Bimsync Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestExecuteDispatch(t *testing.T) {
	t.Run("runs matching subcommand", func(t *testing.T) {
		ran := false
		root := &Command{
			Name: "bimsync",
			Subcommands: []*Command{
				{Name: "sync", Run: func(ctx context.Context, args []string) error {
					ran = true
					return nil
				}},
			},
		}
		if err := root.Execute(context.Background(), []string{"sync"}); err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if !ran {
			t.Error("subcommand did not run")
		}
	})

	t.Run("passes remaining args after flags", func(t *testing.T) {
		var gotArgs []string
		var verbose bool
		command := &Command{
			Name: "parse",
			Flags: func() *pflag.FlagSet {
				flags := pflag.NewFlagSet("parse", pflag.ContinueOnError)
				flags.BoolVar(&verbose, "verbose", false, "verbose output")
				return flags
			},
			Run: func(ctx context.Context, args []string) error {
				gotArgs = args
				return nil
			},
		}
		if err := command.Execute(context.Background(), []string{"--verbose", "file.json"}); err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if !verbose || len(gotArgs) != 1 || gotArgs[0] != "file.json" {
			t.Errorf("verbose=%v args=%v", verbose, gotArgs)
		}
	})

	t.Run("unknown subcommand suggests closest", func(t *testing.T) {
		root := &Command{
			Name: "bimsync",
			Subcommands: []*Command{
				{Name: "status", Run: func(ctx context.Context, args []string) error { return nil }},
			},
		}
		err := root.Execute(context.Background(), []string{"stats"})
		if err == nil || !strings.Contains(err.Error(), `did you mean "status"`) {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("unknown flag suggests closest", func(t *testing.T) {
		command := &Command{
			Name: "sync",
			Flags: func() *pflag.FlagSet {
				flags := pflag.NewFlagSet("sync", pflag.ContinueOnError)
				flags.Bool("dry-run", false, "skip upload")
				return flags
			},
			Run: func(ctx context.Context, args []string) error { return nil },
		}
		err := command.Execute(context.Background(), []string{"--dryrun"})
		if err == nil || !strings.Contains(err.Error(), "--dry-run") {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("subcommand required", func(t *testing.T) {
		root := &Command{
			Name:        "bimsync",
			Subcommands: []*Command{{Name: "sync"}},
		}
		if err := root.Execute(context.Background(), nil); err == nil {
			t.Fatal("expected subcommand-required error")
		}
	})
}

func TestPrintHelp(t *testing.T) {
	root := &Command{
		Name:    "bimsync",
		Summary: "Sync BIM models to the backend",
		Subcommands: []*Command{
			{Name: "login", Summary: "Authenticate with the backend"},
			{Name: "sync", Summary: "Extract and upload elements"},
		},
		Examples: []Example{
			{Description: "Log in", Command: "bimsync login gc@example.com"},
		},
	}

	var help strings.Builder
	root.PrintHelp(&help)
	output := help.String()

	for _, want := range []string{"Commands:", "login", "Authenticate", "Examples:", "# Log in"} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q:\n%s", want, output)
		}
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "sync", 4},
		{"sync", "sync", 0},
		{"stats", "status", 1},
		{"elemnts", "elements", 1},
		{"pricing", "parse", 5},
	}
	for _, tt := range tests {
		if got := levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestToolErrorUnwrap(t *testing.T) {
	err := Internal("reading %s: %w", "file", &ExitError{Code: 3})
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 3 {
		t.Errorf("unwrap failed: %v", err)
	}
	var toolErr *ToolError
	if !errors.As(err, &toolErr) || toolErr.Category != CategoryInternal {
		t.Errorf("category lost: %v", err)
	}
}
