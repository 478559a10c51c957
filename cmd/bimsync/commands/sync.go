// Copyright 2026 The Bimsync Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/baps-project/bimsync/cmd/bimsync/cli"
	"github.com/baps-project/bimsync/config"
	"github.com/baps-project/bimsync/extract"
	"github.com/baps-project/bimsync/syncer"
)

func syncCommand() *cli.Command {
	var (
		configPath    string
		selectorsPath string
		only          []string
		changedOnly   bool
		dryRun        bool
		pick          bool
		stateFile     string
	)

	return &cli.Command{
		Name:    "sync",
		Summary: "Extract and upload model elements",
		Description: `Extract building elements from a model file and upload them to the
backend as one batch.

The model file is either a snapshot (.bsnp, see "bimsync snapshot") or
a plain JSON export (.json/.jsonc). Which element groups are extracted
is controlled by the selector definitions: the built-in set (walls,
doors, windows, structural framing), a JSONC file via --selectors, a
comma-separated subset via --only, or the interactive picker via
--pick.

With --changed-only, records whose content matches the previous
successful upload are skipped, using fingerprints kept in the sync
state file.`,
		Usage: "bimsync sync <model-file> [flags]",
		Examples: []cli.Example{
			{
				Description: "Upload everything the default selectors reach",
				Command:     "bimsync sync model.bsnp",
			},
			{
				Description: "Upload walls and doors only",
				Command:     "bimsync sync model.bsnp --only walls,doors",
			},
			{
				Description: "Pick element groups interactively",
				Command:     "bimsync sync model.bsnp --pick",
			},
			{
				Description: "See what would be uploaded without uploading",
				Command:     "bimsync sync model.bsnp --dry-run",
			},
			{
				Description: "Skip records unchanged since the last sync",
				Command:     "bimsync sync model.bsnp --changed-only",
			},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("sync", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to config file")
			flags.StringVar(&selectorsPath, "selectors", "", "path to JSONC selector definitions")
			flags.StringSliceVar(&only, "only", nil, "comma-separated selector names to sync")
			flags.BoolVar(&changedOnly, "changed-only", false, "skip records unchanged since the last successful sync")
			flags.BoolVar(&dryRun, "dry-run", false, "extract and batch but do not upload")
			flags.BoolVar(&pick, "pick", false, "choose element groups interactively")
			flags.StringVar(&stateFile, "state-file", "", "override the sync state file path")
			return flags
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) < 1 {
				return cli.Validation("model file is required\n\nUsage: bimsync sync <model-file> [flags]")
			}
			modelPath := args[0]
			if len(args) > 1 {
				return cli.Validation("unexpected argument: %s", args[1])
			}
			if pick && len(only) > 0 {
				return cli.Validation("--pick and --only are mutually exclusive")
			}

			r, err := newRuntime(configPath)
			if err != nil {
				return err
			}

			doc, err := openDocument(modelPath)
			if err != nil {
				var toolErr *cli.ToolError
				if errors.As(err, &toolErr) {
					return err
				}
				return cli.Internal("%v", err)
			}

			selectors, err := loadSyncSelectors(r.cfg, selectorsPath, only, pick)
			if err != nil {
				return err
			}
			if len(selectors) == 0 {
				fmt.Fprintln(os.Stderr, "Nothing selected.")
				return nil
			}

			progress := func(stage string, done, total int) {
				fmt.Fprintf(os.Stderr, "%s %d/%d\n", stage, done, total)
			}
			orchestrator, err := r.orchestrator(progress)
			if err != nil {
				return err
			}

			opts := syncer.SyncOptions{DryRun: dryRun}
			if changedOnly || stateFile != "" {
				path := stateFile
				if path == "" {
					path = r.cfg.Sync.StateFile
				}
				state, err := syncer.LoadState(path)
				if err != nil {
					return cli.Internal("%v", err)
				}
				opts.State = state
				opts.ChangedOnly = changedOnly
			}

			result, err := orchestrator.Sync(ctx, doc, selectors, opts)
			switch {
			case errors.Is(err, syncer.ErrNotAuthenticated):
				return cli.Auth("not logged in or session expired (run 'bimsync login')")
			case errors.Is(err, syncer.ErrSessionExpired):
				return cli.Auth("the backend rejected the session; it has been cleared (run 'bimsync login')")
			case err != nil:
				return cli.Transient("%v", err)
			}

			if result.DryRun {
				fmt.Fprintf(os.Stderr, "Dry run: %d record(s) would be uploaded, %d skipped as unchanged\n",
					len(result.UploadedIDs), result.Skipped)
				for _, id := range result.UploadedIDs {
					fmt.Println(id)
				}
				return nil
			}

			fmt.Fprintf(os.Stderr, "Uploaded %d record(s)", result.Uploaded)
			if result.Skipped > 0 {
				fmt.Fprintf(os.Stderr, ", skipped %d unchanged", result.Skipped)
			}
			fmt.Fprintln(os.Stderr)
			return nil
		},
	}
}

// loadSyncSelectors resolves the selector set for one sync run from
// the configured definitions and the command's selection flags.
func loadSyncSelectors(cfg *config.Config, selectorsPath string, only []string, pick bool) ([]extract.Selector, error) {
	path := selectorsPath
	if path == "" {
		path = cfg.Extract.SelectorsFile
	}
	selectors, err := config.LoadSelectors(path)
	if err != nil {
		return nil, cli.Validation("%v", err)
	}

	if len(only) > 0 {
		byName := make(map[string]extract.Selector, len(selectors))
		for _, selector := range selectors {
			byName[selector.Name] = selector
		}
		picked := make([]extract.Selector, 0, len(only))
		for _, name := range only {
			selector, ok := byName[strings.TrimSpace(name)]
			if !ok {
				return nil, cli.Validation("unknown selector %q (defined: %s)",
					name, strings.Join(selectorNames(selectors), ", "))
			}
			picked = append(picked, selector)
		}
		return picked, nil
	}

	if pick {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return nil, cli.Validation("--pick needs a terminal (use --only in scripts)")
		}
		picked, err := pickSelectors(selectors)
		if errors.Is(err, errPickerAborted) {
			return nil, cli.Validation("selection aborted")
		}
		if err != nil {
			return nil, cli.Internal("%v", err)
		}
		return picked, nil
	}

	return selectors, nil
}

func selectorNames(selectors []extract.Selector) []string {
	names := make([]string, len(selectors))
	for i, selector := range selectors {
		names[i] = selector.Name
	}
	return names
}
