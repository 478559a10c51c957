// Copyright 2026 The Bimsync Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/baps-project/bimsync/cmd/bimsync/cli"
	"github.com/baps-project/bimsync/snapshot"
)

func snapshotCommand() *cli.Command {
	return &cli.Command{
		Name:    "snapshot",
		Summary: "Inspect and create model snapshots",
		Description: `Work with model snapshot files (.bsnp): compact, compressed exports
of a host model that sync and extraction run against.

"import" converts a plain JSON model export (the format host plugins
dump) into a snapshot. "info" reports what a snapshot contains.`,
		Subcommands: []*cli.Command{
			snapshotInfoCommand(),
			snapshotImportCommand(),
		},
	}
}

func snapshotInfoCommand() *cli.Command {
	return &cli.Command{
		Name:    "info",
		Summary: "Describe a snapshot file",
		Usage:   "bimsync snapshot info <file.bsnp>",
		Run: func(ctx context.Context, args []string) error {
			if len(args) < 1 {
				return cli.Validation("snapshot file is required\n\nUsage: bimsync snapshot info <file.bsnp>")
			}
			path := args[0]
			if len(args) > 1 {
				return cli.Validation("unexpected argument: %s", args[1])
			}

			snap, err := snapshot.Open(path)
			if err != nil {
				return cli.Validation("%v", err)
			}

			fmt.Printf("Model: %s\n", snap.Model())
			fmt.Printf("Captured: %s\n", snap.CreatedAt().Local().Format(time.RFC1123))
			fmt.Printf("Compression: %s\n", snap.Compression())

			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(tw, "KIND\tRECORDS")
			total := 0
			for _, kind := range snap.Kinds() {
				count := snap.Count(kind)
				total += count
				fmt.Fprintf(tw, "%s\t%d\n", kind, count)
			}
			fmt.Fprintf(tw, "total\t%d\n", total)
			return tw.Flush()
		},
	}
}

func snapshotImportCommand() *cli.Command {
	var (
		configPath  string
		outPath     string
		compression string
	)

	return &cli.Command{
		Name:    "import",
		Summary: "Convert a JSON model export to a snapshot",
		Description: `Read a plain JSON model export and write it as a snapshot file. Every
property present in the export is frozen.

The output path defaults to the input path with a .bsnp extension; the
compression codec defaults to the configured one.`,
		Usage: "bimsync snapshot import <model.json> [flags]",
		Examples: []cli.Example{
			{
				Description: "Import with the configured compression",
				Command:     "bimsync snapshot import model.json",
			},
			{
				Description: "Import without compression for debugging",
				Command:     "bimsync snapshot import model.json --compression none",
			},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("import", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to config file")
			flags.StringVarP(&outPath, "out", "o", "", "output snapshot path (default: input with .bsnp extension)")
			flags.StringVar(&compression, "compression", "", "payload compression: none, lz4, zstd (default: configured)")
			return flags
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) < 1 {
				return cli.Validation("model file is required\n\nUsage: bimsync snapshot import <model.json> [flags]")
			}
			modelPath := args[0]
			if len(args) > 1 {
				return cli.Validation("unexpected argument: %s", args[1])
			}

			r, err := newRuntime(configPath)
			if err != nil {
				return err
			}

			codecName := compression
			if codecName == "" {
				codecName = r.cfg.Snapshot.Compression
			}
			tag, err := snapshot.ParseCompressionTag(codecName)
			if err != nil {
				return cli.Validation("%v", err)
			}

			doc, err := loadModelJSON(modelPath)
			if err != nil {
				return cli.Validation("%v", err)
			}

			model := doc.model
			if model == "" {
				model = strings.TrimSuffix(filepath.Base(modelPath), filepath.Ext(modelPath))
			}

			snap, err := snapshot.Capture(model, doc, modelSelectors(doc), time.Now().UTC())
			if err != nil {
				return cli.Internal("%v", err)
			}

			target := outPath
			if target == "" {
				target = strings.TrimSuffix(modelPath, filepath.Ext(modelPath)) + ".bsnp"
			}
			if err := snapshot.Write(target, snap, tag); err != nil {
				return cli.Internal("%v", err)
			}

			total := 0
			for _, kind := range snap.Kinds() {
				total += snap.Count(kind)
			}
			fmt.Fprintf(os.Stderr, "Wrote %s: %d record(s) in %d kind(s), %s compression\n",
				target, total, len(snap.Kinds()), tag)
			return nil
		},
	}
}
