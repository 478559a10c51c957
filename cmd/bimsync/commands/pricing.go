// Copyright 2026 The Bimsync Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/pflag"

	"github.com/baps-project/bimsync/api"
	"github.com/baps-project/bimsync/cmd/bimsync/cli"
)

var (
	pricingPriceStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	pricingFaintStyle = lipgloss.NewStyle().Faint(true)
)

func pricingCommand() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:    "pricing",
		Summary: "Request an AI pricing suggestion",
		Description: `Ask the backend's AI estimator for a price suggestion on one synced
element. The element is addressed by its backend ID — list them with
"bimsync elements".`,
		Usage: "bimsync pricing <element-id> [flags]",
		Examples: []cli.Example{
			{
				Description: "Suggest a price for element 42",
				Command:     "bimsync pricing 42",
			},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("pricing", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to config file")
			return flags
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) < 1 {
				return cli.Validation("element ID is required\n\nUsage: bimsync pricing <element-id> [flags]")
			}
			elementID := args[0]
			if len(args) > 1 {
				return cli.Validation("unexpected argument: %s", args[1])
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

			suggestion, err := client.SuggestPricing(ctx, token, elementID)
			if api.IsAuthentication(err) {
				return cli.Auth("the backend rejected the session (run 'bimsync login')")
			}
			if err != nil {
				return cli.Transient("%v", err)
			}

			fmt.Printf("Suggested price: %s\n",
				pricingPriceStyle.Render(fmt.Sprintf("%.2f", suggestion.SuggestedPrice)))
			fmt.Printf("Confidence: %.0f%%\n", suggestion.Confidence*100)
			if suggestion.Reasoning != "" {
				fmt.Println(pricingFaintStyle.Render(suggestion.Reasoning))
			}
			return nil
		},
	}
}
