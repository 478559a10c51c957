// Copyright 2026 The Bimsync Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/baps-project/bimsync/cmd/bimsync/cli"
)

// readPassword reads a password for login/register. If passwordFile is
// empty or "-", prompts interactively on the terminal with echo
// disabled. Otherwise reads the file, stripping trailing newlines
// (common with echo/printf pipelines).
func readPassword(passwordFile, prompt string) (string, error) {
	if passwordFile != "" && passwordFile != "-" {
		data, err := os.ReadFile(passwordFile)
		if err != nil {
			return "", cli.Internal("reading %s: %v", passwordFile, err)
		}
		for len(data) > 0 && (data[len(data)-1] == '\n' || data[len(data)-1] == '\r') {
			data = data[:len(data)-1]
		}
		if len(data) == 0 {
			return "", cli.Validation("file %s is empty (after stripping trailing newlines)", passwordFile)
		}
		return string(data), nil
	}

	stdinFd := int(os.Stdin.Fd())
	if !term.IsTerminal(stdinFd) {
		return "", cli.Validation("no terminal available for interactive password prompt (use --password-file)")
	}

	fmt.Fprint(os.Stderr, prompt)
	passwordBytes, err := term.ReadPassword(stdinFd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", cli.Internal("reading password: %v", err)
	}
	if len(passwordBytes) == 0 {
		return "", cli.Validation("empty password")
	}
	return string(passwordBytes), nil
}
