// Copyright 2026 The Bimsync Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command framework for the bimsync binary:
// a small command tree over pflag flag sets, help rendering,
// typo suggestions, categorized command errors, and the shared command
// logger.
package cli
