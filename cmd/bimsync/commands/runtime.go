// Copyright 2026 The Bimsync Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"log/slog"
	"net/http"

	"github.com/baps-project/bimsync/api"
	"github.com/baps-project/bimsync/cmd/bimsync/cli"
	"github.com/baps-project/bimsync/config"
	"github.com/baps-project/bimsync/session"
	"github.com/baps-project/bimsync/syncer"
)

// runtime bundles the configuration-derived dependencies a command
// needs. Built per invocation; commands are short-lived.
type runtime struct {
	cfg    *config.Config
	logger *slog.Logger
}

// newRuntime loads configuration (from the --config path when given,
// else BIMSYNC_CONFIG or defaults) and builds the command logger.
func newRuntime(configPath string) (*runtime, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, cli.Validation("loading configuration: %v", err)
	}

	return &runtime{cfg: cfg, logger: cli.NewCommandLogger()}, nil
}

func (r *runtime) store() *session.Store {
	return session.NewStore(r.cfg.SessionPath(), nil)
}

func (r *runtime) client() (*api.Client, error) {
	timeout, err := r.cfg.RequestTimeout()
	if err != nil {
		return nil, cli.Validation("%v", err)
	}
	client, err := api.NewClient(api.ClientConfig{
		BaseURL:    r.cfg.Backend.BaseURL,
		HTTPClient: &http.Client{Timeout: timeout},
		Logger:     r.logger,
	})
	if err != nil {
		return nil, cli.Validation("%v", err)
	}
	return client, nil
}

func (r *runtime) orchestrator(progress syncer.ProgressFunc) (*syncer.Orchestrator, error) {
	client, err := r.client()
	if err != nil {
		return nil, err
	}
	return syncer.New(syncer.Config{
		Store:    r.store(),
		Client:   client,
		Logger:   r.logger,
		Progress: progress,
	}), nil
}

// token returns the saved session token, or a categorized auth error
// telling the user to log in.
func (r *runtime) token() (string, error) {
	store := r.store()
	sess, err := store.Load()
	if err != nil {
		return "", cli.Internal("loading session: %v", err)
	}
	if !store.Valid(sess) {
		return "", cli.Auth("not logged in or session expired (run 'bimsync login')")
	}
	return sess.Token, nil
}
