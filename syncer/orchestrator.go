// Copyright 2026 The Bimsync Authors
// SPDX-License-Identifier: Apache-2.0

// Package syncer coordinates session, extraction, and upload.
//
// The orchestrator is the only place that reacts to authentication
// failures: a token the backend rejects is cleared from the session
// store exactly once and surfaced as ErrSessionExpired. Every other
// request failure passes through untouched — whether to retry is the
// caller's decision.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/baps-project/bimsync/api"
	"github.com/baps-project/bimsync/extract"
	"github.com/baps-project/bimsync/lib/clock"
	"github.com/baps-project/bimsync/session"
)

var (
	// ErrNotAuthenticated means no valid local session exists. No
	// network request was made.
	ErrNotAuthenticated = errors.New("syncer: not authenticated")

	// ErrSessionExpired means the backend rejected the session token.
	// The local session has been cleared; the user must log in again.
	ErrSessionExpired = errors.New("syncer: session expired")

	// ErrRoleNotAllowed means the account's role is outside the
	// contractor role set this tool serves.
	ErrRoleNotAllowed = errors.New("syncer: role not permitted")
)

// Phase is the orchestrator's authentication/sync state.
type Phase int

const (
	Unauthenticated Phase = iota
	Authenticating
	Authenticated
	Syncing
)

func (p Phase) String() string {
	switch p {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case Syncing:
		return "syncing"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Backend is the slice of the API client the orchestrator drives.
// *api.Client implements it.
type Backend interface {
	Login(ctx context.Context, email, password string) (*session.Session, error)
	Register(ctx context.Context, email, password, role string) (*session.Session, error)
	UploadBatch(ctx context.Context, token string, batch []extract.Record) (*api.UploadResult, error)
}

// ProgressFunc receives coarse progress: the stage name and a
// done/total pair. Called synchronously; it is not a cancellation
// point.
type ProgressFunc func(stage string, done, total int)

// Config holds orchestrator dependencies.
type Config struct {
	Store  *session.Store
	Client Backend

	// Clock times sync runs for logging. If nil, the system clock is
	// used.
	Clock clock.Clock

	// Logger is used for structured logging. If nil, slog.Default().
	Logger *slog.Logger

	// Progress receives stage progress. May be nil.
	Progress ProgressFunc
}

// Orchestrator drives the auth lifecycle and the extract-upload flow.
// Not safe for concurrent use; one orchestrator serves one command
// invocation.
type Orchestrator struct {
	store    *session.Store
	client   Backend
	clock    clock.Clock
	logger   *slog.Logger
	progress ProgressFunc

	phase Phase
}

// New creates an orchestrator.
func New(cfg Config) *Orchestrator {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	progress := cfg.Progress
	if progress == nil {
		progress = func(string, int, int) {}
	}
	return &Orchestrator{
		store:    cfg.Store,
		client:   cfg.Client,
		clock:    clk,
		logger:   logger,
		progress: progress,
		phase:    Unauthenticated,
	}
}

// Phase returns the current orchestrator phase.
func (o *Orchestrator) Phase() Phase { return o.phase }

// Login authenticates and persists the session. Accounts outside the
// contractor role set are rejected after authentication and nothing is
// persisted for them; the role gate is the orchestrator's, not the
// client's.
func (o *Orchestrator) Login(ctx context.Context, email, password string) (*session.Session, error) {
	o.phase = Authenticating

	sess, err := o.client.Login(ctx, email, password)
	if err != nil {
		o.phase = Unauthenticated
		return nil, err
	}

	if !api.AllowedRole(sess.User.Role) {
		o.phase = Unauthenticated
		return nil, fmt.Errorf("%w: %s", ErrRoleNotAllowed, sess.User.Role)
	}

	if err := o.store.Save(sess); err != nil {
		o.phase = Unauthenticated
		return nil, fmt.Errorf("saving session: %w", err)
	}

	o.phase = Authenticated
	return sess, nil
}

// Register creates an account and persists the session it returns. The
// role is gated before any network request.
func (o *Orchestrator) Register(ctx context.Context, email, password, role string) (*session.Session, error) {
	if !api.AllowedRole(role) {
		return nil, fmt.Errorf("%w: %s", ErrRoleNotAllowed, role)
	}

	o.phase = Authenticating

	sess, err := o.client.Register(ctx, email, password, role)
	if err != nil {
		o.phase = Unauthenticated
		return nil, err
	}

	if err := o.store.Save(sess); err != nil {
		o.phase = Unauthenticated
		return nil, fmt.Errorf("saving session: %w", err)
	}

	o.phase = Authenticated
	return sess, nil
}

// Logout clears the local session. Idempotent; there is no backend
// call to make.
func (o *Orchestrator) Logout() error {
	o.phase = Unauthenticated
	return o.store.Clear()
}

// Session returns the stored session when it is valid, or
// ErrNotAuthenticated.
func (o *Orchestrator) Session() (*session.Session, error) {
	sess, err := o.store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if !o.store.Valid(sess) {
		o.phase = Unauthenticated
		return nil, ErrNotAuthenticated
	}
	o.phase = Authenticated
	return sess, nil
}

// SyncOptions modifies one sync run.
type SyncOptions struct {
	// State enables changed-only filtering and fingerprint tracking.
	// May be nil.
	State *State

	// ChangedOnly skips records whose fingerprint matches State.
	// Requires State.
	ChangedOnly bool

	// DryRun stops after batching: nothing is uploaded and no state is
	// written.
	DryRun bool
}

// SyncResult reports one sync run.
type SyncResult struct {
	// Uploaded is the number of records the backend acknowledged (0
	// for a dry run).
	Uploaded int

	// UploadedIDs are the external IDs in the submitted batch.
	UploadedIDs []string

	// Skipped is the number of records changed-only filtering dropped.
	Skipped int

	// DryRun reports whether the upload was skipped.
	DryRun bool
}

// Sync extracts every selector from the document and uploads the
// records as one batch.
//
// Without a valid local session it fails with ErrNotAuthenticated
// before touching the network. If the backend rejects the token
// mid-sync, the session is cleared exactly once and the error is
// ErrSessionExpired.
func (o *Orchestrator) Sync(ctx context.Context, doc extract.Document, selectors []extract.Selector, opts SyncOptions) (*SyncResult, error) {
	sess, err := o.Session()
	if err != nil {
		return nil, err
	}
	o.phase = Syncing
	start := o.clock.Now()

	batch := make([]extract.Record, 0, 64)
	seen := make(map[string]bool)
	for i, selector := range selectors {
		records, err := extract.Elements(doc, selector)
		if err != nil {
			o.phase = Authenticated
			return nil, fmt.Errorf("extracting %q: %w", selector.Name, err)
		}
		for _, record := range records {
			if seen[record.ExternalID] {
				o.phase = Authenticated
				return nil, fmt.Errorf("duplicate external ID %q in batch", record.ExternalID)
			}
			seen[record.ExternalID] = true
			batch = append(batch, record)
		}
		o.progress("extract", i+1, len(selectors))
	}

	result := &SyncResult{DryRun: opts.DryRun}

	// Fingerprint before filtering so state updates cover the whole
	// batch after a successful upload.
	fingerprints := make(map[string]Fingerprint)
	if opts.State != nil {
		filtered := batch[:0]
		for _, record := range batch {
			changed, fingerprint, err := opts.State.Changed(record)
			if err != nil {
				o.phase = Authenticated
				return nil, err
			}
			fingerprints[record.ExternalID] = fingerprint
			if opts.ChangedOnly && !changed {
				result.Skipped++
				continue
			}
			filtered = append(filtered, record)
		}
		batch = filtered
	}

	for _, record := range batch {
		result.UploadedIDs = append(result.UploadedIDs, record.ExternalID)
	}

	if opts.DryRun || len(batch) == 0 {
		o.phase = Authenticated
		o.logger.Info("sync finished without upload",
			"batched", len(batch),
			"skipped", result.Skipped,
			"dry_run", opts.DryRun,
		)
		return result, nil
	}

	uploadResult, err := o.client.UploadBatch(ctx, sess.Token, batch)
	if err != nil {
		if api.IsAuthentication(err) {
			// Clear once; a second rejection in the same run cannot
			// happen because the run ends here.
			if clearErr := o.store.Clear(); clearErr != nil {
				o.logger.Warn("clearing rejected session failed", "error", clearErr)
			}
			o.phase = Unauthenticated
			return nil, fmt.Errorf("%w: %v", ErrSessionExpired, err)
		}
		o.phase = Authenticated
		return nil, fmt.Errorf("uploading batch: %w", err)
	}
	o.progress("upload", 1, 1)

	if opts.State != nil {
		for _, record := range batch {
			opts.State.Update(record.ExternalID, fingerprints[record.ExternalID])
		}
		if err := opts.State.Save(); err != nil {
			// The upload succeeded; a failed state write only costs a
			// re-upload next run.
			o.logger.Warn("saving sync state failed", "error", err)
		}
	}

	result.Uploaded = uploadResult.Count
	o.phase = Authenticated
	o.logger.Info("sync complete",
		"uploaded", result.Uploaded,
		"skipped", result.Skipped,
		"duration", o.clock.Now().Sub(start),
	)
	return result, nil
}
