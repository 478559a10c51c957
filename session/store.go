// Copyright 2026 The Bimsync Authors
// SPDX-License-Identifier: Apache-2.0

// Package session persists the local authentication session.
//
// One session per installation: a single well-known JSON file holding
// the backend token, the authenticated user, and the issue time.
// Validity is a fixed 24-hour window from issue, re-checked on every
// use — the store never caches a validity verdict. A missing or
// unreadable file means "not authenticated", never a fatal error;
// corruption of local state must not crash the client.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/baps-project/bimsync/lib/clock"
)

// TTL is the session validity window. A session issued exactly TTL ago
// is already invalid (strict inequality).
const TTL = 24 * time.Hour

// User is the authenticated identity embedded in the session.
type User struct {
	// Email is the account's login identity.
	Email string `json:"email"`

	// Role is the backend role claim (e.g. "GC_USER"). Role gating is
	// the caller's concern; the store treats it as opaque.
	Role string `json:"role"`
}

// Session is the local record of a prior successful authentication.
type Session struct {
	// Token is the opaque bearer credential.
	Token string

	// User is the identity the backend returned at login.
	User User

	// IssuedAt is when the session was created. Second precision —
	// the wire format stores unix seconds.
	IssuedAt time.Time
}

// sessionFile is the on-disk JSON shape: {token, user, timestamp}.
// Timestamp is unix seconds, matching what the original extension
// wrote and what AuthStatus-style tooling reads.
type sessionFile struct {
	Token     string `json:"token"`
	User      User   `json:"user"`
	Timestamp int64  `json:"timestamp"`
}

// Store persists a single session at a fixed path. There is exactly
// one writer context at a time (no concurrent login/clear), so the
// only durability discipline needed is the atomic write in Save.
type Store struct {
	path  string
	clock clock.Clock
}

// NewStore returns a Store for the given file path. A nil clk falls
// back to the system clock.
func NewStore(path string, clk clock.Clock) *Store {
	if clk == nil {
		clk = clock.Real()
	}
	return &Store{path: path, clock: clk}
}

// DefaultPath returns the well-known session file location. Checks
// BIMSYNC_SESSION_FILE first, then $XDG_CONFIG_HOME/bimsync/session.json,
// then ~/.config/bimsync/session.json.
func DefaultPath() string {
	if envPath := os.Getenv("BIMSYNC_SESSION_FILE"); envPath != "" {
		return envPath
	}

	configDirectory := os.Getenv("XDG_CONFIG_HOME")
	if configDirectory == "" {
		homeDirectory, err := os.UserHomeDir()
		if err != nil {
			// Fallback — this should rarely happen.
			return filepath.Join(os.TempDir(), "bimsync-session.json")
		}
		configDirectory = filepath.Join(homeDirectory, ".config")
	}
	return filepath.Join(configDirectory, "bimsync", "session.json")
}

// Path returns the file path this store persists to.
func (s *Store) Path() string { return s.path }

// Save persists the session, overwriting any existing one. The write
// goes to a temp file in the same directory and is renamed into place,
// so a failed write never corrupts a previously-saved session. The
// file is written 0600 (it contains a bearer token); the parent
// directory is created 0700 if missing.
func (s *Store) Save(sess *Session) error {
	data, err := json.MarshalIndent(sessionFile{
		Token:     sess.Token,
		User:      sess.User,
		Timestamp: sess.IssuedAt.Unix(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}
	data = append(data, '\n')

	directory := filepath.Dir(s.path)
	if err := os.MkdirAll(directory, 0700); err != nil {
		return fmt.Errorf("creating session directory %s: %w", directory, err)
	}

	temp, err := os.CreateTemp(directory, ".session-*.json")
	if err != nil {
		return fmt.Errorf("creating session temp file: %w", err)
	}
	tempPath := temp.Name()

	if err := temp.Chmod(0600); err != nil {
		temp.Close()
		os.Remove(tempPath)
		return fmt.Errorf("restricting session file mode: %w", err)
	}
	if _, err := temp.Write(data); err != nil {
		temp.Close()
		os.Remove(tempPath)
		return fmt.Errorf("writing session file: %w", err)
	}
	if err := temp.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("closing session temp file: %w", err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("replacing session file %s: %w", s.path, err)
	}
	return nil
}

// Load reads the stored session. Returns (nil, nil) when no session
// exists or the stored data is malformed — local corruption degrades
// to "not authenticated". A non-nil error is reserved for I/O failures
// other than absence (permission problems, for example), and even
// those callers typically treat as "not authenticated".
func (s *Store) Load() (*Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading session file %s: %w", s.path, err)
	}

	var stored sessionFile
	if err := json.Unmarshal(data, &stored); err != nil {
		// Malformed state is treated as no session, not an error.
		return nil, nil
	}
	if stored.Token == "" {
		return nil, nil
	}

	return &Session{
		Token:    stored.Token,
		User:     stored.User,
		IssuedAt: time.Unix(stored.Timestamp, 0),
	}, nil
}

// Valid reports whether the session can still be used: a non-empty
// token issued strictly less than TTL ago. The clock is consulted on
// every call.
func (s *Store) Valid(sess *Session) bool {
	if sess == nil || sess.Token == "" {
		return false
	}
	return s.clock.Now().Sub(sess.IssuedAt) < TTL
}

// Remaining returns how long the session stays valid. Negative means
// it has already expired.
func (s *Store) Remaining(sess *Session) time.Duration {
	return TTL - s.clock.Now().Sub(sess.IssuedAt)
}

// Clear removes the stored session. Idempotent: clearing a
// non-existent session succeeds.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session file %s: %w", s.path, err)
	}
	return nil
}
