// Copyright 2026 The Bimsync Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/baps-project/bimsync/lib/clock"
)

func testStore(t *testing.T) (*Store, *clock.Fake) {
	t.Helper()
	fake := clock.NewFake()
	path := filepath.Join(t.TempDir(), "session.json")
	return NewStore(path, fake), fake
}

func testSession(issuedAt time.Time) *Session {
	return &Session{
		Token:    "tok-123",
		User:     User{Email: "a@b.com", Role: "GC_USER"},
		IssuedAt: issuedAt,
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store, fake := testStore(t)
	original := testSession(fake.Now())

	if err := store.Save(original); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded == nil {
		t.Fatal("Load returned nil after Save")
	}
	if loaded.Token != original.Token {
		t.Errorf("Token = %q, want %q", loaded.Token, original.Token)
	}
	if loaded.User != original.User {
		t.Errorf("User = %+v, want %+v", loaded.User, original.User)
	}
	// The wire format stores unix seconds, so compare at that
	// precision.
	if loaded.IssuedAt.Unix() != original.IssuedAt.Unix() {
		t.Errorf("IssuedAt = %v, want %v", loaded.IssuedAt, original.IssuedAt)
	}
}

func TestSaveRestrictsFileMode(t *testing.T) {
	store, fake := testStore(t)
	if err := store.Save(testSession(fake.Now())); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(store.Path())
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		t.Errorf("session file mode = %o, want 0600", mode)
	}
}

func TestSaveFailureKeepsExistingSession(t *testing.T) {
	// A save that cannot complete must not corrupt the previously
	// valid session. Making the directory read-only forces the temp
	// file creation to fail before anything touches the real file.
	if os.Getuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}

	store, fake := testStore(t)
	original := testSession(fake.Now())
	if err := store.Save(original); err != nil {
		t.Fatalf("Save: %v", err)
	}

	directory := filepath.Dir(store.Path())
	if err := os.Chmod(directory, 0500); err != nil {
		t.Fatalf("Chmod: %v", err)
	}
	t.Cleanup(func() { os.Chmod(directory, 0700) })

	replacement := testSession(fake.Now())
	replacement.Token = "tok-456"
	if err := store.Save(replacement); err == nil {
		t.Fatal("expected Save to fail in read-only directory")
	}

	if err := os.Chmod(directory, 0700); err != nil {
		t.Fatalf("Chmod: %v", err)
	}
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded == nil || loaded.Token != "tok-123" {
		t.Errorf("previous session lost after failed save: %+v", loaded)
	}
}

func TestLoadMissingFile(t *testing.T) {
	store, _ := testStore(t)
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded != nil {
		t.Errorf("Load = %+v, want nil for missing file", loaded)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	for _, test := range []struct {
		name    string
		content string
	}{
		{"not JSON", "{token: oops"},
		{"empty file", ""},
		{"empty token", `{"token":"","user":{"email":"a@b.com","role":"GC_USER"},"timestamp":100}`},
	} {
		t.Run(test.name, func(t *testing.T) {
			store, _ := testStore(t)
			if err := os.WriteFile(store.Path(), []byte(test.content), 0600); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}

			loaded, err := store.Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if loaded != nil {
				t.Errorf("Load = %+v, want nil for %s", loaded, test.name)
			}
		})
	}
}

func TestClearIdempotent(t *testing.T) {
	store, fake := testStore(t)

	// Clearing a session that was never saved succeeds.
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear on empty store: %v", err)
	}

	if err := store.Save(testSession(fake.Now())); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("second Clear: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded != nil {
		t.Errorf("Load after Clear = %+v, want nil", loaded)
	}
}

func TestValid(t *testing.T) {
	store, fake := testStore(t)
	sess := testSession(fake.Now())

	if !store.Valid(sess) {
		t.Error("fresh session reported invalid")
	}

	fake.Advance(TTL - time.Second)
	if !store.Valid(sess) {
		t.Error("session invalid one second before expiry")
	}

	// Exactly 24h after issue the session is already invalid.
	fake.Advance(time.Second)
	if store.Valid(sess) {
		t.Error("session valid at exactly TTL")
	}

	if store.Valid(nil) {
		t.Error("nil session reported valid")
	}
	if store.Valid(&Session{IssuedAt: fake.Now()}) {
		t.Error("empty-token session reported valid")
	}
}

func TestRemaining(t *testing.T) {
	store, fake := testStore(t)
	sess := testSession(fake.Now())

	if got := store.Remaining(sess); got != TTL {
		t.Errorf("Remaining = %v, want %v", got, TTL)
	}

	fake.Advance(25 * time.Hour)
	if got := store.Remaining(sess); got != -time.Hour {
		t.Errorf("Remaining after expiry = %v, want -1h", got)
	}
}
