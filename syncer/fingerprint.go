// Copyright 2026 The Bimsync Authors
// SPDX-License-Identifier: Apache-2.0

package syncer

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"

	"github.com/baps-project/bimsync/extract"
	"github.com/baps-project/bimsync/lib/codec"
)

// Fingerprint is a 32-byte BLAKE3 digest of a record's canonical CBOR
// encoding. Two records fingerprint equal exactly when every field,
// including property order, is equal.
type Fingerprint [32]byte

// String returns the fingerprint as lowercase hex.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// recordDomainKey is the BLAKE3 keyed-mode key for record
// fingerprints. A fixed constant — changing it invalidates every
// stored sync state. The bytes are the ASCII domain name, zero-padded
// to 32 bytes, so the key is inspectable in hex dumps.
var recordDomainKey = [32]byte{
	'b', 'i', 'm', 's', 'y', 'n', 'c', '.', 'r', 'e', 'c', 'o', 'r', 'd',
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// FingerprintRecord computes the record's fingerprint. The record is
// encoded with the deterministic CBOR codec first, so the digest does
// not depend on encoder state or map iteration order.
func FingerprintRecord(record extract.Record) (Fingerprint, error) {
	encoded, err := codec.Marshal(record)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("syncer: encoding record %s: %w", record.ExternalID, err)
	}

	hasher, err := blake3.NewKeyed(recordDomainKey[:])
	if err != nil {
		return Fingerprint{}, fmt.Errorf("syncer: fingerprint hasher: %w", err)
	}
	hasher.Write(encoded)

	var fingerprint Fingerprint
	copy(fingerprint[:], hasher.Sum(nil))
	return fingerprint, nil
}

// State holds the fingerprints of the records present in the backend
// after the last successful upload, keyed by external ID. It backs
// changed-only sync: a record whose fingerprint matches the stored one
// is already on the backend and can be skipped.
type State struct {
	path         string
	fingerprints map[string]Fingerprint
}

// stateVersion is bumped when the file layout or the fingerprint
// domain changes.
const stateVersion = 1

// stateFile is the CBOR layout of a state file.
type stateFile struct {
	Version      int               `cbor:"version"`
	Fingerprints map[string][]byte `cbor:"fingerprints"`
}

// LoadState reads the sync state at path. A missing file is an empty
// state, not an error; a file from an incompatible version is also
// treated as empty, since stale fingerprints only cost a re-upload.
func LoadState(path string) (*State, error) {
	state := &State{
		path:         path,
		fingerprints: make(map[string]Fingerprint),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return state, nil
	}
	if err != nil {
		return nil, fmt.Errorf("syncer: reading state %s: %w", path, err)
	}

	var file stateFile
	if err := codec.Unmarshal(data, &file); err != nil || file.Version != stateVersion {
		return state, nil
	}

	for id, digest := range file.Fingerprints {
		if len(digest) != len(Fingerprint{}) {
			continue
		}
		var fingerprint Fingerprint
		copy(fingerprint[:], digest)
		state.fingerprints[id] = fingerprint
	}
	return state, nil
}

// Changed reports whether the record differs from the state's
// fingerprint for its external ID. A record the state has never seen
// is changed.
func (s *State) Changed(record extract.Record) (bool, Fingerprint, error) {
	fingerprint, err := FingerprintRecord(record)
	if err != nil {
		return false, Fingerprint{}, err
	}
	stored, ok := s.fingerprints[record.ExternalID]
	return !ok || stored != fingerprint, fingerprint, nil
}

// Update records a fingerprint for an external ID. Callers update only
// after the backend has acknowledged the upload.
func (s *State) Update(externalID string, fingerprint Fingerprint) {
	s.fingerprints[externalID] = fingerprint
}

// Len returns the number of tracked records.
func (s *State) Len() int { return len(s.fingerprints) }

// Save writes the state back to its file atomically.
func (s *State) Save() error {
	file := stateFile{
		Version:      stateVersion,
		Fingerprints: make(map[string][]byte, len(s.fingerprints)),
	}
	for id, fingerprint := range s.fingerprints {
		digest := make([]byte, len(fingerprint))
		copy(digest, fingerprint[:])
		file.Fingerprints[id] = digest
	}

	encoded, err := codec.Marshal(file)
	if err != nil {
		return fmt.Errorf("syncer: encoding state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("syncer: creating %s: %w", dir, err)
	}

	temp, err := os.CreateTemp(dir, ".state-*")
	if err != nil {
		return fmt.Errorf("syncer: creating temp state: %w", err)
	}
	tempPath := temp.Name()
	defer os.Remove(tempPath)

	if _, err := temp.Write(encoded); err != nil {
		temp.Close()
		return fmt.Errorf("syncer: writing %s: %w", tempPath, err)
	}
	if err := temp.Close(); err != nil {
		return fmt.Errorf("syncer: closing %s: %w", tempPath, err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		return fmt.Errorf("syncer: replacing %s: %w", s.path, err)
	}
	return nil
}
