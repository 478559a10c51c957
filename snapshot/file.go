// Copyright 2026 The Bimsync Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/baps-project/bimsync/extract"
	"github.com/baps-project/bimsync/lib/codec"
)

// File format: a fixed header followed by the (possibly compressed)
// CBOR payload.
//
//	offset  size  field
//	0       4     magic "BSNP"
//	4       1     format version (1)
//	5       1     compression tag
//	6       8     uncompressed payload size, big-endian
//	14      ...   payload
const (
	fileVersion = 1
	headerSize  = 14

	// maxPayloadSize bounds the decode allocation so a corrupt header
	// cannot demand arbitrary memory.
	maxPayloadSize = 1 << 30
)

var fileMagic = [4]byte{'B', 'S', 'N', 'P'}

// filePayload is the CBOR payload. Encoding goes through lib/codec, so
// the payload bytes are deterministic for a given snapshot.
type filePayload struct {
	Model     string     `cbor:"model"`
	CreatedAt int64      `cbor:"created_at"`
	Kinds     []fileKind `cbor:"kinds"`
}

type fileKind struct {
	Name    string       `cbor:"name"`
	Records []fileRecord `cbor:"records"`
}

type fileRecord struct {
	ID         string         `cbor:"id"`
	Name       string         `cbor:"name"`
	Properties extract.Fields `cbor:"properties"`
}

// Write stores the snapshot at path with the requested compression.
// Incompressible payloads are stored under the none tag. The write is
// atomic: a temp file in the target directory renamed over path.
func Write(path string, snap *Snapshot, tag CompressionTag) error {
	payload := filePayload{
		Model:     snap.model,
		CreatedAt: snap.createdAt.Unix(),
		Kinds:     make([]fileKind, len(snap.kinds)),
	}
	for i, kind := range snap.kinds {
		records := make([]fileRecord, len(kind.records))
		for j, record := range kind.records {
			records[j] = fileRecord{
				ID:         record.id,
				Name:       record.name,
				Properties: record.properties,
			}
		}
		payload.Kinds[i] = fileKind{Name: kind.name, Records: records}
	}

	encoded, err := codec.Marshal(payload)
	if err != nil {
		return fmt.Errorf("snapshot: encoding payload: %w", err)
	}

	compressed, usedTag, err := compressPayload(encoded, tag)
	if err != nil {
		return fmt.Errorf("snapshot: compressing payload: %w", err)
	}

	header := make([]byte, headerSize)
	copy(header, fileMagic[:])
	header[4] = fileVersion
	header[5] = byte(usedTag)
	binary.BigEndian.PutUint64(header[6:], uint64(len(encoded)))

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("snapshot: creating %s: %w", dir, err)
	}

	temp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("snapshot: creating temp file: %w", err)
	}
	tempPath := temp.Name()
	defer os.Remove(tempPath)

	if _, err := temp.Write(header); err != nil {
		temp.Close()
		return fmt.Errorf("snapshot: writing %s: %w", tempPath, err)
	}
	if _, err := temp.Write(compressed); err != nil {
		temp.Close()
		return fmt.Errorf("snapshot: writing %s: %w", tempPath, err)
	}
	if err := temp.Close(); err != nil {
		return fmt.Errorf("snapshot: closing %s: %w", tempPath, err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("snapshot: replacing %s: %w", path, err)
	}
	return nil
}

// Open reads a snapshot file.
func Open(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: reading %s: %w", path, err)
	}

	if len(data) < headerSize {
		return nil, fmt.Errorf("snapshot: %s: truncated header", path)
	}
	if [4]byte(data[:4]) != fileMagic {
		return nil, fmt.Errorf("snapshot: %s: not a snapshot file", path)
	}
	if data[4] != fileVersion {
		return nil, fmt.Errorf("snapshot: %s: unsupported format version %d", path, data[4])
	}

	tag := CompressionTag(data[5])
	size := binary.BigEndian.Uint64(data[6:headerSize])
	if size > maxPayloadSize {
		return nil, fmt.Errorf("snapshot: %s: payload size %d exceeds limit", path, size)
	}

	encoded, err := decompressPayload(data[headerSize:], tag, int(size))
	if err != nil {
		return nil, fmt.Errorf("snapshot: %s: %w", path, err)
	}

	var payload filePayload
	if err := codec.Unmarshal(encoded, &payload); err != nil {
		return nil, fmt.Errorf("snapshot: %s: decoding payload: %w", path, err)
	}

	snap := &Snapshot{
		model:       payload.Model,
		createdAt:   time.Unix(payload.CreatedAt, 0).UTC(),
		compression: tag,
		kinds:       make([]kindRecords, len(payload.Kinds)),
		index:       make(map[string]int, len(payload.Kinds)),
	}
	for i, kind := range payload.Kinds {
		records := make([]capturedRecord, len(kind.Records))
		for j, record := range kind.Records {
			records[j] = capturedRecord{
				id:         record.ID,
				name:       record.Name,
				properties: record.Properties,
			}
		}
		if _, exists := snap.index[kind.Name]; exists {
			return nil, fmt.Errorf("snapshot: %s: duplicate kind %q", path, kind.Name)
		}
		snap.index[kind.Name] = i
		snap.kinds[i] = kindRecords{name: kind.Name, records: records}
	}
	return snap, nil
}
