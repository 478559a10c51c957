// Copyright 2026 The Bimsync Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"bytes"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/baps-project/bimsync/lib/netutil"
)

// decodeBody normalizes a raw response body to UTF-8 text before JSON
// parsing. The backend's compression and encoding are not guaranteed
// to match the request hints (a reverse proxy may compress on its own,
// legacy deployments emitted Windows-1252), so decoding is defensive:
// reverse any recognized compression, then try charsets in order,
// ending in a lossy scrub. A malformed byte never produces an error.
func decodeBody(raw []byte) []byte {
	return []byte(decodeCharset(decompress(raw)))
}

// decompress reverses gzip or zlib framing when the magic bytes say
// so, and falls back to a speculative raw-deflate attempt otherwise.
// If nothing applies, the bytes pass through unchanged.
func decompress(raw []byte) []byte {
	if len(raw) >= 2 && raw[0] == 0x1f && raw[1] == 0x8b {
		reader, err := gzip.NewReader(bytes.NewReader(raw))
		if err == nil {
			if inflated, err := netutil.ReadResponse(reader); err == nil {
				return inflated
			}
		}
		return raw
	}

	if isZlib(raw) {
		reader, err := zlib.NewReader(bytes.NewReader(raw))
		if err == nil {
			if inflated, err := netutil.ReadResponse(reader); err == nil {
				return inflated
			}
		}
		return raw
	}

	// Raw deflate has no magic signature; the only detection is a
	// successful full decode.
	reader := flate.NewReader(bytes.NewReader(raw))
	if inflated, err := io.ReadAll(io.LimitReader(reader, netutil.MaxResponseSize)); err == nil && len(inflated) > 0 {
		return inflated
	}
	return raw
}

// isZlib checks the two-byte zlib header: 0x78 CMF followed by one of
// the standard FLG values.
func isZlib(raw []byte) bool {
	if len(raw) < 2 || raw[0] != 0x78 {
		return false
	}
	switch raw[1] {
	case 0x01, 0x5e, 0x9c, 0xda:
		return true
	}
	return false
}

// decodeCharset converts body bytes to a UTF-8 string, trying an
// ordered list of encodings and accepting the first that succeeds:
// valid UTF-8 as-is, UTF-16 when a byte-order mark is present,
// Windows-1252 for legacy single-byte content, then a lossy UTF-8
// scrub as the last resort.
func decodeCharset(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}

	if hasUTF16BOM(raw) {
		decoder := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		if decoded, err := decoder.Bytes(raw); err == nil {
			return string(decoded)
		}
	}

	if decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw); err == nil && utf8.Valid(decoded) {
		return string(decoded)
	}

	return strings.ToValidUTF8(string(raw), string(utf8.RuneError))
}

// hasUTF16BOM checks for a UTF-16 byte-order mark in either byte
// order.
func hasUTF16BOM(raw []byte) bool {
	if len(raw) < 2 {
		return false
	}
	return (raw[0] == 0xff && raw[1] == 0xfe) || (raw[0] == 0xfe && raw[1] == 0xff)
}
