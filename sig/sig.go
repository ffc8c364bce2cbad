// Copyright 2015 go-fuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package sig provides the 20-byte content hash used throughout the
// engine to identify units, mutations and coverage fingerprints.
package sig

import (
	"crypto/sha1"
	"encoding/hex"
)

// Sig is a 20-byte SHA1 digest.
type Sig [sha1.Size]byte

// Hash computes the content hash of data.
func Hash(data []byte) Sig {
	return Sig(sha1.Sum(data))
}

// String renders the digest as a lowercase hex string.
func (s Sig) String() string {
	return hex.EncodeToString(s[:])
}

// Streaming hasher, for callers that build up the hashed bytes incrementally
// (the coverage deduplicator, which hashes a variable-length slice built
// from several PC-table segments).
type Hasher struct {
	b []byte
}

// NewHasher returns a fresh incremental hasher.
func NewHasher() *Hasher {
	return &Hasher{}
}

// Write appends p to the pending buffer.
func (h *Hasher) Write(p []byte) {
	h.b = append(h.b, p...)
}

// Sum finalizes the hash over everything written so far.
func (h *Hasher) Sum() Sig {
	return Sig(sha1.Sum(h.b))
}
