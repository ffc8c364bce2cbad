// Copyright 2015 go-fuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package fuzz

import (
	"encoding/binary"

	"github.com/bradleyjkemp/simple-difffuzz/sig"
)

// Dedup is the Coverage Deduplicator (C2): decides whether a differential
// execution is novel with respect to previously archived diffs, using
// coverage of only the diverging targets as the discriminator.
//
// This realizes the corrected decomposition from spec.md §9: ModuleLen is
// used both as the pre-j offset stride and as target j's own slice
// length, i.e. two parallel arrays rather than the off-by-one reading of
// the original algorithm.
type Dedup struct {
	seen map[sig.Sig]struct{}
}

// NewDedup returns an empty, process-lifetime coverage hash set.
func NewDedup() *Dedup {
	return &Dedup{seen: make(map[sig.Sig]struct{})}
}

// NovelDiff implements novel_diff? from spec.md §4.2. output is the
// Output Vector for the K targets, moduleLen[j] is target j's PC count,
// mid is the current PC snapshot (§4.1 View.Snapshot), concatenated in
// the same module order as moduleLen, and canonicalReturn reports target
// j's own baseline return value so a target with a non-zero canonical
// return doesn't get treated as diverging just for behaving normally.
func (d *Dedup) NovelDiff(output []int, moduleLen []int, mid []uint64, canonicalReturn func(j int) int) (novel bool, fingerprint sig.Sig) {
	h := sig.NewHasher()
	var buf [8]byte
	offset := 0
	for j, o := range output {
		n := moduleLen[j]
		if o != canonicalReturn(j) {
			for _, v := range mid[offset : offset+n] {
				binary.LittleEndian.PutUint64(buf[:], v)
				h.Write(buf[:])
			}
		}
		offset += n
	}
	fingerprint = h.Sum()
	if _, ok := d.seen[fingerprint]; ok {
		return false, fingerprint
	}
	d.seen[fingerprint] = struct{}{}
	return true, fingerprint
}

// Len reports how many distinct diffs have been archived, mostly useful
// for tests and stats.
func (d *Dedup) Len() int {
	return len(d.seen)
}
