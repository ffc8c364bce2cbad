// Copyright 2015 go-fuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package corpus owns the set of interesting inputs discovered while
// fuzzing: their scoring, weighted selection and the feature index used
// to decide whether a new input is worth keeping.
package corpus

import (
	"fmt"
	"io"
	"math/rand"
	"sort"
	"sync"

	"github.com/bradleyjkemp/simple-difffuzz/fuzz"
	"github.com/bradleyjkemp/simple-difffuzz/sig"
)

// Scoring constants, unchanged from the source engine's hub.go: every
// unit is scored at defScore when added. Scores are not updated after
// that, so minScore and maxScore are not applied and every unit is
// equally likely to be chosen.
const (
	minScore = 1.0
	maxScore = 1000.0
	defScore = 10.0
)

type entry struct {
	meta            fuzz.InputMeta
	score           float64
	runningScoreSum float64
}

// Corpus implements fuzz.Corpus with weighted random selection over the
// running-score-sum technique: pick a uniform value in [0, total), then
// binary-search for the entry whose cumulative range contains it, so
// units with higher scores are proportionally more likely to be chosen.
type Corpus struct {
	mu sync.Mutex

	units []*entry
	sigs  map[sig.Sig]struct{}

	features      map[int]struct{}
	featureUpdates uint64

	maxInputSize int
	sizeInBytes  int64
}

// New returns an empty Corpus. maxInputSize bounds MaxInputSize(); zero
// means unbounded.
func New(maxInputSize int) *Corpus {
	return &Corpus{
		sigs:         make(map[sig.Sig]struct{}),
		features:     make(map[int]struct{}),
		maxInputSize: maxInputSize,
	}
}

// HasUnit reports whether data (by content hash) is already in the
// corpus, used by the reload protocol to skip units it already knows.
func (c *Corpus) HasUnit(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.sigs[sig.Hash(data)]
	return ok
}

// AddToCorpus inserts data as a new unit, scored at defScore, mirroring
// hub.go's handleNewInput assigning every freshly accepted input the
// default score and marking the running sum stale. mayDeleteFile and
// features are accepted for interface parity with the source's corpus
// minimization path; this engine does not evict units once added.
func (c *Corpus) AddToCorpus(data []byte, numNewFeatures int, mayDeleteFile bool, features []int) {
	h := sig.Hash(data)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.sigs[h]; ok {
		return
	}
	c.sigs[h] = struct{}{}

	cp := make([]byte, len(data))
	copy(cp, data)

	sum := 0.0
	if len(c.units) > 0 {
		sum = c.units[len(c.units)-1].runningScoreSum
	}
	e := &entry{
		meta:            fuzz.InputMeta{Data: cp, Sig: h},
		score:           defScore,
		runningScoreSum: sum + defScore,
	}
	c.units = append(c.units, e)
	c.sizeInBytes += int64(len(cp))
}

// AddFeature records that feature was observed at the given input size.
// Every call that is the first ever observation of that feature bumps
// NumFeatureUpdates, giving callers a novelty counter without the
// interface needing to return a bool per call.
func (c *Corpus) AddFeature(feature int, size int, shrink bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.features[feature]; ok {
		return
	}
	c.features[feature] = struct{}{}
	c.featureUpdates++
}

// NumFeatureUpdates is the running count of distinct features ever seen.
func (c *Corpus) NumFeatureUpdates() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.featureUpdates
}

// NumFeatures is the number of distinct features currently indexed.
func (c *Corpus) NumFeatures() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.features)
}

// ChooseUnitToMutate performs the weighted pick described on Corpus,
// rewarding it with one successful-mutation bookkeeping increment left
// to the caller (fuzz.Engine owns InputMeta.NumSuccessfulMutations).
func (c *Corpus) ChooseUnitToMutate(r *rand.Rand) *fuzz.InputMeta {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.units) == 0 {
		return nil
	}
	total := c.units[len(c.units)-1].runningScoreSum
	if total <= 0 {
		return &c.units[r.Intn(len(c.units))].meta
	}
	target := r.Float64() * total
	i := sort.Search(len(c.units), func(i int) bool {
		return c.units[i].runningScoreSum >= target
	})
	if i >= len(c.units) {
		i = len(c.units) - 1
	}
	return &c.units[i].meta
}

// TryToReplace overwrites entry's data with data when data is strictly
// smaller, e.g. after a mutation round found no new features but did
// find a smaller input that still exercises entry's coverage. It reports
// whether entry was found in this corpus and replaced.
func (c *Corpus) TryToReplace(entry *fuzz.InputMeta, data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.units {
		if &e.meta == entry {
			if len(data) >= len(e.meta.Data) {
				return false
			}
			delta := int64(len(data)) - int64(len(e.meta.Data))
			e.meta.Data = append([]byte(nil), data...)
			e.meta.Sig = sig.Hash(data)
			c.sizeInBytes += delta
			return true
		}
	}
	return false
}

// NumActiveUnits is the corpus size.
func (c *Corpus) NumActiveUnits() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.units)
}

// SizeInBytes is the total size of every unit's data.
func (c *Corpus) SizeInBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sizeInBytes
}

// Empty reports whether the corpus holds no units at all.
func (c *Corpus) Empty() bool {
	return c.NumActiveUnits() == 0
}

// MaxInputSize is the configured cap on any one unit's size.
func (c *Corpus) MaxInputSize() int {
	return c.maxInputSize
}

// PrintStats writes a one-line summary, in the same
// "label: value, label: value" register as the source coordinator's
// stats line.
func (c *Corpus) PrintStats(w io.Writer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(w, "corpus: %d units, %d bytes, %d features\n", len(c.units), c.sizeInBytes, len(c.features))
}
