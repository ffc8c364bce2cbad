// Copyright 2015 go-fuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package fuzz

import (
	"io"
	"math/rand"

	"github.com/bradleyjkemp/simple-difffuzz/sig"
)

// InputMeta is the corpus-visible metadata the core needs about a stored
// unit, returned by ChooseUnitToMutate and mutated in place by the core
// as mutations against it succeed.
type InputMeta struct {
	Data                   []byte
	Sig                    sig.Sig
	NumSuccessfulMutations int
	NumExecutedMutations   int
}

// Corpus is the external collaborator that owns scoring, unit selection
// and feature indexing (out of scope for the core; specified here only
// by the interface the core consumes).
type Corpus interface {
	ChooseUnitToMutate(r *rand.Rand) *InputMeta
	AddToCorpus(data []byte, numNewFeatures int, mayDeleteFile bool, features []int)
	AddFeature(feature int, size int, shrink bool)
	NumFeatureUpdates() uint64
	TryToReplace(entry *InputMeta, data []byte) bool
	HasUnit(data []byte) bool
	NumActiveUnits() int
	SizeInBytes() int64
	NumFeatures() int
	Empty() bool
	PrintStats(w io.Writer)
	MaxInputSize() int
}

// Mutator is the external mutation dispatcher: operators, crossover,
// dictionary. Out of scope for the core; consumed only by interface.
type Mutator interface {
	StartSequence()
	Mutate(data []byte, size, maxSize int) int
	DefaultMutate(data []byte, size, maxSize int) int
	RecordSuccessfulSequence()
	PrintMutationSequence(w io.Writer)
	Rand() *rand.Rand
	SetCorpus(c Corpus)
	PrintRecommendedDictionary(w io.Writer)
}

// ArtifactWriter is the external artifact/corpus-file writer: file and
// directory I/O, hashing, base64. Out of scope for the core.
type ArtifactWriter interface {
	WriteUnitToFileWithPrefix(data []byte, prefix string) string
	WriteToOutputCorpus(data []byte)
}

// Adapter is the target adapter: an array of K callables. Out of scope
// for the core; specified only by this interface.
type Adapter interface {
	NumTargets() int
	Invoke(idx int, data []byte) (result int, crashed bool, output []byte)
	CanonicalReturn(idx int) int
}

// SeedSource enumerates the initial seed corpus and reload directory
// contents. Out of scope for the core (file/directory I/O collaborator).
type SeedSource interface {
	ReadSeeds() ([][]byte, error)
	ReadNewSince(epoch int64) (files [][]byte, newEpoch int64, err error)
}
