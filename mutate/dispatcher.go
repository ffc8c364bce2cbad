// Copyright 2015 go-fuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package mutate implements the mutation operators used to turn one
// corpus unit into a new candidate input: bit/byte flips, insert/delete,
// shuffling, interesting-value substitution and crossover against another
// corpus unit. Dictionary entries are not inserted into inputs; they are
// only written out by PrintRecommendedDictionary.
package mutate

import (
	"io"
	"math/rand"
	"time"

	"github.com/bradleyjkemp/simple-difffuzz/fuzz"
)

// interesting8/16/32 are the classic boundary-value tables (also used by
// libFuzzer's dictionary-free mutator and go-fuzz's mutator): values a
// byte/short/int comparison is likely to branch on.
var (
	interesting8  = []int8{-128, -1, 0, 1, 16, 32, 64, 100, 127}
	interesting16 = []int16{-32768, -129, 128, 255, 256, 512, 1000, 1024, 4096, 32767}
	interesting32 = []int32{-2147483648, -100663046, -32769, 32768, 65535, 65536, 100663045, 2147483647}
)

// Dispatcher is a mutation operator dispatcher, one per fuzzing
// goroutine: it holds its own PRNG and does not need locking.
type Dispatcher struct {
	r *rand.Rand

	corpus     fuzz.Corpus
	dictionary [][]byte

	sequenceLen int
	sequenceLog []string
}

// New returns a Dispatcher seeded from seed. Callers wanting
// reproducible runs should pass a fixed seed; cmd/difffuzz seeds from
// time.Now().UnixNano() by default.
func New(seed int64, dictionary [][]byte) *Dispatcher {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Dispatcher{r: rand.New(rand.NewSource(seed)), dictionary: dictionary}
}

// Rand exposes the Dispatcher's PRNG so the engine can reuse it for
// corpus selection instead of keeping a second one.
func (d *Dispatcher) Rand() *rand.Rand { return d.r }

// SetCorpus wires the corpus consulted by the crossover operator.
func (d *Dispatcher) SetCorpus(c fuzz.Corpus) { d.corpus = c }

// StartSequence resets the sequence-length bookkeeping used by
// PrintMutationSequence.
func (d *Dispatcher) StartSequence() {
	d.sequenceLen = 0
	d.sequenceLog = d.sequenceLog[:0]
}

// RecordSuccessfulSequence is a no-op hook the engine calls when the
// sequence that just ran discovered new coverage; kept as an interface
// method so richer dictionaries (e.g. frequency-weighted operators)
// have somewhere to update state without changing the interface again.
func (d *Dispatcher) RecordSuccessfulSequence() {}

// PrintMutationSequence writes the operator names applied since the last
// StartSequence call, for -v diagnostics.
func (d *Dispatcher) PrintMutationSequence(w io.Writer) {
	for _, op := range d.sequenceLog {
		w.Write([]byte(op + "\n"))
	}
}

// PrintRecommendedDictionary writes the literal dictionary entries this
// Dispatcher was constructed with, quoted the way a -dict file expects.
func (d *Dispatcher) PrintRecommendedDictionary(w io.Writer) {
	for _, lit := range d.dictionary {
		w.Write(append(append([]byte(`"`), lit...), '"', '\n'))
	}
}

const maxMutationsPerSequence = 5

// DefaultMutate applies exactly one operator, ignoring the dictionary and
// crossover — the deterministic single-step mutation MinimizeCrashLoop
// wants so that each step of a minimization is small and reproducible.
func (d *Dispatcher) DefaultMutate(data []byte, size, maxSize int) int {
	return d.applyOne(data, size, maxSize, false)
}

// Mutate runs a short sequence of 1..maxMutationsPerSequence operators
// back to back, matching the source engine's MutateDepth-bounded
// per-round mutation sequence.
func (d *Dispatcher) Mutate(data []byte, size, maxSize int) int {
	n := size
	depth := 1 + d.r.Intn(maxMutationsPerSequence)
	for i := 0; i < depth; i++ {
		n = d.applyOne(data, n, maxSize, true)
	}
	d.sequenceLen += depth
	return n
}

func (d *Dispatcher) applyOne(data []byte, size, maxSize int, allowStructural bool) int {
	numOps := 6
	if allowStructural && d.corpus != nil {
		numOps = 7
	}

	switch d.r.Intn(numOps) {
	case 0:
		return d.eraseByte(data, size)
	case 1:
		return d.insertByte(data, size, maxSize)
	case 2:
		return d.flipBit(data, size)
	case 3:
		return d.flipByte(data, size)
	case 4:
		return d.shuffleBytes(data, size)
	case 5:
		return d.insertInterestingValue(data, size, maxSize)
	default:
		return d.crossOver(data, size, maxSize)
	}
}

func (d *Dispatcher) eraseByte(data []byte, size int) int {
	if size <= 1 {
		return size
	}
	pos := d.r.Intn(size)
	copy(data[pos:], data[pos+1:size])
	d.sequenceLog = append(d.sequenceLog, "EraseByte")
	return size - 1
}

func (d *Dispatcher) insertByte(data []byte, size, maxSize int) int {
	if size >= maxSize {
		return size
	}
	pos := d.r.Intn(size + 1)
	copy(data[pos+1:size+1], data[pos:size])
	data[pos] = byte(d.r.Intn(256))
	d.sequenceLog = append(d.sequenceLog, "InsertByte")
	return size + 1
}

func (d *Dispatcher) flipBit(data []byte, size int) int {
	if size == 0 {
		return size
	}
	pos := d.r.Intn(size)
	data[pos] ^= 1 << uint(d.r.Intn(8))
	d.sequenceLog = append(d.sequenceLog, "ChangeBit")
	return size
}

func (d *Dispatcher) flipByte(data []byte, size int) int {
	if size == 0 {
		return size
	}
	pos := d.r.Intn(size)
	data[pos] = byte(d.r.Intn(256))
	d.sequenceLog = append(d.sequenceLog, "ChangeByte")
	return size
}

func (d *Dispatcher) shuffleBytes(data []byte, size int) int {
	if size < 2 {
		return size
	}
	pos0 := d.r.Intn(size - 1)
	pos1 := pos0 + 1 + d.r.Intn(size-pos0-1)
	if pos1 <= pos0 {
		return size
	}
	segment := append([]byte(nil), data[pos0:pos1]...)
	d.r.Shuffle(len(segment), func(i, j int) { segment[i], segment[j] = segment[j], segment[i] })
	copy(data[pos0:pos1], segment)
	d.sequenceLog = append(d.sequenceLog, "ShuffleBytes")
	return size
}

func (d *Dispatcher) insertInterestingValue(data []byte, size, maxSize int) int {
	if size == 0 {
		return size
	}
	pos := d.r.Intn(size)
	switch d.r.Intn(3) {
	case 0:
		data[pos] = byte(interesting8[d.r.Intn(len(interesting8))])
	case 1:
		if pos+2 > size {
			return size
		}
		v := interesting16[d.r.Intn(len(interesting16))]
		data[pos] = byte(v)
		data[pos+1] = byte(v >> 8)
	default:
		if pos+4 > size {
			return size
		}
		v := interesting32[d.r.Intn(len(interesting32))]
		data[pos] = byte(v)
		data[pos+1] = byte(v >> 8)
		data[pos+2] = byte(v >> 16)
		data[pos+3] = byte(v >> 24)
	}
	d.sequenceLog = append(d.sequenceLog, "ChangeBinaryInteger")
	return size
}

// crossOver splices bytes from a second, randomly chosen corpus unit
// into data, the same insert-alternating-chunks technique as the
// reference mutator's crossover, adapted to write in place within the
// caller's maxSize buffer instead of allocating a fresh one.
func (d *Dispatcher) crossOver(data []byte, size, maxSize int) int {
	if d.corpus == nil || d.corpus.Empty() {
		return d.insertInterestingValue(data, size, maxSize)
	}
	other := d.corpus.ChooseUnitToMutate(d.r)
	if other == nil || len(other.Data) == 0 {
		return size
	}

	out := make([]byte, 0, maxSize)
	a, b := data[:size], other.Data
	for i := 0; i < 3 && len(out) < maxSize; i++ {
		if len(a) > 0 {
			n := d.r.Intn(len(a)) + 1
			if len(out)+n > maxSize {
				n = maxSize - len(out)
			}
			out = append(out, a[:n]...)
			a = a[n:]
		}
		if len(b) > 0 && len(out) < maxSize {
			n := d.r.Intn(len(b)) + 1
			if len(out)+n > maxSize {
				n = maxSize - len(out)
			}
			out = append(out, b[:n]...)
			b = b[n:]
		}
	}
	if len(out) > maxSize {
		out = out[:maxSize]
	}
	n := copy(data[:cap(data)], out)
	d.sequenceLog = append(d.sequenceLog, "CrossOver")
	return n
}
