// Copyright 2015 go-fuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package coverage holds the constants and counter tables shared between
// the fuzzing engine and instrumented targets. It plays the role that
// go-fuzz's coverage package and libFuzzer's TracePC module play in their
// respective source trees: a small, dependency-free place for the wire
// format of "how many times did we hit this edge".
package coverage

const (
	// MaxInputSize is the hard ceiling on any single input unit, mirroring
	// the historical go-fuzz/libFuzzer default.
	MaxInputSize = 1 << 20

	// TabSize bounds how many distinct edges a single target module may
	// register; targets typically use far fewer.
	TabSize = 64 << 10
)

// Table holds per-edge hit counters for one target module during one
// execution. It is reset before every callback invocation so that it
// always reflects exactly that callback's feedback (invariant I1).
type Table struct {
	Counters []byte
	covered  []bool
}

// NewTable allocates a table sized for numPCs edges.
func NewTable(numPCs int) *Table {
	return &Table{
		Counters: make([]byte, numPCs),
		covered:  make([]bool, numPCs),
	}
}

// Hit records one execution of edge id, saturating at 255. Instrumented
// targets call this directly; the engine never writes to a Table itself.
func (t *Table) Hit(id int) {
	if t.Counters[id] < 255 {
		t.Counters[id]++
	}
}

// Reset clears the counters ahead of the next callback invocation. The
// per-edge "ever covered" bits are left untouched: total coverage is
// monotonic across the process lifetime.
func (t *Table) Reset() {
	for i := range t.Counters {
		t.Counters[i] = 0
	}
}

// MarkCovered records that edge id has been hit at least once in the
// process lifetime and reports whether this is the first time. Called by
// the instrumentation view while collecting features for the current
// round.
func (t *Table) MarkCovered(id int) (firstTime bool) {
	if t.covered[id] {
		return false
	}
	t.covered[id] = true
	return true
}

// NumPCs returns the number of edges registered for this module.
func (t *Table) NumPCs() int {
	return len(t.Counters)
}

// active is the table instrumented code currently reports into,
// analogous to the source engine's package-level CoverTab: instrumented
// target code has no way to thread an explicit handle through every call
// site it's injected at, so it calls the package-level Hit instead. The
// engine is single-goroutine per target invocation (spec.md's execution
// envelope runs targets strictly in index order), so a single pointer
// swapped by SetActive before each callback is enough; nothing here
// needs its own lock.
var active *Table

// SetActive designates table as the destination for subsequent calls to
// Hit, called by View.ResetMaps before invoking each target.
func SetActive(table *Table) { active = table }

// Hit records a hit against the currently active table's edge id. This
// is what instrumented target code calls directly, e.g. from a manually
// annotated branch or a generated call site.
func Hit(id int) {
	if active != nil {
		active.Hit(id)
	}
}
