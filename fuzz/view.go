// Copyright 2015 go-fuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package fuzz

import (
	"fmt"

	"github.com/bradleyjkemp/simple-difffuzz/coverage"
)

// View is the Instrumentation View (C1): a read-only snapshot of the PC
// table, per-module PC counts, feature stream and per-target output
// vector for one execution. Higher layers never touch a coverage.Table
// directly; they go through View.
type View struct {
	modules []*coverage.Table
	active  int

	collected bool

	outputDiffVec []int
	totalCovered  int
}

// NewView allocates a View for numTargets modules, each sized for the
// given number of PCs (edges).
func NewView(pcsPerTarget []int) *View {
	v := &View{
		modules:       make([]*coverage.Table, len(pcsPerTarget)),
		outputDiffVec: make([]int, len(pcsPerTarget)),
	}
	for i, n := range pcsPerTarget {
		v.modules[i] = coverage.NewTable(n)
	}
	return v
}

// ResetMaps clears the feature accumulator for target before its callback
// runs, satisfying invariant I1: after the callback returns, the view
// reflects exactly that callback's feedback.
func (v *View) ResetMaps(target int) {
	v.active = target
	v.collected = false
	v.modules[target].Reset()
	coverage.SetActive(v.modules[target])
}

// Table returns the counter table for the currently active target, for
// instrumented target code to record edge hits against.
func (v *View) Table() *coverage.Table {
	return v.modules[v.active]
}

// CollectFeatures yields each distinct feature observed during the most
// recently reset target's callback, exactly once. Calling it twice for
// the same callback is a programming error, per the C1 contract.
func (v *View) CollectFeatures(visit func(feature int)) {
	if v.collected {
		panic("fuzz: View.CollectFeatures called twice for the same callback")
	}
	v.collected = true

	base := v.moduleBase(v.active)
	m := v.modules[v.active]
	for i, c := range m.Counters {
		if c == 0 {
			continue
		}
		if m.MarkCovered(i) {
			v.totalCovered++
		}
		visit(base + i)
	}
}

// TotalPCCoverage is nondecreasing across the process lifetime.
func (v *View) TotalPCCoverage() int {
	return v.totalCovered
}

// NumPCs is the total number of registered edges across all modules.
func (v *View) NumPCs() int {
	n := 0
	for _, m := range v.modules {
		n += m.NumPCs()
	}
	return n
}

// PC returns the current-round counter value at global index i, treating
// the per-module counter tables as one concatenated array. This underlies
// the coverage fingerprint's "PC snapshot": a per-execution vector of
// counter values, not a table of stable instruction addresses.
func (v *View) PC(i int) uint64 {
	for _, m := range v.modules {
		if i < m.NumPCs() {
			return uint64(m.Counters[i])
		}
		i -= m.NumPCs()
	}
	panic("fuzz: PC index out of range")
}

// ModuleNum returns the number of PCs registered by target j.
func (v *View) ModuleNum(j int) int {
	return v.modules[j].NumPCs()
}

// ModuleLens returns the per-module PC counts as one slice, the form the
// Coverage Deduplicator wants directly.
func (v *View) ModuleLens() []int {
	lens := make([]int, len(v.modules))
	for j, m := range v.modules {
		lens[j] = m.NumPCs()
	}
	return lens
}

// Snapshot serializes the current-round PC values across all modules, one
// uint64 per PC, in module order. This is the "Mid" buffer from spec.md
// §4.2.
func (v *View) Snapshot() []uint64 {
	out := make([]uint64, 0, v.NumPCs())
	for _, m := range v.modules {
		for _, c := range m.Counters {
			out = append(out, uint64(c))
		}
	}
	return out
}

// OutputDiffVec is the writable per-target return-code slot for the
// current input.
func (v *View) OutputDiffVec() []int {
	return v.outputDiffVec
}

// DescribeFeature renders a global feature id as a "target<K>:pc<N>"
// descriptor. It stands in for the source engine's address-to-source-line
// table, which this engine has no equivalent of; ExitOnSrcPos matches
// against this string instead.
func (v *View) DescribeFeature(id int) string {
	for j, m := range v.modules {
		if id < m.NumPCs() {
			return fmt.Sprintf("target%d:pc%d", j, id)
		}
		id -= m.NumPCs()
	}
	return "unknown"
}

func (v *View) moduleBase(j int) int {
	base := 0
	for i := 0; i < j; i++ {
		base += v.modules[i].NumPCs()
	}
	return base
}
