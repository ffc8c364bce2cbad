// Copyright 2015 go-fuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package fuzz

import (
	"strconv"
	"strings"

	"github.com/bradleyjkemp/simple-difffuzz/sig"
)

// RunResult reports what RunOne observed for a single input, so callers
// (Loop's mutate_and_test_one, seed triage, corpus reload) can each
// react to the parts they care about without re-deriving them.
type RunResult struct {
	NewFeatures int
	Diverged    bool
	Novel       bool
	Fingerprint sig.Sig
	ElapsedSec  float64
}

// RunOne is the Differential Runner (C4): executes every target on data in
// strict index order, folds the resulting feature set into the corpus,
// and — in differential mode — decides whether the run's Output Vector
// disagrees across targets and, if so, whether that disagreement's
// coverage fingerprint is novel. It never mutates data.
func (e *Engine) RunOne(data []byte) RunResult {
	e.numRuns++

	numTargets := e.adapter.NumTargets()
	if !e.opts.DifferentialMode && numTargets > 1 {
		numTargets = 1
	}
	output := e.view.OutputDiffVec()
	perTargetNew := make([]bool, numTargets)
	beforeUpdates := e.corpus.NumFeatureUpdates()

	for t := 0; t < numTargets; t++ {
		result, crashed, crashOutput := e.env.Execute(t, data)
		if crashed {
			e.fatal(KindCrash, "crash", data, crashOutput)
		}
		output[t] = result

		beforeT := e.corpus.NumFeatureUpdates()
		e.view.CollectFeatures(func(feature int) {
			e.corpus.AddFeature(feature, len(data), e.opts.Shrink)
		})
		perTargetNew[t] = e.corpus.NumFeatureUpdates() > beforeT
	}

	res := RunResult{ElapsedSec: e.env.ElapsedSec()}
	res.NewFeatures = int(e.corpus.NumFeatureUpdates() - beforeUpdates)

	if e.opts.DifferentialMode && numTargets > 1 {
		res.Diverged = e.diverged(output)
		if res.Diverged {
			mid := e.view.Snapshot()
			moduleLens := e.view.ModuleLens()
			res.Novel, res.Fingerprint = e.dedup.NovelDiff(output, moduleLens, mid, e.adapter.CanonicalReturn)
			if res.Novel {
				e.archiveDivergence(data, output, res)
			} else {
				e.numDuplicateDivergences++
			}
		}
		e.recordFeaturePattern(perTargetNew)
	}

	if res.ElapsedSec > e.opts.ReportSlowUnits && e.opts.ReportSlowUnits > 0 {
		e.reportSlowUnit(data, res.ElapsedSec)
	}

	return res
}

// recordFeaturePattern is the feature-count oracle from spec.md §4.4 step
// 6: it packs which targets reported a new corpus feature this run into a
// bitmask and counts NumberofValidCases up every time that exact pattern
// (including the all-false one) hasn't been observed before.
func (e *Engine) recordFeaturePattern(perTargetNew []bool) {
	var pattern uint64
	for i, n := range perTargetNew {
		if n {
			pattern |= 1 << uint(i)
		}
	}
	if _, seen := e.validFeaturePatterns[pattern]; !seen {
		e.validFeaturePatterns[pattern] = struct{}{}
		e.numValidCases++
	}
}

// diverged reports whether the per-target Output Vector disagrees with
// the targets' declared canonical returns: at least one, but not all,
// targets deviated from their own baseline. Unanimous deviation (every
// target returns non-canonical, e.g. all K targets reject malformed
// input the same way) is not a divergence.
func (e *Engine) diverged(output []int) bool {
	deviating := 0
	for i, o := range output {
		if o != e.adapter.CanonicalReturn(i) {
			deviating++
		}
	}
	return deviating > 0 && deviating < len(output)
}

// archiveDivergence writes the diff artifact for a novel divergence and
// records the event, mirroring PrintNEW's "found new diff" line without
// treating the divergence as fatal: differential fuzzing archives diffs
// and keeps running, it does not stop at the first one. Per spec.md §4.4
// step 5, the primary artifact is written under the dashed-output-vector
// prefix (e.g. "diff_0_1_<hash>" for a two-target divergence), and the
// input is also folded into the in-memory corpus under its new-coverage
// tally.
func (e *Engine) archiveDivergence(data []byte, output []int, res RunResult) {
	e.numDivergences++
	if e.writer != nil {
		e.writer.WriteUnitToFileWithPrefix(data, dashedOutputPrefix(output))
	}
	e.corpus.AddToCorpus(data, res.NewFeatures, false, nil)
	if e.opts.PrintNEW {
		e.fmtNewDiff(data, res)
	}
}

// dashedOutputPrefix renders an Output Vector as the "diff_<dashed-O>"
// artifact prefix from spec.md §6, e.g. [0, 1] -> "diff_0_1_".
func dashedOutputPrefix(output []int) string {
	parts := make([]string, len(output))
	for i, o := range output {
		parts[i] = strconv.Itoa(o)
	}
	return "diff_" + strings.Join(parts, "_") + "_"
}
