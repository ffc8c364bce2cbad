// Copyright 2015 go-fuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package fuzz

import (
	"fmt"
	"time"

	"github.com/bradleyjkemp/simple-difffuzz/sig"
)

// pulseInterval and progressEvery mirror spec.md §5's "every N runs"
// cadences for the human status line and the machine-readable
// differential progress log respectively.
const (
	pulseInterval = 1000
	progressEvery = 20
)

// mutationSeen is lazily initialized by Loop; RunOne alone never mutates,
// so only Loop's own callers need it.
func (e *Engine) ensureMutationSet() {
	if e.mutationSeen == nil {
		e.mutationSeen = make(map[sig.Sig]struct{})
	}
}

// ShuffleAndMinimize is the Fuzz Loop's (C5) startup phase: run every
// seed once to prime the corpus and coverage table, optionally after a
// random shuffle so that seed order does not bias which unit any given
// feature gets attributed to.
func (e *Engine) ShuffleAndMinimize(seeds [][]byte) {
	if e.opts.ShuffleAtStartUp {
		e.rand.Shuffle(len(seeds), func(i, j int) { seeds[i], seeds[j] = seeds[j], seeds[i] })
	}

	// Warm the callback up against the empty input once and never try it
	// again, mirroring the source engine's dummy zero-length probe.
	e.RunOne(nil)

	for _, s := range seeds {
		res := e.RunOne(s)
		if res.NewFeatures > 0 {
			e.mutator.RecordSuccessfulSequence()
			e.corpus.AddToCorpus(s, res.NewFeatures, false, nil)
			e.printStatusForNewUnit()
			e.printNewPCs()
		}
		if e.opts.MaxNumberOfRuns > 0 && e.numRuns >= e.opts.MaxNumberOfRuns {
			break
		}
		e.TryDetectingAMemoryLeak(s, 0)
	}

	e.printStatusLine("INITED")
	if e.corpus.Empty() {
		e.exitEmptyCorpus()
	}
}

// exitEmptyCorpus terminates the process per spec.md's "1 on empty corpus
// after INITED" rule: initialization ran but nothing survived into the
// corpus, which almost always means the callback isn't wired for
// coverage.
func (e *Engine) exitEmptyCorpus() {
	fmt.Fprintln(e.stdout, "ERROR: no interesting inputs were found. Is the code instrumented for coverage? Exiting.")
	e.exit(1)
	panic("fuzz: exit func returned") // unreachable unless exit is a broken test double
}

// Loop is the Fuzz Loop (C5): after ShuffleAndMinimize has primed the
// corpus, repeatedly mutate a chosen unit and test it until MaxNumberOfRuns
// or WallClockTimeout is reached.
func (e *Engine) Loop(seeds [][]byte, reload SeedSource) {
	e.ensureMutationSet()
	e.ShuffleAndMinimize(seeds)

	var deadline time.Time
	if e.opts.WallClockTimeout > 0 {
		deadline = e.startTime.Add(time.Duration(e.opts.WallClockTimeout) * time.Second)
	}

	var lastReload time.Time
	var reloadEpoch int64

	for e.opts.MaxNumberOfRuns == 0 || e.numRuns < e.opts.MaxNumberOfRuns {
		if !deadline.IsZero() && time.Now().After(deadline) {
			break
		}
		if reload != nil && e.opts.ReloadIntervalSec > 0 &&
			time.Since(lastReload) > time.Duration(e.opts.ReloadIntervalSec)*time.Second {
			e.RereadOutputCorpus(reload, &reloadEpoch)
			lastReload = time.Now()
		}

		e.mutateAndTestOne()

		if e.numRuns%pulseInterval == 0 {
			e.PrintPulse()
		}
	}

	e.printStatusLine("DONE")
	e.mutator.PrintRecommendedDictionary(e.stdout)
}

// RereadOutputCorpus implements the corpus reload protocol: pull in any
// files added to the output corpus since the last poll (by another
// process sharing it, or a human) and run each once, exactly like a seed.
func (e *Engine) RereadOutputCorpus(source SeedSource, epoch *int64) {
	files, newEpoch, err := source.ReadNewSince(*epoch)
	if err != nil {
		return
	}
	*epoch = newEpoch
	reloaded := false
	for _, data := range files {
		if e.corpus.HasUnit(data) {
			continue
		}
		res := e.RunOne(data)
		if res.NewFeatures > 0 {
			e.corpus.AddToCorpus(data, res.NewFeatures, false, nil)
			e.lastInput = time.Now()
			reloaded = true
		}
	}
	if reloaded {
		e.printStatusLine("RELOAD")
	}
}

// mutateAndTestOne runs one round of the state machine described in
// spec.md §4.5: selected -> mutated -> deduped -> executed ->
// [covered|diverged|inert]. A base unit that produces no non-duplicate,
// in-bounds mutation within the configured retry budgets is skipped for
// this round; ChooseUnitToMutate will offer it again later.
func (e *Engine) mutateAndTestOne() {
	base := e.corpus.ChooseUnitToMutate(e.rand)
	if base == nil {
		return
	}

	maxLen := e.opts.MaxLen
	if maxLen <= 0 {
		maxLen = e.corpus.MaxInputSize()
	}
	currentMaxMutationLen := maxLen
	if e.opts.ExperimentalLenControl {
		currentMaxMutationLen = e.computeMutationLen(maxLen)
	}

	buf := make([]byte, currentMaxMutationLen)
	copy(buf, base.Data)

	e.mutator.StartSequence()

	data := e.produceMutation(buf, len(base.Data), currentMaxMutationLen, currentMaxMutationLen)
	if data == nil {
		return
	}

	prev := base.Data
	base.NumExecutedMutations++
	res := e.RunOne(data)

	if res.NewFeatures > 0 {
		base.NumSuccessfulMutations++
		e.mutator.RecordSuccessfulSequence()
		e.corpus.AddToCorpus(data, res.NewFeatures, false, nil)
		e.lastInput = time.Now()
		e.TryDetectingAMemoryLeak(data, 0)
		e.printStatusForNewUnit()
		e.checkExitProbes(data)
	} else if e.corpus.TryToReplace(base, data) {
		e.checkExitProbes(data)
	}

	if res.Diverged && res.Novel && e.writer != nil {
		e.writer.WriteUnitToFileWithPrefix(prev, sig.Hash(data).String()+"_BeforeMutationWas_")
	}

	if e.opts.DifferentialMode && e.numRuns%progressEvery == 0 {
		e.writeProgressLine()
	}
}

// produceMutation drives the mutated -> deduped transition: it retries
// against the two independent bounds from spec.md §9's "mutation
// duplicate loop" decomposition — MaxOversizeMutationRetries for
// candidates outside [1, maxLen], MaxDuplicateMutationRetries for
// candidates whose hash was already tried this process lifetime — and
// gives up (returning nil) once either bound is exhausted.
func (e *Engine) produceMutation(buf []byte, baseLen, mutateLen, maxLen int) []byte {
	oversizeRetries, dupRetries := 0, 0
	for {
		n := e.mutator.Mutate(buf, baseLen, mutateLen)
		if n <= 0 || n > maxLen {
			oversizeRetries++
			if oversizeRetries >= e.opts.MaxOversizeMutationRetries {
				return nil
			}
			continue
		}
		candidate := buf[:n]
		h := sig.Hash(candidate)
		if _, dup := e.mutationSeen[h]; dup {
			dupRetries++
			if dupRetries >= e.opts.MaxDuplicateMutationRetries {
				return nil
			}
			continue
		}
		e.mutationSeen[h] = struct{}{}
		return append([]byte(nil), candidate...)
	}
}

// computeMutationLen implements ComputeMutationLen(MaxInputSize,
// MaxMutationLen, rand): when the corpus's current size ceiling already
// equals this round's mutation ceiling there is nothing to compute, and
// otherwise a single random draw occasionally nudges the result past
// MaxInputSize, by one on a 1-in-128 draw and by a further
// 10+result/2 on a 1-in-32768 draw, clamped back down to
// maxMutationLen. Only reached when ExperimentalLenControl is set; the
// default path uses maxMutationLen directly every round.
func (e *Engine) computeMutationLen(maxMutationLen int) int {
	maxInputSize := e.corpus.MaxInputSize()
	if maxInputSize == maxMutationLen {
		return maxMutationLen
	}
	r := e.rand.Int()
	result := maxInputSize
	if r%128 == 0 {
		result++
	}
	if r%32768 == 0 {
		result += 10 + result/2
	}
	if result > maxMutationLen {
		result = maxMutationLen
	}
	return result
}

// MinimizeCrashLoop repeatedly shrinks data against target for up to
// budget, keeping the smallest candidate still observed to crash. This
// supplements spec.md with a feature present in the original engine
// (Fuzzer::MinimizeCrashLoop) but dropped from the distilled spec. A
// target crash here does not go through the fatal exit path, since its
// entire job is to keep crashing on purpose; a unit timeout or an input
// overwrite still goes through the Envelope's fatal hooks.
func (e *Engine) MinimizeCrashLoop(data []byte, target int, budget time.Duration) []byte {
	best := append([]byte(nil), data...)
	deadline := time.Now().Add(budget)
	for time.Now().Before(deadline) {
		candidate := make([]byte, len(best))
		copy(candidate, best)
		n := e.mutator.DefaultMutate(candidate, len(best), len(best))
		if n <= 0 || n >= len(best) {
			continue
		}
		candidate = candidate[:n]
		_, crashed, _ := e.env.Execute(target, candidate)
		if crashed {
			best = candidate
		}
	}
	return best
}
