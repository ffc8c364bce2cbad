// Copyright 2015 go-fuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package fuzz

import (
	"fmt"
	"time"
)

// runStats is a point-in-time snapshot, the Go analogue of the source
// engine's Fuzzer::PrintStats formatting.
type runStats struct {
	Runs, Divergences, Cover, Corpus uint64
	Uptime                           time.Duration
	StartTime, LastInput             time.Time
}

func (s runStats) execsPerSec() float64 {
	elapsed := time.Since(s.StartTime)
	if elapsed <= 0 {
		return 0
	}
	return float64(s.Runs) * 1e9 / float64(elapsed)
}

func (s runStats) String() string {
	return fmt.Sprintf("runs: %d (%.0f/sec), cover: %d, corpus: %d, diffs: %d,"+
		" last new input: %v ago, uptime: %v",
		s.Runs, s.execsPerSec(), s.Cover, s.Corpus, s.Divergences,
		time.Since(s.LastInput).Truncate(time.Second), s.Uptime,
	)
}

func (e *Engine) snapshot() runStats {
	return runStats{
		Runs:        e.numRuns,
		Divergences: uint64(e.dedup.Len()),
		Cover:       uint64(e.view.TotalPCCoverage()),
		Corpus:      uint64(e.corpus.NumActiveUnits()),
		Uptime:      time.Since(e.startTime).Truncate(time.Second),
		StartTime:   e.startTime,
		LastInput:   e.lastInput,
	}
}

// printStatusLine emits one "#<runs>\t<Where>\t<snapshot>" line, the
// shared shape behind pulse, INITED, NEW, RELOAD and DONE.
func (e *Engine) printStatusLine(where string) {
	fmt.Fprintf(e.stdout, "#%d\t%s\t%s\n", e.numRuns, where, e.snapshot())
}

// PrintPulse prints one status line, mirroring the source engine's
// periodic pulse ("#NNN NEW/pulse ..."), called every pulseInterval runs
// by Loop.
func (e *Engine) PrintPulse() {
	e.printStatusLine("pulse")
}

// printStatusForNewUnit emits the NEW status line for a mutation or seed
// that produced fresh coverage, gated on PrintNEW like the DIFF line; the
// pulse line is not gated.
func (e *Engine) printStatusForNewUnit() {
	if !e.opts.PrintNEW {
		return
	}
	e.printStatusLine("NEW")
}

// printNewPCs stands in for the source engine's per-address dump of
// freshly covered program counters: this engine has no static
// PC-to-source table, so it reports the coverage total instead.
func (e *Engine) printNewPCs() {
	if !e.opts.PrintNewCovPcs {
		return
	}
	fmt.Fprintf(e.stdout, "NEW_PC: cov: %d\n", e.view.TotalPCCoverage())
}

// PrintFinalStats prints the summary line emitted on both a clean exit and
// every fatal-exit path, matching the source engine printing stats before
// _Exit regardless of why it is exiting.
func (e *Engine) PrintFinalStats() {
	fmt.Fprintf(e.stdout, "stat::number_of_executed_units: %d\n", e.numRuns)
	fmt.Fprintf(e.stdout, "stat::average_exec_per_sec:     %.0f\n", e.snapshot().execsPerSec())
	fmt.Fprintf(e.stdout, "stat::new_units_added:          %d\n", e.corpus.NumActiveUnits())
	fmt.Fprintf(e.stdout, "stat::diffs_found:              %d\n", e.dedup.Len())
	fmt.Fprintf(e.stdout, "stat::edge_coverage:            %d\n", e.view.TotalPCCoverage())
	if e.opts.PrintCorpusStats {
		e.corpus.PrintStats(e.stdout)
	}
}

// reportSlowUnit archives a unit whose ElapsedSec exceeded
// Options.ReportSlowUnits, without terminating the process. Grounded on
// the source engine's non-fatal slow-input warning, which is a diagnostic
// rather than a crash.
func (e *Engine) reportSlowUnit(data []byte, elapsed float64) {
	fmt.Fprintf(e.stdout, "slow unit: %.1fs %s\n", elapsed, describeUnit(data))
	if e.writer != nil {
		e.writer.WriteUnitToFileWithPrefix(data, "slow-unit-")
	}
}

// writeProgressLine emits the tab-separated differential progress record
// mandated by spec.md §4.4 step 7 / §6, appended every 20 runs:
// <TotalRuns>\t<Duplicate>\t<NumberOfDiffUnitsAdded>\t<NumberofValidCases>.
func (e *Engine) writeProgressLine() {
	fmt.Fprintf(e.progressLog, "%d\t%d\t%d\t%d\n",
		e.numRuns, e.numDuplicateDivergences, e.numDivergences, e.numValidCases)
}

// fmtNewDiff prints the "found new diff" line for a freshly archived,
// coverage-novel divergence.
func (e *Engine) fmtNewDiff(data []byte, res RunResult) {
	fmt.Fprintf(e.stdout, "#%d\tDIFF\t%s\tfingerprint: %s\n", e.numRuns, describeUnit(data), res.Fingerprint)
}
