// Copyright 2015 go-fuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package fuzz

import "io"

// Options configures an Engine. It is a plain struct: the core never
// parses flags itself, that belongs to cmd/difffuzz.
type Options struct {
	// MaxLen caps MaxInputLen and MaxMutationLen.
	MaxLen int

	// MaxNumberOfRuns terminates the main loop once reached. Zero means
	// no limit: the loop then runs until WallClockTimeout or until the
	// process is stopped, and no value stops it before the first mutation
	// round.
	MaxNumberOfRuns uint64

	// WallClockTimeout, if non-zero, additionally terminates the loop once
	// elapsed wall-clock time since Engine construction exceeds it.
	WallClockTimeout int

	// UnitTimeoutSec is the wall-clock ceiling per callback invocation.
	UnitTimeoutSec int

	// RssLimitMb is the memory ceiling in megabytes, checked once a second
	// by WatchRSS against the runtime's total obtained memory. Individual
	// allocations are not checked against it. Zero disables the check.
	RssLimitMb int

	// DifferentialMode enables K-target execution and diff archiving;
	// without it RunOne executes target 0 only.
	DifferentialMode bool

	// ReloadIntervalSec and OutputCorpus enable periodic rereads of the
	// output directory.
	ReloadIntervalSec int
	OutputCorpus      string

	// DetectLeaks turns the leak probe on or off. TraceMalloc is accepted
	// for option parity and is not read by the engine.
	DetectLeaks bool
	TraceMalloc int

	PrintNEW         bool
	Verbosity        int
	PrintCoverage    bool
	DumpCoverage     bool
	PrintCorpusStats bool
	PrintFinalStats  bool
	PrintNewCovPcs   bool

	Shrink                 bool
	ReduceInputs           bool
	PreferSmall            bool
	ShuffleAtStartUp       bool
	DoCrossOver            bool
	ExperimentalLenControl bool
	MutateDepth            int

	// ExitOnSrcPos / ExitOnItem are early-exit probes; a match exits 0.
	ExitOnSrcPos string
	ExitOnItem   string

	ArtifactPrefix    string
	ExactArtifactPath string
	SaveArtifacts     bool
	OnlyASCII         bool

	// ReportSlowUnits is the threshold, in seconds, above which a unit is
	// archived as slow-unit-<hash>.
	ReportSlowUnits float64

	// ErrorExitCode / TimeoutExitCode are the process exit codes used by
	// the fatal-exit paths.
	ErrorExitCode   int
	TimeoutExitCode int

	// ProgressLog receives the tab-separated differential-mode progress
	// line every 20 runs. Resolves the "progress-log path" open question
	// in favor of an injected sink instead of a hardcoded "./log".
	ProgressLog io.Writer

	// Stdout receives human-readable pulse/stats output. Defaults to
	// os.Stdout if nil.
	Stdout io.Writer

	// MaxDuplicateMutationRetries / MaxOversizeMutationRetries bound the
	// two guards in the mutate/dedup loop (spec.md §9 "Mutation duplicate
	// loop" decomposition).
	MaxDuplicateMutationRetries int
	MaxOversizeMutationRetries  int
}

// DefaultOptions returns the zero-value-safe baseline used by cmd/difffuzz.
func DefaultOptions() Options {
	return Options{
		MaxLen:                      4096,
		UnitTimeoutSec:              10,
		ReportSlowUnits:             10,
		ErrorExitCode:               77,
		TimeoutExitCode:             70,
		MutateDepth:                 5,
		PrintNEW:                    true,
		PrintFinalStats:             true,
		DetectLeaks:                 true,
		MaxDuplicateMutationRetries: 100,
		MaxOversizeMutationRetries:  100,
	}
}
