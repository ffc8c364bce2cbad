// Copyright 2015 go-fuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package fuzz

import (
	"fmt"
	"io"
	"io/ioutil"
	"math/rand"
	"os"
	"time"

	"github.com/bradleyjkemp/simple-difffuzz/sig"
)

// Engine is the process-wide fuzzing engine. It owns exactly one of each
// collaborator and is not safe to share across processes; the source
// engine's design as a file-scope singleton (accessed by signal and alarm
// handlers with no other way to reach it) is realized here as an explicit
// struct threaded through Go's goroutine-based timeout/signal paths
// instead, so no package-level mutable state is needed.
type Engine struct {
	opts *Options

	view    *View
	dedup   *Dedup
	env     *Envelope
	corpus  Corpus
	mutator Mutator
	adapter Adapter
	writer  ArtifactWriter

	stdout      io.Writer
	progressLog io.Writer
	exit        func(code int)

	startTime time.Time
	lastInput time.Time

	numRuns                 uint64
	numDivergences          uint64
	numDuplicateDivergences uint64
	numValidCases           uint64
	validFeaturePatterns    map[uint64]struct{}

	inconclusiveLeakProbes int
	leakDetectionDisabled  bool

	mutationSeen map[sig.Sig]struct{}

	rand *rand.Rand
}

// NewEngine wires up an Engine from its collaborators. exit defaults to
// os.Exit; tests inject a fake that records the call instead of tearing
// down the process.
func NewEngine(opts Options, corpus Corpus, mutator Mutator, adapter Adapter, writer ArtifactWriter, pcsPerTarget []int) *Engine {
	view := NewView(pcsPerTarget)
	env := NewEnvelope(view, adapter, &opts)

	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	progressLog := opts.ProgressLog
	if progressLog == nil {
		progressLog = ioutil.Discard
	}

	e := &Engine{
		opts:                 &opts,
		view:                 view,
		dedup:                NewDedup(),
		env:                  env,
		corpus:               corpus,
		mutator:              mutator,
		adapter:              adapter,
		writer:               writer,
		stdout:               stdout,
		progressLog:          progressLog,
		exit:                 os.Exit,
		startTime:            time.Now(),
		lastInput:            time.Now(),
		validFeaturePatterns: make(map[uint64]struct{}),
		rand:                 mutator.Rand(),
	}

	env.onTimeout = func(data []byte) { e.fatal(KindTimeout, "timeout", data, nil) }
	env.onOverwrite = func(data []byte) { e.fatal(KindOverwrite, "overwrite", data, nil) }

	mutator.SetCorpus(corpus)
	return e
}

// fatal implements the source engine's DumpCurrentUnit / PrintFinalStats /
// _Exit sequence: archive the offending input, print stats, and terminate.
// It never returns, matching every fatal-exit caller's expectation.
func (e *Engine) fatal(kind Kind, prefix string, data []byte, output []byte) {
	fmt.Fprintf(e.stdout, "%s: %s\n", kind, describeUnit(data))
	if e.writer != nil && data != nil {
		path := e.writer.WriteUnitToFileWithPrefix(data, prefix+"-")
		fmt.Fprintf(e.stdout, "artifact_prefix='%s'; saved as: %s\n", e.opts.ArtifactPrefix, path)
	}
	if len(output) > 0 {
		e.stdout.Write(output)
	}
	if e.opts.PrintFinalStats {
		e.PrintFinalStats()
	}
	e.exit(kind.exitCode(e.opts))
	panic("fuzz: exit func returned") // unreachable unless exit is a broken test double
}

func describeUnit(data []byte) string {
	return fmt.Sprintf("length=%d sig=%s", len(data), sig.Hash(data))
}

// NumRuns is the number of callbacks executed so far.
func (e *Engine) NumRuns() uint64 { return e.numRuns }

// NumDivergences is the number of distinct differential diffs archived so
// far, i.e. Dedup.Len().
func (e *Engine) NumDivergences() int { return e.dedup.Len() }
