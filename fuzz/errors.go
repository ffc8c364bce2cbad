// Copyright 2015 go-fuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package fuzz

// Kind identifies why the engine is about to terminate the process, which
// in turn picks the artifact filename prefix and the exit code.
type Kind int

const (
	KindCrash Kind = iota
	KindTimeout
	KindOOM
	KindLeak
	KindOverwrite
	KindDeadlySignal
)

func (k Kind) String() string {
	switch k {
	case KindCrash:
		return "crash"
	case KindTimeout:
		return "timeout"
	case KindOOM:
		return "oom"
	case KindLeak:
		return "leak"
	case KindOverwrite:
		return "overwrite"
	case KindDeadlySignal:
		return "deadly-signal"
	default:
		return "unknown"
	}
}

// exitCode picks ErrorExitCode or TimeoutExitCode per spec.md §8: only a
// unit timeout uses the timeout exit code; crash, OOM, leak and overwrite
// all use the generic error exit code.
func (k Kind) exitCode(opts *Options) int {
	switch k {
	case KindTimeout:
		return opts.TimeoutExitCode
	default:
		return opts.ErrorExitCode
	}
}
