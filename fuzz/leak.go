// Copyright 2015 go-fuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package fuzz

import "runtime"

// maxInconclusiveLeakProbes matches spec.md's leak-detection safety
// envelope: after this many probes fail to demonstrate growth, leak
// detection turns itself off for the rest of the process rather than
// keep paying its cost on a target that evidently doesn't leak.
const maxInconclusiveLeakProbes = 1000

// leakThresholdBytes is how much retained heap growth across repeated
// executions of the same input counts as a leak. Go has no
// malloc/free interception to hook like the source engine's allocator
// shim, so this substitutes a heap-growth heuristic: run the same input
// several times in a row and see whether the heap trends upward instead
// of returning to baseline.
const leakThresholdBytes = 1 << 20

// TryDetectingAMemoryLeak re-executes target against data a few times in
// a row and checks whether retained heap size keeps growing. The main
// loop calls it on mutations that produced new coverage;
// ShuffleAndMinimize calls it on every seed.
func (e *Engine) TryDetectingAMemoryLeak(data []byte, target int) {
	if !e.opts.DetectLeaks || e.leakDetectionDisabled {
		return
	}

	var before runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)

	const probes = 5
	for i := 0; i < probes; i++ {
		e.env.Execute(target, data)
	}

	var after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&after)

	if after.HeapAlloc <= before.HeapAlloc+leakThresholdBytes {
		e.inconclusiveLeakProbes++
		if e.inconclusiveLeakProbes >= maxInconclusiveLeakProbes {
			e.leakDetectionDisabled = true
		}
		return
	}

	e.fatal(KindLeak, "leak", data, nil)
}
