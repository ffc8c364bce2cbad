// Copyright 2015 go-fuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package fuzz

import (
	"bytes"
	"runtime"
	"sync/atomic"
	"time"
)

// Envelope is the Execution Envelope (C3): wraps a single target
// invocation with timing, alloc/free tracing, overwrite detection and
// timeout/OOM/crash hooks.
//
// Go has no malloc hooks and no per-allocation interception, unlike the
// sanitizer hooks the original engine relies on. HasMoreMallocsThanFrees
// is therefore approximated from runtime.MemStats deltas taken
// immediately before and after the callback (see DESIGN.md); it is a
// coarser signal than a true alloc/free trace. TryDetectingAMemoryLeak
// does not consult it: it measures heap growth across repeated runs
// instead.
type Envelope struct {
	view    *View
	adapter Adapter
	opts    *Options

	current     []byte
	currentSize int

	unitStart time.Time
	unitStop  time.Time

	hasMoreMallocsThanFrees bool
	runningCB               bool

	onTimeout   func(data []byte)
	onOverwrite func(data []byte)
}

// NewEnvelope constructs an Envelope. The persistent current-unit buffer
// is preallocated to opts.MaxLen, mirroring AllocateCurrentUnitData.
func NewEnvelope(view *View, adapter Adapter, opts *Options) *Envelope {
	e := &Envelope{view: view, adapter: adapter, opts: opts}
	if opts.MaxLen > 0 {
		e.current = make([]byte, opts.MaxLen)
	}
	return e
}

// CurrentUnit returns the persistent copy of the most recently executed
// input, used by crash/timeout dump paths even after Execute returns.
func (e *Envelope) CurrentUnit() []byte {
	if e.current == nil {
		return nil
	}
	return e.current[:e.currentSize]
}

// Execute runs one (target, input) pair per spec.md §4.3's numbered
// sequence and returns the target's result plus a crash flag. output is
// non-nil only when the target itself reported a crash (via Adapter);
// timeouts and overwrites are reported through the injected hooks
// instead, since — like the source engine — they terminate the process
// rather than returning normally.
func (e *Envelope) Execute(target int, data []byte) (result int, crashed bool, output []byte) {
	// 2. Fresh heap copy, to make overwrite detection meaningful even
	// though Go's GC would otherwise happily tolerate an aliased slice.
	cp := make([]byte, len(data))
	copy(cp, data)

	// 3. Persist for crash diagnostics.
	if e.current != nil && len(data) <= len(e.current) {
		copy(e.current, data)
		e.currentSize = len(data)
	}

	// 4.
	e.unitStart = time.Now()
	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	e.view.ResetMaps(target)

	var timedOut int32
	var timer *time.Timer
	if e.opts.UnitTimeoutSec > 0 {
		timer = time.AfterFunc(time.Duration(e.opts.UnitTimeoutSec)*time.Second, func() {
			atomic.StoreInt32(&timedOut, 1)
			if e.onTimeout != nil {
				e.onTimeout(cp)
			}
		})
	}

	// 5.
	e.runningCB = true
	result, crashed, output = e.adapter.Invoke(target, cp)
	e.runningCB = false

	if timer != nil {
		timer.Stop()
	}

	// 6.
	e.unitStop = time.Now()
	runtime.ReadMemStats(&after)
	e.hasMoreMallocsThanFrees = (after.Mallocs - before.Mallocs) > (after.Frees - before.Frees)

	if crashed {
		return result, true, output
	}

	// 7.
	if !looseMemeq(cp, data) {
		if e.onOverwrite != nil {
			e.onOverwrite(cp)
		}
		return result, true, nil
	}

	// 8. (nothing to free explicitly under GC)
	return result, false, nil
}

// ElapsedSec is the wall-clock duration of the most recently completed
// callback.
func (e *Envelope) ElapsedSec() float64 {
	return e.unitStop.Sub(e.unitStart).Seconds()
}

// HasMoreMallocsThanFrees reports the alloc/free imbalance sampled around
// the most recent Execute call.
func (e *Envelope) HasMoreMallocsThanFrees() bool {
	return e.hasMoreMallocsThanFrees
}

// looseMemeq implements spec.md §4.3 step 7's sampled-equality check:
// full compare for size <= 64, first/last 32 bytes above that.
func looseMemeq(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	const limit = 64
	if len(a) <= limit {
		return bytes.Equal(a, b)
	}
	half := limit / 2
	return bytes.Equal(a[:half], b[:half]) && bytes.Equal(a[len(a)-half:], b[len(b)-half:])
}
