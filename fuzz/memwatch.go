// Copyright 2015 go-fuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package fuzz

import (
	"runtime"
	"time"
)

// WatchRSS polls the process's resident memory once a second and calls
// the OOM fatal path once it exceeds Options.RssLimitMb, exactly the way
// the source engine's RssLimitCallback is driven by a periodic timer
// rather than a per-allocation hook. It returns at once when RssLimitMb is
// not positive and otherwise never returns; callers run it in its own
// goroutine (grounded on runtime/coordinator_main.go's
// watchForHangingInputs, the same ticker-and-panic shape applied to a
// different signal).
func (e *Engine) WatchRSS() {
	if e.opts.RssLimitMb <= 0 {
		return
	}
	limit := uint64(e.opts.RssLimitMb) << 20
	for range time.Tick(time.Second) {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		if ms.Sys > limit {
			e.fatal(KindOOM, "oom", e.env.CurrentUnit(), nil)
		}
	}
}
