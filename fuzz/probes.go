// Copyright 2015 go-fuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package fuzz

import (
	"fmt"
	"strings"

	"github.com/bradleyjkemp/simple-difffuzz/sig"
)

// checkExitProbes implements the early-exit probes from the option
// surface: ExitOnSrcPos matches against the descriptor of every edge the
// most recent execution hit, ExitOnItem matches the current unit's
// content hash. Either
// match exits the process with code 0, mirroring
// CheckExitOnSrcPosOrItem's "found what I was looking for, stop" role, and
// is only worth calling after a unit has just been folded into the corpus
// or has replaced an existing entry.
func (e *Engine) checkExitProbes(data []byte) {
	if e.opts.ExitOnSrcPos != "" {
		for i, c := range e.view.Snapshot() {
			if c == 0 {
				continue
			}
			if strings.Contains(e.view.DescribeFeature(i), e.opts.ExitOnSrcPos) {
				fmt.Fprintf(e.stdout, "INFO: found line matching '%s', exiting.\n", e.opts.ExitOnSrcPos)
				e.exit(0)
				panic("fuzz: exit func returned")
			}
		}
	}
	if e.opts.ExitOnItem != "" && sig.Hash(data).String() == e.opts.ExitOnItem {
		fmt.Fprintf(e.stdout, "INFO: found item with checksum '%s', exiting.\n", e.opts.ExitOnItem)
		e.exit(0)
		panic("fuzz: exit func returned")
	}
}
