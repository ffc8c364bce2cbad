// Copyright 2015 go-fuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Command difffuzz drives the differential fuzzing engine against a
// registered target group.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/bradleyjkemp/simple-difffuzz/artifact"
	"github.com/bradleyjkemp/simple-difffuzz/corpus"
	_ "github.com/bradleyjkemp/simple-difffuzz/examples/rle"
	"github.com/bradleyjkemp/simple-difffuzz/fuzz"
	"github.com/bradleyjkemp/simple-difffuzz/mutate"
	"github.com/bradleyjkemp/simple-difffuzz/target"
)

var (
	flagFunc         = flag.String("func", "", "registered differential target group to fuzz")
	flagWorkdir      = flag.String("workdir", ".", "dir with persistent corpus data")
	flagMaxLen       = flag.Int("max_len", 4096, "maximum length of a mutated input")
	flagTimeout      = flag.Int("timeout", 10, "per-input timeout, in seconds")
	flagRssLimitMb   = flag.Int("rss_limit_mb", 2048, "memory usage limit in Mb, 0 to disable")
	flagRuns         = flag.Int("runs", 0, "number of individual test runs, 0 for no limit")
	flagMaxTotalTime = flag.Int("max_total_time", 0, "stop after this many seconds, 0 for no limit")
	flagV            = flag.Int("v", 0, "verbosity level")
	flagDetectLeaks  = flag.Bool("detect_leaks", true, "try to detect memory leaks")
	flagReloadSec    = flag.Int("reload", 1, "corpus reload interval, in seconds")
	flagSeed         = flag.Int64("seed", 0, "PRNG seed, 0 to derive from the current time")
	flagExitOnSrcPos = flag.String("exit_on_src_pos", "", "exit with code 0 once a covered edge's descriptor contains this substring")
	flagExitOnItem   = flag.String("exit_on_item", "", "exit with code 0 once a unit with this content-hash checksum is produced")
)

func main() {
	flag.Parse()

	names := target.Names()
	if len(names) == 0 {
		log.Fatal("no differential target groups registered")
	}
	if *flagFunc == "" {
		log.Printf("target groups available: %v", names)
		*flagFunc = names[0]
	}
	targets, ok := target.Lookup(*flagFunc)
	if !ok {
		log.Fatalf("no target group named %q", *flagFunc)
	}
	log.Printf("fuzzing target group %q (%d targets)", *flagFunc, len(targets))

	runtime.GOMAXPROCS(runtime.NumCPU())
	debug.SetGCPercent(50) // most memory is in mutated input buffers

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		<-c
		log.Printf("shutting down...")
		cancel()
	}()

	outputCorpus := filepath.Join(*flagWorkdir, "corpus")
	artifactPrefix := filepath.Join(*flagWorkdir) + string(filepath.Separator)

	writer, err := artifact.New(artifactPrefix, "", outputCorpus)
	if err != nil {
		log.Fatalf("%v", err)
	}

	seeds, err := writer.ReadSeeds()
	if err != nil {
		log.Fatalf("%v", err)
	}
	if len(seeds) == 0 {
		seeds = [][]byte{{}}
	}

	opts := fuzz.DefaultOptions()
	opts.MaxLen = *flagMaxLen
	opts.UnitTimeoutSec = *flagTimeout
	opts.RssLimitMb = *flagRssLimitMb
	opts.MaxNumberOfRuns = uint64(*flagRuns)
	opts.WallClockTimeout = *flagMaxTotalTime
	opts.Verbosity = *flagV
	opts.DetectLeaks = *flagDetectLeaks
	opts.DifferentialMode = len(targets) > 1
	opts.OutputCorpus = outputCorpus
	opts.ReloadIntervalSec = *flagReloadSec
	opts.ArtifactPrefix = artifactPrefix
	opts.SaveArtifacts = true
	opts.Stdout = os.Stdout
	opts.ExitOnSrcPos = *flagExitOnSrcPos
	opts.ExitOnItem = *flagExitOnItem

	seed := *flagSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	c := corpus.New(opts.MaxLen)
	m := mutate.New(seed, nil)
	a := target.New(targets...)

	pcsPerTarget := make([]int, len(targets))
	for i := range pcsPerTarget {
		pcsPerTarget[i] = coverageTableSize
	}

	engine := fuzz.NewEngine(opts, c, m, a, writer, pcsPerTarget)

	go engine.WatchRSS()
	go func() {
		<-ctx.Done()
		engine.PrintFinalStats()
		os.Exit(0)
	}()

	engine.Loop(seeds, writer)
	engine.PrintFinalStats()
}

// coverageTableSize is the edge-count reserved per target module.
// Targets that call coverage.Hit at only a handful of sites never come
// close to it; it exists so ResetMaps doesn't need each target to
// self-report its own PC count.
const coverageTableSize = 1 << 16
