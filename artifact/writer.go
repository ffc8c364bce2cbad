// Copyright 2015 go-fuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package artifact writes fuzzing artifacts — crashers, timeouts,
// divergence diffs, slow units — and output-corpus entries to disk,
// one file per unit keyed by its content hash.
package artifact

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/bradleyjkemp/simple-difffuzz/sig"
)

// Writer implements fuzz.ArtifactWriter and fuzz.SeedSource against a
// plain directory tree: artifacts land next to the working directory
// under the configured prefix, output-corpus entries land one file per
// unit under OutputCorpus.
type Writer struct {
	ArtifactPrefix    string
	ExactArtifactPath string
	OutputCorpus      string
}

// New returns a Writer, creating OutputCorpus if it is set and does not
// already exist.
func New(artifactPrefix, exactArtifactPath, outputCorpus string) (*Writer, error) {
	w := &Writer{ArtifactPrefix: artifactPrefix, ExactArtifactPath: exactArtifactPath, OutputCorpus: outputCorpus}
	if outputCorpus != "" {
		if err := os.MkdirAll(outputCorpus, 0700); err != nil {
			return nil, fmt.Errorf("artifact: could not create output corpus dir %s: %w", outputCorpus, err)
		}
	}
	return w, nil
}

// WriteUnitToFileWithPrefix writes data to <prefix><hash>, where prefix is
// ArtifactPrefix+the caller's own sub-prefix (e.g. "crash-", "timeout-"),
// unless ExactArtifactPath overrides the whole path. It returns the path
// written, for the caller to print in its "saved as:" line.
func (w *Writer) WriteUnitToFileWithPrefix(data []byte, prefix string) string {
	path := w.ExactArtifactPath
	if path == "" {
		name := prefix + sig.Hash(data).String()
		path = w.ArtifactPrefix + name
	}
	if err := ioutil.WriteFile(path, data, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "artifact: failed to write %s: %v\n", path, err)
	}
	return path
}

// WriteToOutputCorpus writes data into OutputCorpus keyed by content
// hash, silently doing nothing if OutputCorpus is unset — mirroring the
// source engine treating an unset -artifact_prefix / no output corpus as
// "don't persist".
func (w *Writer) WriteToOutputCorpus(data []byte) {
	if w.OutputCorpus == "" {
		return
	}
	path := filepath.Join(w.OutputCorpus, sig.Hash(data).String())
	if _, err := os.Stat(path); err == nil {
		return
	}
	if err := ioutil.WriteFile(path, data, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "artifact: failed to write %s: %v\n", path, err)
	}
}

// ReadSeeds implements fuzz.SeedSource: every regular file directly under
// OutputCorpus is a seed.
func (w *Writer) ReadSeeds() ([][]byte, error) {
	if w.OutputCorpus == "" {
		return nil, nil
	}
	entries, err := ioutil.ReadDir(w.OutputCorpus)
	if err != nil {
		return nil, fmt.Errorf("artifact: could not list %s: %w", w.OutputCorpus, err)
	}
	var seeds [][]byte
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		data, err := ioutil.ReadFile(filepath.Join(w.OutputCorpus, ent.Name()))
		if err != nil {
			continue
		}
		seeds = append(seeds, data)
	}
	return seeds, nil
}

// ReadNewSince implements the corpus reload protocol's polling half: any
// regular file whose mtime is newer than epoch (a Unix timestamp) is
// returned, and the new epoch to poll from next is the latest mtime seen.
func (w *Writer) ReadNewSince(epoch int64) (files [][]byte, newEpoch int64, err error) {
	if w.OutputCorpus == "" {
		return nil, epoch, nil
	}
	entries, err := ioutil.ReadDir(w.OutputCorpus)
	if err != nil {
		return nil, epoch, fmt.Errorf("artifact: could not list %s: %w", w.OutputCorpus, err)
	}
	newEpoch = epoch
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		mtime := ent.ModTime().Unix()
		if mtime <= epoch {
			continue
		}
		data, readErr := ioutil.ReadFile(filepath.Join(w.OutputCorpus, ent.Name()))
		if readErr != nil {
			continue
		}
		files = append(files, data)
		if mtime > newEpoch {
			newEpoch = mtime
		}
	}
	return files, newEpoch, nil
}
