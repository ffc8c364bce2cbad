// Copyright 2015 go-fuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// +build darwin linux freebsd dragonfly openbsd netbsd

// Package shmem implements the equivalence channel between two paired
// differential-fuzzing processes: a memory-mapped region carrying the
// output each side just produced, plus a pipe pair used as a post/wait
// semaphore so neither side reads the region before the other finished
// writing it. It is for two engine processes that fuzz the same corpus
// against two different builds of a target and compare outputs
// out-of-process instead of in-process; cmd/difffuzz does not use it.
package shmem

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"syscall"
)

// Region is one side of the shared-memory equivalence channel, grounded
// on runtime/coordinator_sys_posix.go's createMapping (the mmap half)
// and go-fuzz/testee.go's os.Pipe-based signaling (the post/wait half).
type Region struct {
	f      *os.File
	mem    []byte
	postW  *os.File
	waitR  *os.File
}

// Create allocates a size-byte backing file at path, maps it, and
// returns a Region ready for AnnounceOutput/AwaitOutput once the peer has opened the
// same path and the two processes have exchanged their pipe ends
// through cmd.ExtraFiles the way setupCommMapping does.
func Create(path string, size int, postW, waitR *os.File) (*Region, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("shmem: could not create %s: %w", path, err)
	}
	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		return nil, fmt.Errorf("shmem: could not size %s: %w", path, err)
	}
	mem, err := syscall.Mmap(int(f.Fd()), 0, size, syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("shmem: could not mmap %s: %w", path, err)
	}
	return &Region{f: f, mem: mem, postW: postW, waitR: waitR}, nil
}

// Close unmaps and closes the backing file. It does not remove path.
func (r *Region) Close() error {
	if err := syscall.Munmap(r.mem); err != nil {
		return err
	}
	return r.f.Close()
}

// AnnounceOutput writes result into the shared region and posts the
// semaphore, the equivalent of the source engine's
// SharedMemoryRegion::PostAndWait pairing used to hand an output vector
// to a peer process for out-of-process differential comparison.
func (r *Region) AnnounceOutput(result int) error {
	binary.LittleEndian.PutUint64(r.mem, uint64(uint32(result)))
	_, err := r.postW.Write([]byte{1})
	return err
}

// AwaitOutput blocks until the peer has called AnnounceOutput and
// returns the value it wrote.
func (r *Region) AwaitOutput() (int, error) {
	var b [1]byte
	if _, err := io.ReadFull(r.waitR, b[:]); err != nil {
		return 0, fmt.Errorf("shmem: wait failed: %w", err)
	}
	return int(int32(binary.LittleEndian.Uint64(r.mem))), nil
}
