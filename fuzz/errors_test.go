package fuzz

import "testing"

func TestExitCodeOOMUsesErrorExitCode(t *testing.T) {
	opts := DefaultOptions()
	if got := KindOOM.exitCode(&opts); got != opts.ErrorExitCode {
		t.Fatalf("KindOOM.exitCode() = %d, want ErrorExitCode %d", got, opts.ErrorExitCode)
	}
}

func TestExitCodeTimeoutUsesTimeoutExitCode(t *testing.T) {
	opts := DefaultOptions()
	if got := KindTimeout.exitCode(&opts); got != opts.TimeoutExitCode {
		t.Fatalf("KindTimeout.exitCode() = %d, want TimeoutExitCode %d", got, opts.TimeoutExitCode)
	}
}
