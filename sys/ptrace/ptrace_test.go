// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ptrace

import (
	"syscall"
	"testing"

	"golang.org/x/sys/unix"
)

// These raw wait(2) status words follow the same bit layout the teacher's
// ptrace demo used to sanity-check its own wait loop: a low byte of 0x7f
// means stopped, with the stopping signal in the next byte up; low 7 bits
// of zero mean exited, with the exit code in the next byte up; any other
// low 7 bits are the terminating signal.
func TestClassifyExited(t *testing.T) {
	ws := classify(123, unix.WaitStatus(0x0000)) // exit status 0
	if ws.Kind != Exited {
		t.Fatalf("Kind = %v, want Exited", ws.Kind)
	}
	if ws.Code != 0 {
		t.Fatalf("Code = %d, want 0", ws.Code)
	}
	if ws.Pid != 123 {
		t.Fatalf("Pid = %d, want 123", ws.Pid)
	}
}

func TestClassifyStoppedOnTrap(t *testing.T) {
	ws := classify(123, unix.WaitStatus(0x057f)) // SIGTRAP<<8 | 0x7f
	if ws.Kind != Stopped {
		t.Fatalf("Kind = %v, want Stopped", ws.Kind)
	}
	if ws.Signal != syscall.SIGTRAP {
		t.Fatalf("Signal = %v, want SIGTRAP", ws.Signal)
	}
}

func TestClassifySignaled(t *testing.T) {
	ws := classify(123, unix.WaitStatus(0x000b)) // terminated by SIGSEGV, no core
	if ws.Kind != Signaled {
		t.Fatalf("Kind = %v, want Signaled", ws.Kind)
	}
	if ws.Signal != syscall.SIGSEGV {
		t.Fatalf("Signal = %v, want SIGSEGV", ws.Signal)
	}
}

func TestAsErrnoWrapsSyscallErrno(t *testing.T) {
	err := asErrno(syscall.ESRCH)
	if err == nil {
		t.Fatalf("asErrno(ESRCH) = nil")
	}
}

func TestAsErrnoNil(t *testing.T) {
	if err := asErrno(nil); err != nil {
		t.Fatalf("asErrno(nil) = %v, want nil", err)
	}
}
