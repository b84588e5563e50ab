// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ptrace is a small, errno-checked capability surface over the
// Linux debug-tracing primitives: fork+traceme+exec, wait, peek/poke,
// and bulk register transfer. Every operation here is attempted exactly
// once; there are no retry loops. A failing ptrace or wait call is
// reported as the kernel's errno wrapped in a *dbgerr.Error (process
// start failures and short peek/poke transfers use the IO and String
// kinds instead), rather than inferred from a
// call's return value, since PeekText in particular returns the peeked
// word as its "return value" and legitimately returns -1 on success.
// golang.org/x/sys/unix's raw syscall stubs already do the clear-before/
// read-after errno dance; this package's job is only to make sure a
// non-nil error always wins over a suspicious-looking return value.
package ptrace

import (
	"encoding/binary"
	"os"
	"os/exec"
	"runtime"
	"syscall"

	"golang.org/x/sys/unix"

	"tinydbg/arch"
	"tinydbg/dbgerr"
)

// WaitStatusKind is the classification of a process-state change
// returned by WaitAny.
type WaitStatusKind int

const (
	Stopped WaitStatusKind = iota
	Continued
	Exited
	Signaled
	Unknown
)

// WaitStatus is a tagged union over the outcomes wait_any can observe.
type WaitStatus struct {
	Kind   WaitStatusKind
	Pid    int
	Signal syscall.Signal
	Code   int
	Raw    unix.WaitStatus
}

func classify(pid int, ws unix.WaitStatus) WaitStatus {
	switch {
	case ws.Exited():
		return WaitStatus{Kind: Exited, Pid: pid, Code: ws.ExitStatus(), Raw: ws}
	case ws.Signaled():
		return WaitStatus{Kind: Signaled, Pid: pid, Signal: ws.Signal(), Raw: ws}
	case ws.Stopped():
		return WaitStatus{Kind: Stopped, Pid: pid, Signal: ws.StopSignal(), Raw: ws}
	case ws.Continued():
		return WaitStatus{Kind: Continued, Pid: pid, Raw: ws}
	default:
		return WaitStatus{Kind: Unknown, Pid: pid, Raw: ws}
	}
}

func asErrno(err error) error {
	if err == nil {
		return nil
	}
	if errno, ok := err.(syscall.Errno); ok {
		return dbgerr.Errno(errno)
	}
	return dbgerr.String("%v", err)
}

// ForkTraced forks the calling process. The child requests to be traced
// and execs cmd; the parent returns with the child's pid.
//
// ptrace state is per-thread: every later ptrace call for this pid must
// come from the same OS thread that attached to it, so ForkTraced locks
// the calling goroutine to its OS thread and never unlocks it; callers
// must keep driving the tracee from that same goroutine.
func ForkTraced(cmd []string, noASLR bool) (pid int, err error) {
	if len(cmd) == 0 {
		return 0, dbgerr.String("empty command given")
	}

	runtime.LockOSThread()

	if noASLR {
		// personality(2) flags are inherited across both fork and
		// execve, so disabling ASLR here in the parent before
		// spawning makes the tracee's load bias deterministic.
		if _, _, errno := unix.Syscall(unix.SYS_PERSONALITY, uintptr(unix.ADDR_NO_RANDOMIZE), 0, 0); errno != 0 {
			return 0, dbgerr.Errno(errno)
		}
	}

	argv0, lookErr := exec.LookPath(cmd[0])
	if lookErr != nil {
		return 0, dbgerr.IO(lookErr)
	}

	proc, startErr := os.StartProcess(argv0, cmd, &os.ProcAttr{
		Files: []*os.File{os.Stdin, os.Stdout, os.Stderr},
		Sys: &syscall.SysProcAttr{
			Ptrace:    true,
			Pdeathsig: syscall.SIGKILL,
		},
	})
	if startErr != nil {
		return 0, dbgerr.IO(startErr)
	}

	return proc.Pid, nil
}

// WaitAny blocks until some child changes state and classifies it.
func WaitAny() (WaitStatus, error) {
	var ws unix.WaitStatus
	pid, err := unix.Wait4(-1, &ws, 0, nil)
	if err != nil {
		return WaitStatus{}, asErrno(err)
	}
	return classify(pid, ws), nil
}

// Peek reads one machine word at addr in the tracee's address space.
func Peek(pid int, addr uintptr) (uint64, error) {
	var buf [arch.WordSize]byte
	n, err := unix.PtracePeekText(pid, addr, buf[:])
	if err != nil {
		return 0, asErrno(err)
	}
	if n != len(buf) {
		return 0, dbgerr.String("peek: read %d bytes, want %d", n, len(buf))
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// Poke writes one machine word at addr in the tracee's address space.
func Poke(pid int, addr uintptr, word uint64) error {
	var buf [arch.WordSize]byte
	binary.LittleEndian.PutUint64(buf[:], word)
	n, err := unix.PtracePokeText(pid, addr, buf[:])
	if err != nil {
		return asErrno(err)
	}
	if n != len(buf) {
		return dbgerr.String("poke: wrote %d bytes, want %d", n, len(buf))
	}
	return nil
}

// GetRegs performs a bulk register-file fetch from the tracee.
func GetRegs(pid int) (unix.PtraceRegs, error) {
	var regs unix.PtraceRegs
	if err := unix.PtraceGetRegs(pid, &regs); err != nil {
		return regs, asErrno(err)
	}
	return regs, nil
}

// SetRegs performs a bulk register-file write to the tracee.
func SetRegs(pid int, regs *unix.PtraceRegs) error {
	if err := unix.PtraceSetRegs(pid, regs); err != nil {
		return asErrno(err)
	}
	return nil
}

// SingleStep resumes the tracee for exactly one instruction.
func SingleStep(pid int) error {
	if err := unix.PtraceSingleStep(pid); err != nil {
		return asErrno(err)
	}
	return nil
}

// Cont resumes the tracee until its next stop.
func Cont(pid int) error {
	if err := unix.PtraceCont(pid, 0); err != nil {
		return asErrno(err)
	}
	return nil
}
