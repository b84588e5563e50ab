// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package registers is a typed mirror of the x86-64 general-purpose
// register set, round-tripping losslessly to and from the OS register
// block (unix.PtraceRegs) and supporting lookup by canonical lowercase
// name.
package registers

import "golang.org/x/sys/unix"

// Snapshot holds the full GPR set plus segment and flags registers, as
// captured by a single PTRACE_GETREGS call.
type Snapshot struct {
	R15, R14, R13, R12 uint64
	Rbp, Rbx           uint64
	R11, R10, R9, R8   uint64
	Rax, Rcx, Rdx      uint64
	Rsi, Rdi           uint64
	OrigRax            uint64
	Rip                uint64
	Cs                 uint64
	Eflags             uint64
	Rsp                uint64
	Ss                 uint64
	FsBase, GsBase     uint64
	Ds, Es, Fs, Gs     uint64
}

// FromOS converts the OS register-block layout into a Snapshot.
func FromOS(r unix.PtraceRegs) Snapshot {
	return Snapshot{
		R15: r.R15, R14: r.R14, R13: r.R13, R12: r.R12,
		Rbp: r.Rbp, Rbx: r.Rbx,
		R11: r.R11, R10: r.R10, R9: r.R9, R8: r.R8,
		Rax: r.Rax, Rcx: r.Rcx, Rdx: r.Rdx,
		Rsi: r.Rsi, Rdi: r.Rdi,
		OrigRax: r.Orig_rax,
		Rip:     r.Rip,
		Cs:      r.Cs,
		Eflags:  r.Eflags,
		Rsp:     r.Rsp,
		Ss:      r.Ss,
		FsBase:  r.Fs_base, GsBase: r.Gs_base,
		Ds: r.Ds, Es: r.Es, Fs: r.Fs, Gs: r.Gs,
	}
}

// ToOS converts a Snapshot back into the OS register-block layout.
func (s Snapshot) ToOS() unix.PtraceRegs {
	return unix.PtraceRegs{
		R15: s.R15, R14: s.R14, R13: s.R13, R12: s.R12,
		Rbp: s.Rbp, Rbx: s.Rbx,
		R11: s.R11, R10: s.R10, R9: s.R9, R8: s.R8,
		Rax: s.Rax, Rcx: s.Rcx, Rdx: s.Rdx,
		Rsi: s.Rsi, Rdi: s.Rdi,
		Orig_rax: s.OrigRax,
		Rip:      s.Rip,
		Cs:       s.Cs,
		Eflags:   s.Eflags,
		Rsp:      s.Rsp,
		Ss:       s.Ss,
		Fs_base:  s.FsBase, Gs_base: s.GsBase,
		Ds: s.Ds, Es: s.Es, Fs: s.Fs, Gs: s.Gs,
	}
}

// Get looks up a register by its canonical lowercase name, returning
// (value, true) when known.
func (s Snapshot) Get(name string) (uint64, bool) {
	switch name {
	case "r15":
		return s.R15, true
	case "r14":
		return s.R14, true
	case "r13":
		return s.R13, true
	case "r12":
		return s.R12, true
	case "rbp":
		return s.Rbp, true
	case "rbx":
		return s.Rbx, true
	case "r11":
		return s.R11, true
	case "r10":
		return s.R10, true
	case "r9":
		return s.R9, true
	case "r8":
		return s.R8, true
	case "rax":
		return s.Rax, true
	case "rcx":
		return s.Rcx, true
	case "rdx":
		return s.Rdx, true
	case "rsi":
		return s.Rsi, true
	case "rdi":
		return s.Rdi, true
	case "orig_rax":
		return s.OrigRax, true
	case "rip":
		return s.Rip, true
	case "cs":
		return s.Cs, true
	case "eflags":
		return s.Eflags, true
	case "rsp":
		return s.Rsp, true
	case "ss":
		return s.Ss, true
	case "fs_base":
		return s.FsBase, true
	case "gs_base":
		return s.GsBase, true
	case "ds":
		return s.Ds, true
	case "es":
		return s.Es, true
	case "fs":
		return s.Fs, true
	case "gs":
		return s.Gs, true
	default:
		return 0, false
	}
}

// Names lists every register name Get recognizes, in the order the
// "regs"/"registers" shell command should print them.
var Names = []string{
	"rip", "rsp", "rbp",
	"rax", "rbx", "rcx", "rdx",
	"rsi", "rdi",
	"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15",
	"orig_rax", "cs", "eflags", "ss", "fs_base", "gs_base",
	"ds", "es", "fs", "gs",
}
