// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package debugger implements the tracee lifecycle and stop/continue
// state machine: it spawns a tracee, steps or continues it, reads and
// mutates its memory and registers, and exposes the breakpoint engine
// and the symbol/line resolver to an outer shell.
//
// All tracee control happens on one controlling goroutine/OS thread;
// the debugger never races itself. Every resume (Step, Cont) is
// immediately followed by a blocking wait, and memory/register
// accessors are only meaningful once that wait has returned Stopped.
package debugger

import (
	"debug/dwarf"
	"debug/elf"
	"encoding/binary"
	"log"
	"os"

	"tinydbg/arch"
	"tinydbg/dbgerr"
	"tinydbg/debugger/auxv"
	"tinydbg/debugger/breakpoint"
	"tinydbg/debugger/dwarfinfo"
	"tinydbg/debugger/registers"
	"tinydbg/debugger/symbols"
	"tinydbg/sys/ptrace"
)

var defaultLogger = log.New(os.Stderr, "", log.LstdFlags)

// Tracee owns everything the debugger knows about one traced process:
// its pid, last wait status, register snapshot, a fixed-size stack
// snapshot, its breakpoint table, resolved debug info, auxiliary-vector
// entries, and its relocated symbol table.
type Tracee struct {
	pid         int
	waitStatus  ptrace.WaitStatus
	regs        registers.Snapshot
	stack       []uint64
	breakpoints *breakpoint.Table
	symtab      *symbols.Table
	dbgInfo     *dwarfinfo.Info
	auxVec      []auxv.Entry
	loadBias    uint64
	logger      *log.Logger
}

// SetLogger overrides the logger used to report breakpoint hits. The
// default writes to stderr.
func (t *Tracee) SetLogger(l *log.Logger) {
	t.logger = l
}

// Spawn forks a child that requests tracing and execs cmd, then parses
// cmd[0]'s ELF symbols and DWARF debug info, observes the initial
// SIGTRAP stop, reads the auxiliary vector, computes the runtime load
// bias from AT_ENTRY, and relocates every non-weak symbol by it.
//
// An empty cmd is a *dbgerr.Error of KindString.
func Spawn(cmd []string, noASLR bool) (*Tracee, error) {
	if len(cmd) == 0 {
		return nil, dbgerr.String("empty command given")
	}

	pid, err := ptrace.ForkTraced(cmd, noASLR)
	if err != nil {
		return nil, err
	}

	file, ioErr := os.Open(cmd[0])
	if ioErr != nil {
		return nil, dbgerr.IO(ioErr)
	}
	defer file.Close()

	elfFile, parseErr := elf.NewFile(file)
	if parseErr != nil {
		return nil, dbgerr.Parse(parseErr)
	}

	var dwarfData *dwarf.Data
	if d, err := elfFile.DWARF(); err == nil {
		dwarfData = d
	}

	symTable, err := symbols.Load(elfFile, dwarfData)
	if err != nil {
		return nil, err
	}

	var dbgInfo *dwarfinfo.Info
	if dwarfData != nil {
		dbgInfo, err = dwarfinfo.Load(dwarfData)
		if err != nil {
			return nil, err
		}
	} else {
		dbgInfo = dwarfinfo.Empty()
	}

	t := &Tracee{
		pid:         pid,
		breakpoints: breakpoint.NewTable(),
		symtab:      symTable,
		dbgInfo:     dbgInfo,
		logger:      defaultLogger,
	}

	// Observe the initial SIGTRAP stop after exec.
	if err := t.fetchState(); err != nil {
		return nil, err
	}

	entries, err := auxv.Read(t, t)
	if err != nil {
		return nil, err
	}
	t.auxVec = entries

	if atEntry, ok := auxv.EntryAddrValue(entries); ok {
		t.loadBias = atEntry - symTable.Entry
		symTable.Relocate(t.loadBias)
	}

	return t, nil
}

// Step issues a single-instruction resume and re-fetches state.
func (t *Tracee) Step() error {
	if err := ptrace.SingleStep(t.pid); err != nil {
		return err
	}
	return t.fetchState()
}

// Cont resumes the tracee until its next stop and re-fetches state.
func (t *Tracee) Cont() error {
	if err := ptrace.Cont(t.pid); err != nil {
		return err
	}
	return t.fetchState()
}

// Peek reads one machine word at addr. It, along with Poke, is the
// Memory capability the breakpoint engine installs and restores
// through.
func (t *Tracee) Peek(addr uint64) (uint64, error) {
	return ptrace.Peek(t.pid, uintptr(addr))
}

// Poke writes one machine word at addr.
func (t *Tracee) Poke(addr uint64, word uint64) error {
	return ptrace.Poke(t.pid, uintptr(addr), word)
}

// RIP returns the current value of the instruction pointer, satisfying
// breakpoint.RegisterFile.
func (t *Tracee) RIP() uint64 { return t.regs.Rip }

// SetRIP sets the in-memory register snapshot's instruction pointer.
// The caller (fetchState) is responsible for pushing the change back to
// the OS with set_regs.
func (t *Tracee) SetRIP(v uint64) { t.regs.Rip = v }

// StackPointer reports the current stack pointer, satisfying
// auxv.RegisterSource.
func (t *Tracee) StackPointer() uint64 { return t.regs.Rsp }

// ReadBytes assembles exactly n bytes starting at addr out of
// word-granular peeks, in native (little-endian) byte order.
func (t *Tracee) ReadBytes(addr uint64, n int) ([]byte, error) {
	out := make([]byte, 0, n)
	for i := 0; len(out) < n; i++ {
		word, err := t.Peek(addr + uint64(arch.WordSize*i))
		if err != nil {
			return nil, err
		}
		var buf [arch.WordSize]byte
		binary.LittleEndian.PutUint64(buf[:], word)
		for _, b := range buf {
			if len(out) == n {
				break
			}
			out = append(out, b)
		}
	}
	return out, nil
}

// ReadWords reads exactly n consecutive machine words starting at addr.
func (t *Tracee) ReadWords(addr uint64, n int) ([]uint64, error) {
	words := make([]uint64, n)
	for i := 0; i < n; i++ {
		w, err := t.Peek(addr + uint64(arch.WordSize*i))
		if err != nil {
			return nil, err
		}
		words[i] = w
	}
	return words, nil
}

// Breakpoint installs a software breakpoint at addr. A second call at
// an already-armed address is a no-op success.
func (t *Tracee) Breakpoint(addr uint64) error {
	return t.breakpoints.Set(t, addr)
}

// Registers returns the most recently fetched register snapshot.
func (t *Tracee) Registers() registers.Snapshot { return t.regs }

// Stack returns the fixed-size stack snapshot captured above RSP on the
// last stop.
func (t *Tracee) Stack() []uint64 { return t.stack }

// Symbols returns every loaded symbol.
func (t *Tracee) Symbols() []*symbols.Symbol { return t.symtab.All() }

// Symbol returns the first exact name match.
func (t *Tracee) Symbol(name string) (*symbols.Symbol, bool) {
	return t.symtab.Symbol(name)
}

// SymbolForPC returns the symbol covering pc, if any.
func (t *Tracee) SymbolForPC(pc uint64) (*symbols.Symbol, bool) {
	return t.symtab.ForPC(pc)
}

// Instructions reads the full extent [sym.Value, sym.Value+sym.Size) of
// a symbol, for disassembly.
func (t *Tracee) Instructions(sym *symbols.Symbol) ([]byte, error) {
	return t.ReadBytes(sym.Value, int(sym.Size))
}

// DebugInfo returns the resolved DWARF line-program information.
func (t *Tracee) DebugInfo() *dwarfinfo.Info { return t.dbgInfo }

// AuxVec returns the auxiliary vector entries read at spawn time.
func (t *Tracee) AuxVec() []auxv.Entry { return t.auxVec }

// LoadBias returns the computed runtime load bias (AT_ENTRY minus the
// file's entry point).
func (t *Tracee) LoadBias() uint64 { return t.loadBias }

// ExitStatus reports the tracee's exit code, once it has exited.
func (t *Tracee) ExitStatus() (int, bool) {
	if t.waitStatus.Kind == ptrace.Exited {
		return t.waitStatus.Code, true
	}
	return 0, false
}

// fetchState is the heart of the state machine:
//  1. Wait. Store the wait status.
//  2. If Stopped: re-read registers, snapshot the stack above RSP, and
//     let the breakpoint engine consult and, if it fired, roll back RIP
//     and restore the original instruction byte.
//  3. If Exited: leave registers unchanged; ExitStatus will now return
//     a value.
//  4. Otherwise: record the status but do not inspect tracee memory.
func (t *Tracee) fetchState() error {
	ws, err := ptrace.WaitAny()
	if err != nil {
		return err
	}
	t.waitStatus = ws

	switch ws.Kind {
	case ptrace.Stopped:
		osRegs, err := ptrace.GetRegs(t.pid)
		if err != nil {
			return err
		}
		t.regs = registers.FromOS(osRegs)

		words, err := t.ReadWords(t.regs.Rsp, arch.StackSnapshotWords)
		if err != nil {
			return err
		}
		t.stack = words

		hit, err := t.breakpoints.HandleHit(t, t)
		if err != nil {
			return err
		}
		if hit {
			osRegs := t.regs.ToOS()
			if err := ptrace.SetRegs(t.pid, &osRegs); err != nil {
				return err
			}
			t.logger.Printf("hit breakpoint: %#x", t.regs.Rip)
		}
	case ptrace.Exited:
		// Registers are stale on purpose; ExitStatus is now valid.
	default:
		// Signaled, Continued, or Unknown: record only.
	}
	return nil
}
