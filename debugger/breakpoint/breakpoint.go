// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package breakpoint is the software-breakpoint engine: it installs
// INT3 (0xCC) over the target instruction's first byte, detects hits on
// stop, and transparently restores the original byte so the tracee can
// resume executing its own code.
package breakpoint

import "tinydbg/arch"

// Memory is the capability the engine needs against tracee memory: a
// word-granular peek/poke pair. debugger.Tracee's low-level peek/poke
// satisfies this.
type Memory interface {
	Peek(addr uint64) (uint64, error)
	Poke(addr uint64, word uint64) error
}

// Table is the append-between-hits breakpoint set, keyed by absolute
// tracee virtual address. While an entry exists, the invariant is that
// the low byte at its address in tracee memory is 0xCC and the saved
// word holds the pre-installation content at that position.
type Table struct {
	saved map[uint64]uint64
}

// NewTable returns an empty breakpoint table.
func NewTable() *Table {
	return &Table{saved: make(map[uint64]uint64)}
}

// Has reports whether a breakpoint is currently armed at addr.
func (t *Table) Has(addr uint64) bool {
	_, ok := t.saved[addr]
	return ok
}

// Set installs a breakpoint at addr. A second call at an
// already-armed address is a no-op success.
func (t *Table) Set(mem Memory, addr uint64) error {
	if t.Has(addr) {
		return nil
	}

	word, err := mem.Peek(addr)
	if err != nil {
		return err
	}
	patched := (word &^ 0xFF) | arch.BreakpointOpcode
	if err := mem.Poke(addr, patched); err != nil {
		return err
	}
	// Only recorded once the poke has succeeded, so an install
	// failure never leaves a half-armed entry in the table.
	t.saved[addr] = word
	return nil
}

// RegisterFile is the minimal register capability HandleHit needs: read
// and write RIP.
type RegisterFile interface {
	RIP() uint64
	SetRIP(uint64)
}

// HandleHit inspects the just-stopped tracee's RIP. If it sits one byte
// past an armed breakpoint (RIP-1 is in the table, since INT3 advances
// RIP by one past the trap byte), the entry is removed, RIP is backed up
// to the breakpoint address, and the original byte is written back --
// atomically restoring the pre-installation instruction. The caller is
// responsible for pushing the adjusted register file back to the
// tracee with set_regs; HandleHit only mutates regs in memory.
//
// It reports whether a breakpoint fired.
func (t *Table) HandleHit(mem Memory, regs RegisterFile) (bool, error) {
	addr := regs.RIP() - 1
	word, ok := t.saved[addr]
	if !ok {
		return false, nil
	}
	delete(t.saved, addr)

	regs.SetRIP(addr)
	if err := mem.Poke(addr, word); err != nil {
		return false, err
	}
	return true, nil
}
