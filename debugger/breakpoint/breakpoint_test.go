// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package breakpoint

import "testing"

type fakeMemory struct {
	words map[uint64]uint64
}

func (m *fakeMemory) Peek(addr uint64) (uint64, error) {
	return m.words[addr], nil
}

func (m *fakeMemory) Poke(addr uint64, word uint64) error {
	m.words[addr] = word
	return nil
}

type fakeRegs struct {
	rip uint64
}

func (r *fakeRegs) RIP() uint64     { return r.rip }
func (r *fakeRegs) SetRIP(v uint64) { r.rip = v }

func TestSetIsIdempotent(t *testing.T) {
	const addr = 0x401000
	mem := &fakeMemory{words: map[uint64]uint64{addr: 0x1122334455667788}}
	tbl := NewTable()

	if err := tbl.Set(mem, addr); err != nil {
		t.Fatalf("first Set: %v", err)
	}
	first := mem.words[addr]

	if err := tbl.Set(mem, addr); err != nil {
		t.Fatalf("second Set: %v", err)
	}
	second := mem.words[addr]

	if first != second {
		t.Fatalf("memory changed across idempotent Set: %#x != %#x", first, second)
	}
	if byte(first) != 0xCC {
		t.Fatalf("low byte = %#x, want 0xCC", byte(first))
	}
	if first&^0xFF != 0x1122334455667700 {
		t.Fatalf("upper 56 bits not preserved: got %#x", first)
	}
}

func TestHandleHitRestoresAndBacksUpRIP(t *testing.T) {
	const addr = 0x401000
	const original = 0x1122334455667788

	mem := &fakeMemory{words: map[uint64]uint64{addr: original}}
	tbl := NewTable()
	if err := tbl.Set(mem, addr); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// INT3 advances RIP to one past the trap byte.
	regs := &fakeRegs{rip: addr + 1}

	hit, err := tbl.HandleHit(mem, regs)
	if err != nil {
		t.Fatalf("HandleHit: %v", err)
	}
	if !hit {
		t.Fatalf("HandleHit reported no hit")
	}

	if regs.rip != addr {
		t.Fatalf("RIP = %#x, want %#x", regs.rip, addr)
	}
	if mem.words[addr] != original {
		t.Fatalf("memory = %#x, want restored %#x", mem.words[addr], uint64(original))
	}
	if tbl.Has(addr) {
		t.Fatalf("breakpoint still present in table after hit")
	}
}

func TestHandleHitNoBreakpointIsNoOp(t *testing.T) {
	mem := &fakeMemory{words: map[uint64]uint64{}}
	tbl := NewTable()
	regs := &fakeRegs{rip: 0x500001}

	hit, err := tbl.HandleHit(mem, regs)
	if err != nil {
		t.Fatalf("HandleHit: %v", err)
	}
	if hit {
		t.Fatalf("HandleHit reported a hit where none was armed")
	}
	if regs.rip != 0x500001 {
		t.Fatalf("RIP mutated despite no hit: %#x", regs.rip)
	}
}
