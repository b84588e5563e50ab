// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package auxv

import (
	"encoding/binary"
	"testing"
)

// fakeMemory implements MemoryReader over an in-memory byte image
// addressed starting at base.
type fakeMemory struct {
	base  uint64
	image []byte
}

func (m *fakeMemory) ReadBytes(addr uint64, n int) ([]byte, error) {
	off := addr - m.base
	return m.image[off : off+uint64(n)], nil
}

type fakeRegs struct {
	sp uint64
}

func (r *fakeRegs) StackPointer() uint64 { return r.sp }

func putWord(b []byte, off int, v uint64) {
	binary.LittleEndian.PutUint64(b[off:off+8], v)
}

// TestRead: reading stops at AT_NULL without including it as an entry.
func TestRead(t *testing.T) {
	const base = 0x7ffff000
	const entryAddr = 0x555555554000

	image := make([]byte, 8*8)
	putWord(image, 0, 1)          // argc
	putWord(image, 8, 0x1000)     // argv[0]
	putWord(image, 16, 0)         // argv null terminator
	putWord(image, 24, 0x2000)    // envp[0]
	putWord(image, 32, 0)         // envp null terminator
	putWord(image, 40, 9)         // AT_ENTRY
	putWord(image, 48, entryAddr) // value
	putWord(image, 56, 0)         // AT_NULL (type); value omitted, read() stops here

	mem := &fakeMemory{base: base, image: image}
	regs := &fakeRegs{sp: base - 8} // Read starts at rsp+8 == base

	entries, err := Read(mem, regs)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1 (AT_NULL terminates the vector and is not included)", len(entries))
	}
	if entries[0].Type != EntryAddr || entries[0].Value != entryAddr {
		t.Fatalf("entries[0] = %+v, want {EntryAddr %#x}", entries[0], entryAddr)
	}
}

// TestReadTwoEntries: a synthetic stack image with two auxv pairs
// before AT_NULL yields exactly two typed entries, in order.
func TestReadTwoEntries(t *testing.T) {
	const base = 0x7ffff000
	const entryAddr = 0x555555554000
	const pageSize = 4096

	image := make([]byte, 9*8)
	putWord(image, 0, 1)       // argc
	putWord(image, 8, 0x1000)  // argv[0]
	putWord(image, 16, 0)      // argv null terminator
	putWord(image, 24, 0x2000) // envp[0]
	putWord(image, 32, 0)      // envp null terminator
	putWord(image, 40, 9)      // AT_ENTRY
	putWord(image, 48, entryAddr)
	putWord(image, 56, 6) // AT_PAGESZ
	putWord(image, 64, pageSize)

	mem := &fakeMemory{base: base, image: append(image, make([]byte, 16)...)}
	regs := &fakeRegs{sp: base - 8}

	entries, err := Read(mem, regs)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].Type != EntryAddr || entries[0].Value != entryAddr {
		t.Fatalf("entries[0] = %+v", entries[0])
	}
	if entries[1].Type != PageSize || entries[1].Value != pageSize {
		t.Fatalf("entries[1] = %+v", entries[1])
	}

	v, ok := EntryAddrValue(entries)
	if !ok || v != entryAddr {
		t.Fatalf("EntryAddrValue = (%#x, %v), want (%#x, true)", v, ok, entryAddr)
	}
}
