// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package arch contains architecture-specific constants for the x86-64
// tracee this debugger core supports.
package arch

import "encoding/binary"

const (
	// WordSize is the host pointer width: all ptrace peek/poke traffic
	// moves in units of this many bytes.
	WordSize = 8

	// BreakpointOpcode is the single-byte INT3 trap instruction (0xCC)
	// that the breakpoint engine overwrites the target's first byte
	// with.
	BreakpointOpcode = 0xCC

	// BreakpointSize is the number of bytes BreakpointOpcode occupies.
	BreakpointSize = 1

	// StackSnapshotWords is the fixed number of words captured above
	// RSP on every stop, for display purposes only; not an invariant,
	// safe to grow.
	StackSnapshotWords = 16
)

// ByteOrder is the byte order used to assemble/disassemble words and
// pointers read from tracee memory; x86-64 is little-endian.
var ByteOrder = binary.LittleEndian
