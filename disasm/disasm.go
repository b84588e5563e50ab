// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package disasm adapts golang.org/x/arch/x86/x86asm into the pure
// function the core needs: a byte slice plus a base address in, a
// printable disassembly listing out. The decoder itself is treated as
// an external library; this package is only the formatting glue.
package disasm

import (
	"fmt"
	"strings"

	"golang.org/x/arch/x86/x86asm"
)

// Disassemble decodes code as a sequence of 64-bit x86 instructions
// starting at the virtual address base, and renders one "addr bytes
// mnemonic" line per instruction in AT&T syntax. Decoding stops at the
// first byte sequence it cannot decode as a complete instruction.
func Disassemble(base uint64, code []byte) (string, error) {
	var b strings.Builder

	for offset := 0; offset < len(code); {
		inst, err := x86asm.Decode(code[offset:], 64)
		if err != nil {
			break
		}

		addr := base + uint64(offset)
		gnu := x86asm.GNUSyntax(inst, addr, nil)

		fmt.Fprintf(&b, "0x%x ", addr)
		for _, by := range code[offset : offset+inst.Len] {
			fmt.Fprintf(&b, "%02x", by)
		}
		if inst.Len < 7 {
			b.WriteString(strings.Repeat("  ", 7-inst.Len))
		}
		fmt.Fprintf(&b, " %s\n", gnu)

		offset += inst.Len
	}

	return b.String(), nil
}
