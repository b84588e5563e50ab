// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package disasm

import "testing"

func TestDisassembleSingleInstruction(t *testing.T) {
	// 0xC3 is RET with no operands on amd64.
	out, err := Disassemble(0x401000, []byte{0xC3})
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	if out == "" {
		t.Fatalf("Disassemble returned no output")
	}
	if !contains(out, "0x401000") {
		t.Fatalf("output %q missing base address", out)
	}
	if !contains(out, "ret") {
		t.Fatalf("output %q missing ret mnemonic", out)
	}
}

func TestDisassembleStopsOnUndecodable(t *testing.T) {
	// A single 0xC3 (ret) followed by a byte sequence that cannot stand
	// alone as a complete instruction at the tail of the buffer.
	out, err := Disassemble(0x401000, []byte{0xC3, 0x0F})
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	if !contains(out, "ret") {
		t.Fatalf("output %q missing the decodable leading instruction", out)
	}
}

func TestDisassembleEmpty(t *testing.T) {
	out, err := Disassemble(0x401000, nil)
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	if out != "" {
		t.Fatalf("Disassemble(nil) = %q, want empty", out)
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
