// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package symbols loads the ELF symbol table and the DWARF subprogram
// entries out of a tracee's executable, and relocates them by the
// runtime load bias once it is known.
package symbols

import (
	"debug/dwarf"
	"debug/elf"

	"tinydbg/dbgerr"
)

// Symbol is a named address drawn from either the ELF symbol table or
// DWARF debug information. Value starts out file-relative and is
// mutated in place by Relocate.
type Symbol struct {
	Name     string
	Value    uint64
	Size     uint64
	Bind     elf.SymBind
	Type     elf.SymType
	External bool // set for DWARF-derived symbols with DW_AT_external
}

// IsFunction reports whether this symbol names a function.
func (s *Symbol) IsFunction() bool {
	return s.Type == elf.STT_FUNC
}

// Table is the full, relocatable symbol list for one loaded executable.
type Table struct {
	Entry   uint64 // ehdr.e_entry, the file-relative entry point
	symbols []*Symbol
}

// Load parses the ELF symbol table (.symtab) out of f and, when d is
// non-nil, every DWARF DW_AT_subprogram entry with a name and a
// low_pc/high_pc pair. A binary with no .symtab or no DWARF info is not
// an error -- stripped binaries and cgo-less Go binaries commonly lack
// one or the other -- Load simply returns whatever it found.
func Load(f *elf.File, d *dwarf.Data) (*Table, error) {
	t := &Table{Entry: f.Entry}

	if elfSyms, err := f.Symbols(); err == nil {
		for i := range elfSyms {
			s := elfSyms[i]
			t.symbols = append(t.symbols, &Symbol{
				Name:  s.Name,
				Value: s.Value,
				Size:  s.Size,
				Bind:  elf.ST_BIND(s.Info),
				Type:  elf.ST_TYPE(s.Info),
			})
		}
	} else if err != elf.ErrNoSymbols {
		return nil, dbgerr.Parse(err)
	}

	if d != nil {
		subprograms, err := subprogramSymbols(d)
		if err != nil {
			return nil, dbgerr.Parse(err)
		}
		t.symbols = append(t.symbols, subprograms...)
	}

	return t, nil
}

func subprogramSymbols(d *dwarf.Data) ([]*Symbol, error) {
	var out []*Symbol
	r := d.Reader()
	for {
		entry, err := r.Next()
		if err != nil {
			return nil, err
		}
		if entry == nil {
			break
		}
		if entry.Tag != dwarf.TagSubprogram {
			continue
		}

		name, ok := entry.Val(dwarf.AttrName).(string)
		if !ok {
			continue
		}
		lowpc, ok := entry.Val(dwarf.AttrLowpc).(uint64)
		if !ok {
			continue
		}
		highRaw := entry.Val(dwarf.AttrHighpc)
		if highRaw == nil {
			continue
		}

		var size uint64
		switch v := highRaw.(type) {
		case uint64:
			// DW_FORM_addr: an absolute address.
			size = v - lowpc
		case int64:
			// A constant-class form: an offset from low_pc.
			size = uint64(v)
		default:
			continue
		}

		external, _ := entry.Val(dwarf.AttrExternal).(bool)

		out = append(out, &Symbol{
			Name:     name,
			Value:    lowpc,
			Size:     size,
			Bind:     elf.STB_GLOBAL,
			Type:     elf.STT_FUNC,
			External: external,
		})
	}
	return out, nil
}

// Relocate adds bias to every symbol whose binding is not weak and
// whose current value is nonzero. Weak symbols are commonly zero or
// aliased; shifting them produces incorrect addresses, so they are
// deliberately left untouched.
func (t *Table) Relocate(bias uint64) {
	for _, s := range t.symbols {
		if s.Bind == elf.STB_WEAK {
			continue
		}
		if s.Value == 0 {
			continue
		}
		s.Value += bias
	}
}

// All returns every loaded symbol.
func (t *Table) All() []*Symbol {
	return t.symbols
}

// Symbol returns the first exact name match, linear over the symbol
// list.
func (t *Table) Symbol(name string) (*Symbol, bool) {
	for _, s := range t.symbols {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// ForPC returns the symbol covering pc under the half-open interval
// [Value, Value+Size), ties resolved by first match in document order.
func (t *Table) ForPC(pc uint64) (*Symbol, bool) {
	for _, s := range t.symbols {
		if s.Size == 0 {
			continue
		}
		if pc >= s.Value && pc < s.Value+s.Size {
			return s, true
		}
	}
	return nil, false
}

// FunctionSymbols filters All to symbols whose type code is "function".
func (t *Table) FunctionSymbols() []*Symbol {
	var out []*Symbol
	for _, s := range t.symbols {
		if s.IsFunction() {
			out = append(out, s)
		}
	}
	return out
}
