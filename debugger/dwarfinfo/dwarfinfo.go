// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dwarfinfo resolves absolute program-counter values to source
// file, line, and column by walking the DWARF line program of every
// compile unit in a tracee's executable.
package dwarfinfo

import (
	"bufio"
	"debug/dwarf"
	"io"
	"os"
	"path/filepath"

	"tinydbg/dbgerr"
)

// LineInfo is one PC's resolved source location.
type LineInfo struct {
	Path   string
	Line   int
	Column int
}

// Info is the immutable (after Load) pc-to-line map for one executable,
// plus a best-effort, lazily populated cache of source file contents.
type Info struct {
	pcToLine map[uint64]LineInfo
	source   map[string][]string
}

// Empty returns an Info with no resolved lines, for executables that
// carry no DWARF data at all (e.g. stripped binaries).
func Empty() *Info {
	return &Info{
		pcToLine: make(map[uint64]LineInfo),
		source:   make(map[string][]string),
	}
}

// Load walks every compile unit's line program in d and records a
// (address -> LineInfo) entry for each non-end-of-sequence row. Rows
// are resolved to an absolute path by joining the compilation
// directory with the line program's own file table entry.
func Load(d *dwarf.Data) (*Info, error) {
	info := &Info{
		pcToLine: make(map[uint64]LineInfo),
		source:   make(map[string][]string),
	}

	r := d.Reader()
	for {
		entry, err := r.Next()
		if err != nil {
			return nil, dbgerr.Parse(err)
		}
		if entry == nil {
			break
		}
		if entry.Tag != dwarf.TagCompileUnit {
			continue
		}

		compDir, _ := entry.Val(dwarf.AttrCompDir).(string)

		lr, err := d.LineReader(entry)
		if err != nil {
			return nil, dbgerr.Parse(err)
		}
		if lr == nil {
			continue
		}

		var row dwarf.LineEntry
		for {
			err := lr.Next(&row)
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, dbgerr.Parse(err)
			}
			if row.EndSequence {
				continue
			}

			path := row.File.Name
			if compDir != "" && !filepath.IsAbs(path) {
				path = filepath.Join(compDir, path)
			}

			info.pcToLine[row.Address] = LineInfo{
				Path:   path,
				Line:   row.Line,
				Column: row.Column,
			}
		}
	}

	return info, nil
}

// LineInfo looks up the exact PC in the pc-to-line map.
func (i *Info) LineInfo(pc uint64) (LineInfo, bool) {
	li, ok := i.pcToLine[pc]
	return li, ok
}

// Lines returns path's source text for display, split into lines.
// Loading source is optional: a path that cannot be read on disk
// simply reports absent rather than an error.
func (i *Info) Lines(path string) ([]string, bool) {
	if lines, ok := i.source[path]; ok {
		return lines, true
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, false
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, false
	}

	i.source[path] = lines
	return lines, true
}
