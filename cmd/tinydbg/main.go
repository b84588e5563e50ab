// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command tinydbg is the interactive shell around the debugger core.
// Argument parsing, the REPL line editor, and command dispatch all live
// here, outside the core.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"tinydbg/dbgerr"
	"tinydbg/debugger"
	"tinydbg/debugger/registers"
	"tinydbg/disasm"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errMessage(err))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var noASLR bool

	cmd := &cobra.Command{
		Use:   "tinydbg -- <command> [args...]",
		Short: "a ptrace-based debugger for x86-64 Linux binaries",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args, noASLR)
		},
	}
	cmd.Flags().BoolVar(&noASLR, "no-aslr", false, "disable ASLR before spawning the tracee")
	return cmd
}

func run(tracee []string, noASLR bool) error {
	t, err := debugger.Spawn(tracee, noASLR)
	if err != nil {
		return err
	}

	rl, err := readline.New("> ")
	if err != nil {
		return dbgerr.IO(err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or readline.ErrInterrupt
			return nil
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		if err := execute(t, fields); err != nil {
			fmt.Fprintln(os.Stderr, errMessage(err))
		}

		if status, ok := t.ExitStatus(); ok {
			fmt.Printf("debugged process exited with status: %d\n", status)
			return nil
		}
	}
}

func errMessage(err error) string {
	if dbgErr, ok := err.(*dbgerr.Error); ok {
		return dbgErr.Error()
	}
	return err.Error()
}

func execute(t *debugger.Tracee, fields []string) error {
	switch fields[0] {
	case "regs", "registers":
		printRegisters(t)
	case "r", "reg", "register":
		if len(fields) < 2 {
			return dbgerr.String("usage: %s <name>", fields[0])
		}
		printRegister(t, fields[1])
	case "s", "step", "si", "stepi":
		return t.Step()
	case "c", "cont":
		return t.Cont()
	case "d", "disas":
		return disassemble(t, fields[1:])
	case "l", "list":
		if len(fields) < 2 {
			return dbgerr.String("usage: %s <symbol>", fields[0])
		}
		listSource(t, fields[1])
	case "syms", "symbols":
		printSymbols(t)
	case "sym", "symbol":
		if len(fields) < 2 {
			return dbgerr.String("usage: %s <name>", fields[0])
		}
		printSymbol(t, fields[1])
	case "b", "break":
		if len(fields) < 2 {
			return dbgerr.String("usage: %s <addr-or-name>", fields[0])
		}
		return setBreakpoint(t, fields[1])
	default:
		fmt.Println("unknown command")
	}
	return nil
}

func printRegisters(t *debugger.Tracee) {
	regs := t.Registers()
	for _, name := range registers.Names {
		v, _ := regs.Get(name)
		fmt.Printf("%s: 0x%x\n", name, v)
	}
}

func printRegister(t *debugger.Tracee, name string) {
	v, ok := t.Registers().Get(name)
	if !ok {
		fmt.Printf("couldn't find register with name %q\n", name)
		return
	}
	fmt.Printf("%s 0x%x\n", name, v)
}

func disassemble(t *debugger.Tracee, args []string) error {
	if len(args) == 0 {
		rip := t.Registers().Rip
		bytes, err := t.ReadBytes(rip, 64)
		if err != nil {
			return err
		}
		text, err := disasm.Disassemble(rip, bytes)
		if err != nil {
			return err
		}
		fmt.Print(text)
		return nil
	}

	sym, ok := t.Symbol(args[0])
	if !ok {
		fmt.Printf("unknown symbol %s\n", args[0])
		return nil
	}
	bytes, err := t.Instructions(sym)
	if err != nil {
		return err
	}
	text, err := disasm.Disassemble(sym.Value, bytes)
	if err != nil {
		return err
	}
	fmt.Print(text)
	return nil
}

func listSource(t *debugger.Tracee, symName string) {
	sym, ok := t.Symbol(symName)
	if !ok {
		fmt.Printf("unknown symbol %s\n", symName)
		return
	}
	li, ok := t.DebugInfo().LineInfo(sym.Value)
	if !ok {
		fmt.Printf("couldn't find source code for symbol %s\n", symName)
		return
	}
	lines, ok := t.DebugInfo().Lines(li.Path)
	if !ok {
		fmt.Printf("couldn't find source code for symbol %s\n", symName)
		return
	}
	for _, line := range lines {
		fmt.Println(line)
	}
}

func printSymbols(t *debugger.Tracee) {
	for _, sym := range t.Symbols() {
		if !sym.IsFunction() {
			continue
		}
		fmt.Printf("0x%x %s\n", sym.Value, sym.Name)
	}
}

func printSymbol(t *debugger.Tracee, name string) {
	sym, ok := t.Symbol(name)
	if !ok {
		fmt.Printf("unknown symbol %s\n", name)
		return
	}
	fmt.Printf("0x%x %s\n", sym.Value, sym.Name)
}

func setBreakpoint(t *debugger.Tracee, token string) error {
	addr, err := resolveAddr(t, token)
	if err != nil {
		return err
	}
	return t.Breakpoint(addr)
}

// resolveAddr interprets token as hexadecimal, with or without a "0x"
// prefix; if that fails, it is treated as a symbol name.
func resolveAddr(t *debugger.Tracee, token string) (uint64, error) {
	hex := strings.TrimPrefix(token, "0x")
	if addr, err := strconv.ParseUint(hex, 16, 64); err == nil {
		return addr, nil
	}
	if sym, ok := t.Symbol(token); ok {
		return sym.Value, nil
	}
	return 0, dbgerr.String("couldn't set breakpoint on `%s`, not a known address or symbol", token)
}
