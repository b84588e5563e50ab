// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command testtracee is a tiny, single-threaded fixture used by the
// debugger package's integration tests to spawn a test binary exporting
// main and set a breakpoint on it. It deliberately does nothing
// interesting -- the test only needs a stable, named function whose
// entry address a breakpoint can land on.
package main

import "fmt"

func greet(name string) string {
	return fmt.Sprintf("hello, %s", name)
}

func main() {
	fmt.Println(greet("tracee"))
}
