package ssa_test

import (
	"bytes"
	"fmt"
	"log"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/nickng/loopopt/ssa"
	"github.com/nickng/loopopt/ssa/build"
)

// This tests basic build.
func TestBuild(t *testing.T) {
	s := `package main
	import "fmt"
	func main() {
		fmt.Println("Hello World")
	}`

	conf := build.FromReader(strings.NewReader(s))
	info, err := conf.Build()
	if err != nil {
		t.Fatalf("SSA build failed: %v", err)
	}
	if info.Prog == nil {
		t.Errorf("SSA Program missing")
	}
	mains, err := ssa.MainPkgs(info.Prog)
	if err != nil {
		t.Errorf("cannot find main packages: %v", err)
	}
	for _, main := range mains {
		if main.Func("main") == nil {
			t.Error("expects main.main() but not found")
		}
	}
}

// This tests building with non-main package.
func TestBuildNonMainPkg(t *testing.T) {
	s := `package pkg
	import "fmt"
	func main() {
		fmt.Println("Hello World")
	}`

	conf := build.FromReader(strings.NewReader(s))
	info, err := conf.Build()
	if err != nil {
		t.Fatalf("SSA build failed: %v", err)
	}
	if _, err = ssa.MainPkgs(info.Prog); err != ssa.ErrNoMainPkgs {
		t.Errorf("unexpected main package")
	}
}

const callProg = `package main
	import "fmt"
	func main() {
		foo("Hello")
	}
	func foo(s string) {
		fmt.Println(s, "World")
	}
	func bar() {
		fmt.Println("doesn't reach here")
	}`

// This tests building of callgraph.
func TestCallGraph(t *testing.T) {
	info, err := build.FromReader(strings.NewReader(callProg)).Build()
	if err != nil {
		t.Fatalf("SSA build failed: %v", err)
	}
	for _, algo := range []string{"static", "cha", "rta"} {
		graph, err := info.BuildCallGraph(algo)
		if err != nil {
			t.Fatalf("build %s callgraph failed: %v", algo, err)
		}
		fns, err := graph.UsedFunctions()
		if err != nil {
			t.Errorf("cannot filter unused functions in callgraph: %v", err)
		}
		for _, fn := range fns {
			if fn.Pkg != nil && fn.Pkg.Pkg.Name() == "main" {
				if fn.Name() != "foo" && fn.Name() != "main" && fn.Name() != "init" {
					t.Errorf("%s: expecting main.{init, main, foo}, but got main.%s", algo, fn.Name())
				}
			}
		}
		bar, err := info.FindFunc("main.bar")
		if err != nil {
			t.Fatalf("cannot find main.bar: %v", err)
		}
		if graph.IsUsed(bar) {
			t.Errorf("%s: main.bar is not reachable from main", algo)
		}
	}
}

// This tests building of callgraph and retrieving of all functions in callgraph.
func TestCallGraphAllFunc(t *testing.T) {
	info, err := build.FromReader(strings.NewReader(callProg)).Build()
	if err != nil {
		t.Fatalf("SSA build failed: %v", err)
	}
	for _, algo := range []string{"static", "cha", "rta"} {
		graph, err := info.BuildCallGraph(algo)
		if err != nil {
			t.Fatalf("build %s callgraph failed: %v", algo, err)
		}
		allFuncs, err := graph.AllFunctions()
		if err != nil {
			t.Errorf("cannot get functions in callgraph: %v", err)
		}
		usedFuncs, err := graph.UsedFunctions()
		if err != nil {
			t.Errorf("cannot filter unused functions in callgraph: %v", err)
		}
		if len(allFuncs) < len(usedFuncs) {
			t.Errorf("%s: callgraph has %d functions, %d are used. Expect used <= all",
				algo, len(allFuncs), len(usedFuncs))
		}
		all := make(map[string]bool)
		for _, fn := range allFuncs {
			all[fn.String()] = true
		}
		for _, fn := range usedFuncs {
			if !all[fn.String()] {
				t.Errorf("%s: %s is used but not in callgraph", algo, fn)
			}
		}
		if !all["main.main"] || !all["main.foo"] {
			t.Errorf("%s: expects main.main and main.foo in callgraph", algo)
		}
		// Uncalled functions are still nodes when the graph covers the whole
		// program.
		if algo != "rta" && !all["main.bar"] {
			t.Errorf("%s: expects main.bar (no call edges) in callgraph", algo)
		}
	}
}

func TestUnknownCallGraph(t *testing.T) {
	info, err := build.FromReader(strings.NewReader(callProg)).Build()
	if err != nil {
		t.Fatalf("SSA build failed: %v", err)
	}
	if _, err := info.BuildCallGraph("pta"); errors.Cause(err) != ssa.ErrUnknownCGAlgo {
		t.Errorf("expects %v, got %v", ssa.ErrUnknownCGAlgo, err)
	}
}

func TestFindFunc(t *testing.T) {
	info, err := build.FromReader(strings.NewReader(callProg)).Build()
	if err != nil {
		t.Fatalf("SSA build failed: %v", err)
	}
	for _, path := range []string{"main.foo", `"main".foo`, "(main).foo"} {
		fn, err := info.FindFunc(path)
		if err != nil {
			t.Errorf("cannot find %s: %v", path, err)
			continue
		}
		if want, got := "main.foo", fn.String(); want != got {
			t.Errorf("FindFunc(%s) want %s got %s", path, want, got)
		}
	}
	if _, err := info.FindFunc("main.baz"); errors.Cause(err) != ssa.ErrFuncNotFound {
		t.Errorf("expects %v, got %v", ssa.ErrFuncNotFound, err)
	}
}

func TestWriteTo(t *testing.T) {
	info, err := build.FromReader(strings.NewReader(callProg)).Build()
	if err != nil {
		t.Fatalf("SSA build failed: %v", err)
	}
	var buf bytes.Buffer
	if _, err := info.WriteTo(&buf); err != nil {
		t.Fatalf("cannot write SSA: %v", err)
	}
	for _, fn := range []string{"func main()", "func foo(s string)", "func bar()"} {
		if !strings.Contains(buf.String(), fn) {
			t.Errorf("expects %q in output:\n%s", fn, buf.String())
		}
	}

	buf.Reset()
	if _, err := info.WriteUsed(&buf, "static"); err != nil {
		t.Fatalf("cannot write SSA: %v", err)
	}
	if strings.Contains(buf.String(), "func bar()") {
		t.Errorf("main.bar is not used:\n%s", buf.String())
	}
}

func ExampleCallGraph_WriteGraphviz() {
	s := `package main
	func main() { foo() }
	func foo() { }`

	conf := build.FromReader(strings.NewReader(s))
	info, err := conf.Build()
	if err != nil {
		log.Fatalf("SSA build failed: %v", err)
	}
	var buf bytes.Buffer
	cg, err := info.BuildCallGraph("static") // Static calls only.
	if err != nil {
		log.Fatalf("Cannot build callgraph: %v", err)
	}
	cg.WriteGraphviz(&buf)
	fmt.Println(buf.String())
	// output:
	// digraph callgraph {
	//   "main.main" -> "main.foo"
	// }
}
