// Package ssa is a library to build and work with SSA.
// For most part the package contains helper or wrapper functions to use the
// packages in Go project's extra tools.
//
// In particular, the SSA IR is from golang.org/x/tools/go/ssa, and reuses many
// of the packages in the static analysis stack built on top of it. Functions
// are lowered from SSA to the ir package (see Lower) for the loop passes.
//
package ssa

import (
	"go/token"
	"io"
	"sort"

	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/nickng/loopopt/internal/logging"
)

// Info holds the results of a SSA build for analysis.
// To populate this structure, the 'build' subpackage should be used.
//
type Info struct {
	IgnoredPkgs []string // Record of ignored package during the build process.

	FSet *token.FileSet  // FileSet for parsed source files.
	Prog *ssa.Program    // SSA IR for whole program.
	Pkgs []*ssa.Package  // Packages built from the given source.

	BldLog io.Writer       // Build log.
	Logger *logging.Logger // Logger for components working on this program.
}

// Functions returns the functions with a body declared in the source
// packages, including anonymous functions, in source order.
func (info *Info) Functions() []*ssa.Function {
	src := make(map[*ssa.Package]bool)
	for _, pkg := range info.Pkgs {
		if pkg != nil {
			src[pkg] = true
		}
	}
	var fns []*ssa.Function
	for fn := range ssautil.AllFunctions(info.Prog) {
		if fn.Pkg == nil || !src[fn.Pkg] || fn.Synthetic != "" || len(fn.Blocks) == 0 {
			continue
		}
		fns = append(fns, fn)
	}
	sort.Slice(fns, func(i, j int) bool {
		if fns[i].Pos() != fns[j].Pos() {
			return fns[i].Pos() < fns[j].Pos()
		}
		return fns[i].String() < fns[j].String()
	})
	return fns
}
