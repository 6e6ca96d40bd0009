package ssa

import (
	"github.com/pkg/errors"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

var (
	ErrNoMainPkgs    = errors.New("no main packages")
	ErrFuncNotFound  = errors.New("function not found")
	ErrUnknownCGAlgo = errors.New("unknown callgraph algorithm")
)

// MainPkgs returns the main packages in the program.
func MainPkgs(prog *ssa.Program) ([]*ssa.Package, error) {
	mains := ssautil.MainPackages(prog.AllPackages())
	if len(mains) == 0 {
		return nil, ErrNoMainPkgs
	}
	return mains, nil
}
