package ssa

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/tools/go/ssa"
)

// FindFunc parses path (e.g. "github.com/nickng/loopopt/ssa".MainPkgs) and
// returns Function body in SSA IR. The full name of the function, as printed
// by ssa.Function.String, is also accepted, and so is the package name in
// place of the path (e.g. main.foo for command-line-arguments.foo).
func (info *Info) FindFunc(path string) (*ssa.Function, error) {
	funcs := info.Functions()
	for _, f := range funcs {
		if f.String() == path {
			return f, nil
		}
	}
	pkgPath, fnName := parseFuncPath(path)
	for _, f := range funcs {
		if f.Pkg.Pkg.Path() == pkgPath && f.Name() == fnName {
			return f, nil
		}
	}
	for _, f := range funcs {
		if f.Pkg.Pkg.Name() == pkgPath && f.Name() == fnName {
			return f, nil
		}
	}
	return nil, errors.Wrap(ErrFuncNotFound, path)
}

// parseFuncPath splits path to package and function segments.
// Does not handle complex functions with receivers.
func parseFuncPath(path string) (pkgPath, fnName string) {
	if len(path) < 1 {
		return "", ""
	}
	switch path[0] {
	case '(':
		regex := regexp.MustCompile(`\((?P<pkg>[^)]+)\).(?P<fn>.+)`)
		submatches := regex.FindStringSubmatch(path)
		if len(submatches) >= 3 {
			return submatches[1], submatches[2]
		}
	case '"':
		regex := regexp.MustCompile(`"(?P<pkg>[^"]+)".(?P<fn>.+)`)
		submatches := regex.FindStringSubmatch(path)
		if len(submatches) >= 3 {
			return submatches[1], submatches[2]
		}
	default:
		if i := strings.LastIndex(path, "."); i > 0 {
			return path[:i], path[i+1:]
		}
	}
	return "", path
}
