package ssa

import (
	"io"

	"golang.org/x/tools/go/ssa"
)

// WriteTo writes the source Functions of the Program to w in human readable
// SSA IR instruction format.
func (info *Info) WriteTo(w io.Writer) (int64, error) {
	return writeFuncs(w, info.Functions())
}

// WriteFunc writes the Function at path to w in human readable SSA IR
// instruction format.
func (info *Info) WriteFunc(w io.Writer, path string) (int64, error) {
	fn, err := info.FindFunc(path)
	if err != nil {
		return 0, err
	}
	return fn.WriteTo(w)
}

// WriteUsed writes the Functions reachable from main to w in human readable
// SSA IR instruction format, using the callgraph algorithm algo.
func (info *Info) WriteUsed(w io.Writer, algo string) (int64, error) {
	graph, err := info.BuildCallGraph(algo)
	if err != nil {
		return 0, err
	}
	funcs, err := graph.UsedFunctions()
	if err != nil {
		return 0, err
	}
	return writeFuncs(w, funcs)
}

func writeFuncs(w io.Writer, funcs []*ssa.Function) (int64, error) {
	var n int64
	for _, f := range funcs {
		written, err := f.WriteTo(w)
		if err != nil {
			return n, err
		}
		n += written
	}
	return n, nil
}
