package ssa

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	"github.com/pkg/errors"

	"golang.org/x/tools/go/callgraph"
	"golang.org/x/tools/go/callgraph/cha"
	"golang.org/x/tools/go/callgraph/rta"
	"golang.org/x/tools/go/callgraph/static"
	"golang.org/x/tools/go/ssa"
)

// CallGraph is a callgraph of a Program, with the function sets derived from
// it cached.
type CallGraph struct {
	cg      *callgraph.Graph
	prog    *ssa.Program
	usedFns []*ssa.Function // Reachable from main, sorted.
	allFns  []*ssa.Function // Every node of the graph, sorted.
}

// AllFunctions returns the functions in the callgraph, including those with
// no call edges.
func (g *CallGraph) AllFunctions() ([]*ssa.Function, error) {
	if g.allFns != nil {
		return g.allFns, nil
	}
	for fn := range g.cg.Nodes {
		if fn != nil {
			g.allFns = append(g.allFns, fn)
		}
	}
	sortFuncs(g.allFns)
	return g.allFns, nil
}

// UsedFunctions returns the functions reachable in the callgraph from the
// init and main functions of the main packages.
func (g *CallGraph) UsedFunctions() ([]*ssa.Function, error) {
	if g.usedFns != nil {
		return g.usedFns, nil
	}
	mains, err := MainPkgs(g.prog)
	if err != nil {
		return nil, errors.Wrap(err, "callgraph: failed to find main packages (Check if this this a command?)")
	}

	visited := make(map[*callgraph.Node]bool)
	var queue []*callgraph.Node
	for _, main := range mains {
		if main.Func("main") == nil {
			continue
		}
		// Synthetic package initialisers are deleted from the graph.
		for _, root := range []*ssa.Function{main.Func("init"), main.Func("main")} {
			if n := g.cg.Nodes[root]; n != nil && !visited[n] {
				visited[n] = true
				queue = append(queue, n)
			}
		}
	}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		g.usedFns = append(g.usedFns, n.Func)
		for _, out := range n.Out {
			if !visited[out.Callee] {
				visited[out.Callee] = true
				queue = append(queue, out.Callee)
			}
		}
	}
	sortFuncs(g.usedFns)
	return g.usedFns, nil
}

// IsUsed returns true if fn is used by the Program.
func (g *CallGraph) IsUsed(fn *ssa.Function) bool {
	used, err := g.UsedFunctions()
	if err != nil {
		return false
	}
	i := sort.Search(len(used), func(i int) bool { return used[i].String() >= fn.String() })
	for ; i < len(used) && used[i].String() == fn.String(); i++ {
		if used[i] == fn {
			return true
		}
	}
	return false
}

func sortFuncs(fns []*ssa.Function) {
	sort.Slice(fns, func(i, j int) bool { return fns[i].String() < fns[j].String() })
}

// WriteGraphviz writes callgraph to w in graphviz dot format.
func (g *CallGraph) WriteGraphviz(w io.Writer) error {
	bufw := bufio.NewWriter(w)
	bufw.WriteString("digraph callgraph {\n")
	if err := callgraph.GraphVisitEdges(g.cg, func(edge *callgraph.Edge) error {
		_, err := fmt.Fprintf(bufw, "  %q -> %q\n", edge.Caller.Func, edge.Callee.Func)
		return err
	}); err != nil {
		return err
	}
	bufw.WriteString("}\n")
	return bufw.Flush()
}

// BuildCallGraph constructs a callgraph from ssa.Info.
// algo is algorithm available in golang.org/x/tools/go/callgraph, which
// includes:
//  - static  static calls only (unsound)
//  - cha     Class Hierarchy Analysis
//  - rta     Rapid Type Analysis
//
func (info *Info) BuildCallGraph(algo string) (*CallGraph, error) {
	var cg *callgraph.Graph
	switch algo {
	case "static":
		cg = static.CallGraph(info.Prog)

	case "cha":
		cg = cha.CallGraph(info.Prog)

	case "rta":
		mains, err := MainPkgs(info.Prog)
		if err != nil {
			return nil, err
		}
		var roots []*ssa.Function
		for _, main := range mains {
			roots = append(roots, main.Func("init"), main.Func("main"))
		}
		cg = rta.Analyze(roots, true).CallGraph

	default:
		return nil, errors.Wrap(ErrUnknownCGAlgo, algo)
	}

	cg.DeleteSyntheticNodes()

	return &CallGraph{cg: cg, prog: info.Prog}, nil
}
