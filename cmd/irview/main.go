// Command irview prints the loop IR of Go source code, with preheaders
// inserted, together with the loop nest of each function.
//
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	gossa "golang.org/x/tools/go/ssa"

	"github.com/nickng/loopopt/pass"
	"github.com/nickng/loopopt/ssa"
	"github.com/nickng/loopopt/ssa/build"
)

const (
	Usage = `irview is a tool for printing the loop IR of Go source code.

Usage:

  irview [options] file.go [files.go...]

Options:

`
)

var (
	buildlogPath string
	defaultArgs  bool
	outPath      string
	viewFunc     string
	showDom      bool

	out io.Writer
)

func init() {
	flag.BoolVar(&defaultArgs, "default", true, "Use default SSA build arguments")
	flag.StringVar(&buildlogPath, "log", "", "Specify build log file (use '-' for stdout)")
	flag.StringVar(&outPath, "out", "", "Specify output file (default: stdout)")
	flag.StringVar(&viewFunc, "func", "", `Specify the function to view (format: (import/path).FuncName, default: all)`)
	flag.BoolVar(&showDom, "dom", false, "Also print the dominator tree")
}

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, Usage)
		flag.PrintDefaults()
		os.Exit(0)
	}

	conf := build.FromFiles(flag.Args()...)
	if defaultArgs {
		conf = conf.Default()
	}

	switch buildlogPath {
	case "":
	case "-":
		conf = conf.WithBuildLog(os.Stdout, log.LstdFlags)
	default:
		f, err := os.Create(buildlogPath)
		if err != nil {
			log.Fatalf("Cannot create log %s: %v", buildlogPath, err)
		}
		defer f.Close()
		conf = conf.WithBuildLog(f, log.LstdFlags)
	}

	switch outPath {
	case "":
		out = os.Stdout
	default:
		f, err := os.Create(outPath)
		if err != nil {
			log.Fatalf("Cannot create output file %s: %v", outPath, err)
		}
		defer f.Close()
		out = f
	}

	info, err := conf.Build()
	if err != nil {
		log.Fatal("Cannot build SSA from files:", err)
	}
	fns := info.Functions()
	if viewFunc != "" {
		fn, err := info.FindFunc(viewFunc)
		if err != nil {
			log.Fatal("Cannot find function:", err)
		}
		fns = []*gossa.Function{fn}
	}
	for _, fn := range fns {
		if err := view(out, fn); err != nil {
			log.Fatal("Cannot write IR:", err)
		}
	}
}

// view writes the normalised IR of fn and its loop nest to w.
func view(w io.Writer, fn *gossa.Function) error {
	lowered, err := ssa.Lower(fn)
	if err != nil {
		return err
	}
	a, err := pass.NewManager().Prepare(lowered)
	if err != nil {
		return err
	}
	if _, err := lowered.WriteTo(w); err != nil {
		return err
	}
	if showDom {
		fmt.Fprintf(w, "# dominators\n%s", a.Dom)
	}
	fmt.Fprintf(w, "# loops\n%s\n", a.Loops)
	return nil
}
