// Command loopopt runs loop passes (loop-invariant code motion and loop
// statistics) over Go source code.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	gossa "golang.org/x/tools/go/ssa"
	"gopkg.in/urfave/cli.v1"

	"github.com/nickng/loopopt/internal/logging"
	"github.com/nickng/loopopt/ir"
	"github.com/nickng/loopopt/loopstats"
	"github.com/nickng/loopopt/pass"
	"github.com/nickng/loopopt/ssa"
	"github.com/nickng/loopopt/ssa/build"
)

const usage = `loopopt is a tool for running loop passes over Go source code.

Loops are normalised to have a preheader, and each pass runs on the loops of
a function from the innermost out.`

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "loopopt"
	app.Usage = usage
	app.ArgsUsage = "file.go [files.go...]"
	app.HideVersion = true
	app.Flags = []cli.Flag{
		configFileFlag,
		passesFlag,
		formatFlag,
		funcFlag,
		reachableFlag,
		jobsFlag,
		logFlag,
		noColorFlag,
	}
	app.Commands = []cli.Command{dumpConfigCommand}
	app.Action = loopopt
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(colorable.NewColorableStderr(), color.RedString("loopopt: %v", err))
		os.Exit(1)
	}
}

// loopopt is the main entry point.
func loopopt(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return cli.ShowAppHelp(ctx)
	}
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}

	logger := logging.Nop()
	conf := build.FromFiles(ctx.Args()...).Default()
	switch cfg.Log {
	case "":
	case "-":
		logger = logging.New()
		conf = conf.WithBuildLog(os.Stderr, log.LstdFlags)
	default:
		logger = logging.NewFile(cfg.Log)
	}
	defer logger.Sync()
	color.NoColor = cfg.NoColor || !isatty.IsTerminal(os.Stderr.Fd())

	info, err := conf.WithLogger(logger).Build()
	if err != nil {
		return errors.Wrap(err, "cannot build SSA from files")
	}
	fns, err := selectFuncs(info, cfg)
	if err != nil {
		return err
	}
	lowered, err := ssa.LowerAll(fns, cfg.Jobs)
	if err != nil {
		logger.Warnf("some functions are not optimised: %v", err)
	}

	passes, err := pass.New(cfg.Passes, pass.Options{
		Out:    ctx.App.Writer,
		Format: cfg.Format,
		Seq:    new(loopstats.Sequence),
	})
	if err != nil {
		return err
	}
	m := pass.NewManager(passes...)
	m.SetLogger(logger)
	return runPasses(m, lowered, cfg.Jobs)
}

// runPasses runs m over fns, then flushes the buffered output of the passes
// even if some functions failed.
func runPasses(m *pass.Manager, fns []*ir.Function, jobs int) error {
	_, err := m.RunAll(fns, jobs)
	return multierr.Append(err, m.Finish())
}

// selectFuncs returns the functions to optimise.
func selectFuncs(info *ssa.Info, cfg loopoptConfig) ([]*gossa.Function, error) {
	if cfg.Func != "" {
		fn, err := info.FindFunc(cfg.Func)
		if err != nil {
			return nil, err
		}
		return []*gossa.Function{fn}, nil
	}
	fns := info.Functions()
	if cfg.Reachable == "" {
		return fns, nil
	}
	graph, err := info.BuildCallGraph(cfg.Reachable)
	if err != nil {
		return nil, err
	}
	var used []*gossa.Function
	for _, fn := range fns {
		if graph.IsUsed(fn) {
			used = append(used, fn)
		}
	}
	return used, nil
}
