package build

import (
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"io"
	"io/ioutil"
	"log"

	"github.com/pkg/errors"
	"golang.org/x/tools/go/packages"
	gossa "golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/nickng/loopopt/internal/logging"
	"github.com/nickng/loopopt/ssa"
)

// ErrLoad is returned when the source packages have errors.
var ErrLoad = errors.New("packages contain errors")

// srcReader is a wrapper for source code which can be read through a NewReader.
type srcReader interface {
	NewReader() io.Reader
}

type Configurer interface {
	Builder
	Default() Configurer
	AddBadPkg(pkg, reason string) Configurer
	WithBuildLog(l io.Writer, flags int) Configurer
	WithLogger(l *logging.Logger) Configurer
}

// Config represents a build configuration.
type Config struct {
	badPkgs map[string]string

	bldLog    io.Writer // Build log.
	bldLFlags int       // Build log flags.

	logger *logging.Logger

	src interface{} // src points to the program source.
}

func newConfig(src interface{}) *Config {
	return &Config{
		badPkgs:   make(map[string]string),
		bldLog:    ioutil.Discard,
		bldLFlags: log.LstdFlags,
		logger:    logging.Nop(),
		src:       src,
	}
}

// WithBuildLog adds build log to config.
func (c *Config) WithBuildLog(l io.Writer, flags int) Configurer {
	c.bldLog = l
	c.bldLFlags = flags
	return c
}

// WithLogger sets the logger passed on to the built ssa.Info, nil for none.
func (c *Config) WithLogger(l *logging.Logger) Configurer {
	c.logger = logging.OrNop(l)
	return c
}

// AddBadPkg marks a package 'bad' to avoid building.
func (c *Config) AddBadPkg(pkg, reason string) Configurer {
	c.badPkgs[pkg] = reason
	return c
}

func (c *Config) Build() (*ssa.Info, error) {
	bldLog := log.New(c.bldLog, "ssabuild: ", c.bldLFlags)

	var (
		fset *token.FileSet
		prog *gossa.Program
		pkgs []*gossa.Package
	)
	switch src := c.src.(type) {
	case *FileSrc:
		cfg := &packages.Config{
			Mode: packages.NeedName | packages.NeedFiles | packages.NeedCompiledGoFiles |
				packages.NeedImports | packages.NeedDeps | packages.NeedTypes |
				packages.NeedSyntax | packages.NeedTypesInfo | packages.NeedTypesSizes,
			Fset: token.NewFileSet(),
		}
		initial, err := packages.Load(cfg, src.Files...)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load packages")
		}
		if n := packages.PrintErrors(initial); n > 0 {
			return nil, errors.Wrapf(ErrLoad, "%d errors", n)
		}
		fset = cfg.Fset
		prog, pkgs = ssautil.AllPackages(initial, gossa.GlobalDebug|gossa.BareInits)

	case srcReader:
		fset = token.NewFileSet()
		file, err := parser.ParseFile(fset, "tmp", src.NewReader(), parser.ParseComments)
		if err != nil {
			return nil, err
		}
		tconf := &types.Config{Importer: importer.ForCompiler(fset, "source", nil)}
		pkg := types.NewPackage(file.Name.Name, file.Name.Name)
		mainPkg, _, err := ssautil.BuildPackage(tconf, fset, pkg, []*ast.File{file}, gossa.GlobalDebug|gossa.BareInits)
		if err != nil {
			return nil, err
		}
		prog, pkgs = mainPkg.Prog, []*gossa.Package{mainPkg}

	default:
		return nil, errors.Errorf("unknown source %T", c.src)
	}
	bldLog.Print("Program loaded and type checked")

	var ignoredPkgs []string
	if len(c.badPkgs) == 0 {
		prog.Build()
	} else {
		for _, pkg := range prog.AllPackages() {
			if reason, badPkg := c.badPkgs[pkg.Pkg.Name()]; badPkg {
				bldLog.Printf("Skip package: %s (%s)", pkg.Pkg.Name(), reason)
				ignoredPkgs = append(ignoredPkgs, pkg.Pkg.Name())
			} else {
				pkg.Build()
			}
		}
	}

	return &ssa.Info{
		IgnoredPkgs: ignoredPkgs,
		FSet:        fset,
		Prog:        prog,
		Pkgs:        pkgs,
		BldLog:      c.bldLog,
		Logger:      c.logger,
	}, nil
}

// Default returns a default configuration for static analysis.
func (c *Config) Default() Configurer {
	return c.
		AddBadPkg("reflect", "Reflection is not supported").
		AddBadPkg("runtime", "Runtime is ignored for static analysis")
}
