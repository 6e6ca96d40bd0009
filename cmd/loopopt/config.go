package main

import (
	"bufio"
	"fmt"
	"os"
	"reflect"
	"runtime"
	"strings"

	"github.com/naoina/toml"
	"github.com/pkg/errors"
	"gopkg.in/urfave/cli.v1"

	"github.com/nickng/loopopt/pass"
)

var (
	dumpConfigCommand = cli.Command{
		Action:      dumpConfig,
		Name:        "dumpconfig",
		Usage:       "Show configuration values",
		ArgsUsage:   "[dumpfile]",
		Description: `The dumpconfig command shows configuration values.`,
	}

	configFileFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
	passesFlag = cli.StringFlag{
		Name:  "passes",
		Usage: "Comma separated loop passes to run (" + strings.Join(pass.Names(), ", ") + ")",
	}
	formatFlag = cli.StringFlag{
		Name:  "format",
		Usage: "Loop statistics format (text, table)",
	}
	funcFlag = cli.StringFlag{
		Name:  "func",
		Usage: "Only optimise the function at path (format: (import/path).FuncName)",
	}
	reachableFlag = cli.StringFlag{
		Name:  "reachable",
		Usage: "Only optimise functions reachable from main, by callgraph algorithm (static, cha, rta)",
	}
	jobsFlag = cli.IntFlag{
		Name:  "jobs",
		Usage: "Number of functions lowered and prepared in parallel",
	}
	logFlag = cli.StringFlag{
		Name:  "log",
		Usage: "Specify analysis log file (use '-' for stderr)",
	}
	noColorFlag = cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}
)

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field '%s' is not defined in %s", field, rt.String())
	},
}

type loopoptConfig struct {
	Passes    []string
	Format    string
	Func      string `toml:",omitempty"`
	Reachable string `toml:",omitempty"`
	Jobs      int
	Log       string `toml:",omitempty"`
	NoColor   bool
}

func defaultConfig() loopoptConfig {
	return loopoptConfig{
		Passes: []string{"licm", "loopstats"},
		Format: "text",
		Jobs:   runtime.NumCPU(),
	}
}

func loadConfig(file string, cfg *loopoptConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// makeConfig loads the defaults, then the config file, then the flags.
func makeConfig(ctx *cli.Context) (loopoptConfig, error) {
	cfg := defaultConfig()
	if file := ctx.GlobalString(configFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			return cfg, err
		}
	}

	if ctx.GlobalIsSet(passesFlag.Name) {
		cfg.Passes = splitList(ctx.GlobalString(passesFlag.Name))
	}
	if ctx.GlobalIsSet(formatFlag.Name) {
		cfg.Format = ctx.GlobalString(formatFlag.Name)
	}
	if ctx.GlobalIsSet(funcFlag.Name) {
		cfg.Func = ctx.GlobalString(funcFlag.Name)
	}
	if ctx.GlobalIsSet(reachableFlag.Name) {
		cfg.Reachable = ctx.GlobalString(reachableFlag.Name)
	}
	if ctx.GlobalIsSet(jobsFlag.Name) {
		cfg.Jobs = ctx.GlobalInt(jobsFlag.Name)
	}
	if ctx.GlobalIsSet(logFlag.Name) {
		cfg.Log = ctx.GlobalString(logFlag.Name)
	}
	if ctx.GlobalIsSet(noColorFlag.Name) {
		cfg.NoColor = ctx.GlobalBool(noColorFlag.Name)
	}
	return cfg, nil
}

func splitList(s string) []string {
	var list []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}

// dumpConfig is the dumpconfig command.
func dumpConfig(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	out, err := tomlSettings.Marshal(&cfg)
	if err != nil {
		return err
	}

	dump := ctx.App.Writer
	if ctx.NArg() > 0 {
		f, err := os.OpenFile(ctx.Args().Get(0), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		dump = f
	}
	_, err = dump.Write(out)
	return err
}
