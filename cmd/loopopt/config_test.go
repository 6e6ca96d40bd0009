package main

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/urfave/cli.v1"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir, err := ioutil.TempDir("", "loopopt")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	file := filepath.Join(dir, "loopopt.toml")
	require.NoError(t, ioutil.WriteFile(file, []byte(content), 0644))
	return file
}

func TestLoadConfig(t *testing.T) {
	file := writeConfig(t, `
Passes = ["licm"]
Format = "table"
Jobs = 2
`)
	cfg := defaultConfig()
	require.NoError(t, loadConfig(file, &cfg))
	want := loopoptConfig{Passes: []string{"licm"}, Format: "table", Jobs: 2}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigUnknownField(t *testing.T) {
	file := writeConfig(t, "Verbose = true\n")
	cfg := defaultConfig()
	err := loadConfig(file, &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Verbose")
}

// captureConfig runs the app with args and returns the config it would use.
func captureConfig(t *testing.T, args ...string) loopoptConfig {
	t.Helper()
	var cfg loopoptConfig
	app := newApp()
	app.Action = func(ctx *cli.Context) (err error) {
		cfg, err = makeConfig(ctx)
		return err
	}
	require.NoError(t, app.Run(append([]string{"loopopt"}, args...)))
	return cfg
}

func TestFlagsOverrideFile(t *testing.T) {
	file := writeConfig(t, `
Passes = ["licm"]
Format = "table"
Jobs = 2
`)
	cfg := captureConfig(t, "--config", file, "--format", "text", "--passes", "loopstats, licm", "--no-color", "x.go")
	want := loopoptConfig{Passes: []string{"loopstats", "licm"}, Format: "text", Jobs: 2, NoColor: true}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestDumpConfig(t *testing.T) {
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	require.NoError(t, app.Run([]string{"loopopt", "--jobs", "3", "--reachable", "rta", "dumpconfig"}))

	var got loopoptConfig
	require.NoError(t, tomlSettings.Unmarshal(out.Bytes(), &got))
	want := loopoptConfig{Passes: []string{"licm", "loopstats"}, Format: "text", Reachable: "rta", Jobs: 3}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("dumped config mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"licm", "loopstats"}, splitList(" licm,,loopstats "))
	assert.Nil(t, splitList(""))
}
