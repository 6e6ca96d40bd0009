package ssa_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	gossa "golang.org/x/tools/go/ssa"

	"github.com/nickng/loopopt/ir"
	"github.com/nickng/loopopt/loopstats"
	"github.com/nickng/loopopt/pass"
	"github.com/nickng/loopopt/ssa"
	"github.com/nickng/loopopt/ssa/build"
)

const loopProg = `package main

import "sync/atomic"

var hits int64

func scale(x, n int) int {
	s := 0
	for i := 0; i < n; i++ {
		y := x * 2
		s += y
	}
	return s
}

func divide(x, d int, u uint) int {
	s := 0
	for i := 0; i < 10; i++ {
		s += x / d
		s += x / 3
		s += int(u % 2)
		s += x << u
		s += x >> i
	}
	return s
}

func count(n int) {
	for i := 0; i < n; i++ {
		atomic.AddInt64(&hits, 1)
	}
}

func main() {
	scale(1, 2)
	divide(1, 2, 3)
	count(4)
	func() {}()
}
`

func buildLoopProg(t *testing.T) *ssa.Info {
	t.Helper()
	info, err := build.FromReader(strings.NewReader(loopProg)).Build()
	require.NoError(t, err)
	return info
}

func lower(t *testing.T, info *ssa.Info, path string) *ir.Function {
	t.Helper()
	fn, err := info.FindFunc(path)
	require.NoError(t, err)
	out, err := ssa.Lower(fn)
	require.NoError(t, err)
	return out
}

func instrs(fn *ir.Function, keep func(*ir.Instr) bool) []*ir.Instr {
	var found []*ir.Instr
	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			if keep(instr) {
				found = append(found, instr)
			}
		}
	}
	return found
}

func TestFunctions(t *testing.T) {
	info := buildLoopProg(t)
	var names []string
	for _, fn := range info.Functions() {
		names = append(names, fn.String())
	}
	assert.Equal(t, []string{"main.scale", "main.divide", "main.count", "main.main", "main.main$1"}, names)
}

func TestLowerLoop(t *testing.T) {
	info := buildLoopProg(t)
	fn := lower(t, info, "main.scale")

	assert.Equal(t, "main.scale", fn.Name)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "x", fn.Params[0].Name())
	require.NoError(t, ir.Verify(fn))

	muls := instrs(fn, func(instr *ir.Instr) bool { return instr.Mnemonic == "mul" })
	require.Len(t, muls, 1)
	mul := muls[0]
	assert.Equal(t, ir.OpBinary, mul.Op)
	assert.True(t, mul.Speculatable)
	assert.Equal(t, "for.body", mul.Block().Comment)
	assert.Same(t, fn.Params[0], mul.Operands[0])
	assert.Equal(t, "2:int", mul.Operands[1].Name())

	phis := instrs(fn, func(instr *ir.Instr) bool { return instr.Op == ir.OpPhi })
	assert.NotEmpty(t, phis)
	for _, phi := range phis {
		assert.Len(t, phi.Operands, len(phi.Block().Preds), phi.String())
	}
}

func TestLowerDivision(t *testing.T) {
	info := buildLoopProg(t)
	fn := lower(t, info, "main.divide")

	type flag struct {
		Mnemonic     string
		Speculatable bool
	}
	var got []flag
	for _, instr := range instrs(fn, func(instr *ir.Instr) bool {
		switch instr.Mnemonic {
		case "sdiv", "udiv", "srem", "urem", "shl", "shr":
			return true
		}
		return false
	}) {
		got = append(got, flag{instr.Mnemonic, instr.Speculatable})
	}
	want := []flag{
		{"sdiv", false}, // x / d
		{"sdiv", true},  // x / 3
		{"urem", true},  // u % 2
		{"shl", true},   // x << u
		{"shr", false},  // x >> i
	}
	assert.Equal(t, want, got)
}

func TestLowerAtomic(t *testing.T) {
	info := buildLoopProg(t)
	fn := lower(t, info, "main.count")

	calls := instrs(fn, func(instr *ir.Instr) bool { return instr.Op == ir.OpCall })
	require.Len(t, calls, 1)
	assert.True(t, calls[0].Atomic)
	assert.Equal(t, "sync/atomic.AddInt64", calls[0].Operands[0].Name())
	assert.Equal(t, "main.hits", calls[0].Operands[1].Name())

	fn = lower(t, info, "main.main")
	for _, call := range instrs(fn, func(instr *ir.Instr) bool { return instr.Op == ir.OpCall }) {
		assert.False(t, call.Atomic, call.String())
	}
}

// atomicAdd returns sync/atomic.AddInt64, which has no body.
func atomicAdd(t *testing.T, info *ssa.Info) *gossa.Function {
	t.Helper()
	count, err := info.FindFunc("main.count")
	require.NoError(t, err)
	for _, b := range count.Blocks {
		for _, instr := range b.Instrs {
			if call, ok := instr.(*gossa.Call); ok {
				if callee := call.Call.StaticCallee(); callee != nil {
					return callee
				}
			}
		}
	}
	t.Fatal("no static call in main.count")
	return nil
}

func TestLowerNoBody(t *testing.T) {
	info := buildLoopProg(t)
	_, err := ssa.Lower(atomicAdd(t, info))
	assert.Equal(t, ir.ErrNoBody, errors.Cause(err))
}

func TestLowerAll(t *testing.T) {
	info := buildLoopProg(t)
	fns := append(info.Functions(), atomicAdd(t, info))

	lowered, err := ssa.LowerAll(fns, 2)
	require.Error(t, err)
	errs := multierr.Errors(err)
	require.Len(t, errs, 1)
	assert.Equal(t, ir.ErrNoBody, errors.Cause(errs[0]))

	var names []string
	for _, fn := range lowered {
		names = append(names, fn.Name)
	}
	assert.Equal(t, []string{"main.scale", "main.divide", "main.count", "main.main", "main.main$1"}, names)
}

// TestOptimise runs the loop passes over lowered functions.
func TestOptimise(t *testing.T) {
	info := buildLoopProg(t)
	scale := lower(t, info, "main.scale")
	divide := lower(t, info, "main.divide")
	count := lower(t, info, "main.count")

	var out bytes.Buffer
	m := pass.NewManager(pass.NewLICM(&out))
	changed, err := m.Run(scale)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Regexp(t, `^t\d+ = mul x, 2:int\n$`, out.String())
	mul := instrs(scale, func(instr *ir.Instr) bool { return instr.Mnemonic == "mul" })[0]
	assert.NotEqual(t, "for.body", mul.Block().Comment, "mul is hoisted out of the loop")

	out.Reset()
	_, err = m.Run(divide)
	require.NoError(t, err)
	assert.NotContains(t, out.String(), "sdiv x, d", "x / d may panic")
	for _, div := range instrs(divide, func(instr *ir.Instr) bool { return instr.Mnemonic == "sdiv" && !instr.Speculatable }) {
		assert.Equal(t, "for.body", div.Block().Comment)
	}

	out.Reset()
	stats := pass.NewManager(pass.NewLoopStats(new(loopstats.Sequence), loopstats.NewTextWriter(&out)))
	_, err = stats.Run(count)
	require.NoError(t, err)
	assert.Regexp(t, `^0: func=main\.count, depth=0, subLoops=false, BBs=\d+, instrs=\d+, atomics=1, branches=\d+\n$`, out.String())
}

const copyProg = `package copies

func copies(s string, n int) [][]byte {
	var out [][]byte
	for i := 0; i < n; i++ {
		b := []byte(s)
		b[0] = byte(i)
		out = append(out, b)
	}
	return out
}

func runes(s string) []rune {
	return []rune(s)
}

func str(b []byte) string {
	return string(b)
}
`

// TestLowerSliceConversion checks that conversions to a slice stay in the
// loop: each iteration must get its own backing array.
func TestLowerSliceConversion(t *testing.T) {
	info, err := build.FromReader(strings.NewReader(copyProg)).Build()
	require.NoError(t, err)
	fn := lower(t, info, "copies.copies")

	convs := instrs(fn, func(instr *ir.Instr) bool {
		return instr.Mnemonic == "convert" && len(instr.Operands) == 1 && instr.Operands[0] == fn.Params[0]
	})
	require.Len(t, convs, 1)
	assert.Equal(t, ir.OpAlloc, convs[0].Op)

	var out bytes.Buffer
	_, err = pass.NewManager(pass.NewLICM(&out)).Run(fn)
	require.NoError(t, err)
	assert.NotContains(t, out.String(), "convert s")
	assert.Equal(t, "for.body", convs[0].Block().Comment)

	runes := lower(t, info, "copies.runes")
	assert.Len(t, instrs(runes, func(instr *ir.Instr) bool { return instr.Op == ir.OpAlloc && instr.Mnemonic == "convert" }), 1)
	str := lower(t, info, "copies.str")
	casts := instrs(str, func(instr *ir.Instr) bool { return instr.Mnemonic == "convert" })
	require.Len(t, casts, 1)
	assert.Equal(t, ir.OpCast, casts[0].Op, "string(b) is a cast")
}
