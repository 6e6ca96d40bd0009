package ir

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// WriteTo writes fn to w in a human readable form.
func (fn *Function) WriteTo(w io.Writer) (int64, error) {
	bufw := bufio.NewWriter(w)
	var n int64
	write := func(format string, args ...interface{}) {
		written, _ := fmt.Fprintf(bufw, format, args...)
		n += int64(written)
	}

	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = p.Name()
	}
	write("func %s(%s):\n", fn.Name, strings.Join(params, ", "))
	for _, b := range fn.Blocks {
		write("%s:", b)
		if b.Comment != "" {
			write(" ; %s", b.Comment)
		}
		if len(b.Preds) > 0 {
			preds := make([]string, len(b.Preds))
			for i, p := range b.Preds {
				preds[i] = p.String()
			}
			write(" ; preds: %s", strings.Join(preds, ", "))
		}
		write("\n")
		for _, instr := range b.Instrs {
			write("\t%s\n", instr)
		}
	}
	return n, bufw.Flush()
}
