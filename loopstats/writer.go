package loopstats

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

// Writer outputs Reports.
type Writer interface {
	Write(r Report) error
	Flush() error // Flush outputs anything buffered by Write.
}

// TextWriter writes one line per Report.
type TextWriter struct {
	w io.Writer
}

func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{w: w}
}

func (tw *TextWriter) Write(r Report) error {
	_, err := fmt.Fprintln(tw.w, r)
	return err
}

func (tw *TextWriter) Flush() error { return nil }

// TableWriter collects Reports into a table, written out by Flush.
type TableWriter struct {
	table *tablewriter.Table
	rows  int
}

func NewTableWriter(w io.Writer) *TableWriter {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Func", "Depth", "SubLoops", "BBs", "Instrs", "Atomics", "Branches"})
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	return &TableWriter{table: table}
}

func (tw *TableWriter) Write(r Report) error {
	tw.table.Append([]string{
		strconv.FormatInt(r.ID, 10),
		r.Function,
		strconv.Itoa(r.Depth),
		strconv.FormatBool(r.HasNestedLoops),
		strconv.Itoa(r.Blocks),
		strconv.Itoa(r.Instrs),
		strconv.Itoa(r.Atomics),
		strconv.Itoa(r.Branches),
	})
	tw.rows++
	return nil
}

// Flush renders the table if any Report was written, and starts a new one.
func (tw *TableWriter) Flush() error {
	if tw.rows == 0 {
		return nil
	}
	tw.table.Render()
	tw.table.ClearRows()
	tw.rows = 0
	return nil
}
