package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/tamahiro5/iotlab-edge/internal/journal"
)

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printEntriesTable(entries []journal.Entry) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("ID\tTIME\tTYPE\tOK\tTOPIC\tPAYLOAD\tERROR\n")
	for i := range entries {
		e := &entries[i]
		tw.writef("%d\t%s\t%s\t%v\t%s\t%s\t%s\n",
			e.ID,
			e.At.Format("2006-01-02 15:04:05"),
			e.Type,
			e.OK,
			e.Topic,
			truncate(payloadPreview(e.Payload), 48),
			truncate(e.Error, 40),
		)
	}
	return tw.finish()
}

func payloadPreview(p []byte) string {
	if utf8.Valid(p) {
		return string(p)
	}
	return fmt.Sprintf("<%d bytes>", len(p))
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
