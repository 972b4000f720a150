package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/iconidentify/imgsniff/internal/domain"
)

func writeJSON(w io.Writer, results *domain.BatchResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func writeTable(w io.Writer, results *domain.BatchResult) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "URL\tTYPE\tSIZE\tREAD\tROUNDS\tNOTE")

	for _, u := range results.URLs {
		r, ok := results.Get(u)
		if !ok {
			continue
		}

		size := "-"
		if r.Size != nil {
			size = fmt.Sprintf("%dx%d", r.Size.Width, r.Size.Height)
		}

		note := r.Reason()
		if note == "" && r.ContentLength != nil {
			note = "content-length " + *r.ContentLength
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			u, r.Type, size, humanize.IBytes(uint64(r.Bytes)), r.Rounds, note)
	}

	s := results.Summary()
	fmt.Fprintf(tw, "\n%d urls\t%d resolved\t%d invalid\t%d failed\t%s read\t\n",
		s.Total, s.Resolved, s.Invalid, s.Failed, humanize.IBytes(uint64(s.Bytes)))

	return tw.Flush()
}
