package main

import (
	"io"
	"strconv"
	"text/tabwriter"
	"time"
)

const dateLayout = "2006-01-02 15:04"

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

// qty prints a quantity without trailing zeros.
func qty(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func stamp(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dateLayout)
}
