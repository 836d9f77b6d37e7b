package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/buyer-dedupe/internal/buyer"
	"github.com/sells-group/buyer-dedupe/internal/dedupe"
	"github.com/sells-group/buyer-dedupe/internal/model"
)

// tableWriter is a tabwriter that ignores write errors until Flush.
type tableWriter struct {
	tw *tabwriter.Writer
}

func newTableWriter(out io.Writer) *tableWriter {
	return &tableWriter{tw: tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)}
}

func (w *tableWriter) row(cols ...any) {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprint(c)
	}
	_, _ = fmt.Fprintln(w.tw, strings.Join(parts, "\t"))
}

// writeOutput renders v as json or yaml, or calls table for the default
// tabular format.
func writeOutput(out io.Writer, format string, v any, table func(*tableWriter)) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(v), "write json")
	case "yaml", "yml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return eris.Wrap(err, "write yaml")
		}
		return eris.Wrap(enc.Close(), "write yaml")
	case "", "table":
		w := newTableWriter(out)
		table(w)
		return eris.Wrap(w.tw.Flush(), "write table")
	default:
		return eris.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
}

func formatMatches(w *tableWriter, matches []dedupe.Match) {
	w.row("ID", "NAME", "EMAIL", "SCORE", "CONFIDENCE", "REASONS")
	w.row("--", "----", "-----", "-----", "----------", "-------")
	for _, m := range matches {
		w.row(m.Buyer.ID, dash(m.Buyer.Name), dash(m.Buyer.Email), m.MatchScore, m.Confidence,
			strings.Join(m.MatchReasons, "; "))
	}
}

func formatClusters(w *tableWriter, clusters []dedupe.Cluster) {
	w.row("CLUSTER", "PRIMARY", "DUPLICATE", "SCORE", "REASONS")
	w.row("-------", "-------", "---------", "-----", "-------")
	for i, c := range clusters {
		for _, d := range c.Duplicates {
			w.row(i+1, label(c.Primary), label(d.Buyer), d.MatchScore, strings.Join(d.MatchReasons, "; "))
		}
	}
}

func formatBuyer(w *tableWriter, b model.Buyer) {
	w.row("FIELD", "VALUE")
	w.row("-----", "-----")
	w.row("id", b.ID)
	for _, f := range model.MergeableFields {
		var v string
		switch kind, _ := f.Kind(); kind {
		case model.KindText:
			v = b.Text(f)
		case model.KindList:
			v = strings.Join(b.List(f), ", ")
		case model.KindNumber:
			if n := b.Number(f); n != nil {
				v = fmt.Sprint(*n)
			}
		}
		w.row(f, dash(v))
	}
	w.row("tags", dash(strings.Join(b.Tags, ", ")))
	w.row("priority", dash(b.Priority))
}

func formatImportReport(w *tableWriter, r buyer.ImportReport) {
	w.row("TOTAL", "IMPORTED", "SKIPPED")
	w.row(r.Total, r.Imported, len(r.Skipped))
	if len(r.Skipped) == 0 {
		return
	}
	w.row()
	w.row("ROW", "NAME", "MATCHED", "SCORE")
	w.row("---", "----", "-------", "-----")
	for _, s := range r.Skipped {
		w.row(s.Row, dash(s.Name), s.MatchedID, s.MatchScore)
	}
}

func label(b model.Buyer) string {
	if b.Name == "" {
		return b.ID
	}
	return fmt.Sprintf("%s (%s)", b.Name, b.ID)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
