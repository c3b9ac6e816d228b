package app

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/hyperifyio/relnotes/internal/extract"
)

var listingSeparator = strings.Repeat("_", 200)

// writeListing prints every record framed by separator lines.
func writeListing(w io.Writer, records []extract.Record) {
	fmt.Fprintln(w, listingSeparator)
	for _, r := range records {
		fmt.Fprintln(w, listingSeparator)
		fmt.Fprintln(w, r.String())
	}
	fmt.Fprintln(w, listingSeparator)
}

// writeGateReport tells the operator which names block the upload.
func writeGateReport(w io.Writer, g gateReport) {
	if len(g.Unmatched) > 0 {
		fmt.Fprintln(w, "ERROR: The following countries have no matching ISO codes in the CSV file. Please update the CSV and retry:")
		for _, name := range g.Unmatched {
			fmt.Fprintf(w, "- %s\n", name)
		}
	}
	if len(g.Duplicates) > 0 {
		fmt.Fprintln(w, "ERROR: The following countries resolve to the same ISO code. Please update the CSV and retry:")
		for _, d := range g.Duplicates {
			fmt.Fprintf(w, "- %s: %s\n", d.Code, strings.Join(d.Names, ", "))
		}
	}
}

// renderSummaryTable renders one row per record with how its code was found.
func renderSummaryTable(res extract.Result) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Country", "ISO Code", "Match", "Lines"})
	for i, r := range res.Records {
		match := "none"
		if i < len(res.Matches) {
			match = res.Matches[i].Kind.String()
			if res.Matches[i].Ambiguous() {
				match += " (ambiguous)"
			}
		}
		code := r.Code
		if code == "" {
			code = "None"
		}
		tw.AppendRow(table.Row{i + 1, r.Name, code, match, descriptionLineCount(r.Description)})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	tw.SetCaption("version " + res.Version)
	return tw.Render()
}

func descriptionLineCount(desc string) int {
	if desc == "" {
		return 0
	}
	return strings.Count(desc, "\n") + 1
}

// renderReportMarkdown lays the listing out as headed sections for the PDF.
func renderReportMarkdown(res extract.Result) string {
	var b strings.Builder
	b.WriteString("# Release notes ")
	b.WriteString(res.Version)
	b.WriteString("\n\nTotal Country Count: ")
	b.WriteString(strconv.Itoa(len(res.Records)))
	b.WriteString("\n")
	for _, r := range res.Records {
		b.WriteString("\n## ")
		b.WriteString(r.Name)
		b.WriteString(" (")
		if r.Code == "" {
			b.WriteString("None")
		} else {
			b.WriteString(r.Code)
		}
		b.WriteString(")\n\n")
		for _, line := range strings.Split(r.Description, "\n") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			b.WriteString("- ")
			b.WriteString(strings.TrimSpace(line))
			b.WriteString("\n")
		}
	}
	return b.String()
}
