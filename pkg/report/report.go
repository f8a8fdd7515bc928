// Package report renders run outcomes as tables.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"sitewatch/pkg/domain"
)

// TableRenderer handles the display of run results in a table format
type TableRenderer struct {
	out io.Writer
}

// NewTableRenderer creates a new TableRenderer writing to out
func NewTableRenderer(out io.Writer) *TableRenderer {
	return &TableRenderer{out: out}
}

// RenderSources prints one row per source with its outcome
func (r *TableRenderer) RenderSources(results []domain.SourceResult) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Source", "Kind", "Status", "New Pages", "Log", "Duration", "Error"})
	var added int
	for _, res := range results {
		logName := ""
		if res.Log != nil {
			logName = res.Log.Path
		}
		errText := ""
		if res.Err != nil {
			errText = res.Err.Error()
		}
		t.AppendRow(table.Row{
			res.Source.Name,
			string(res.Source.Kind),
			string(res.Status),
			res.Added(),
			logName,
			res.Duration.Round(time.Millisecond),
			errText,
		})
		added += res.Added()
	}
	t.AppendFooter(table.Row{"Total", "", fmt.Sprintf("%d sources", len(results)), added, "", "", ""})

	t.Render()
}

// IssueRow is one line of the issue filing report
type IssueRow struct {
	Log    string
	Source string
	Count  int
	Result string // Issue URL, "skipped" or the error
}

// RenderIssues prints one row per selected delta log
func (r *TableRenderer) RenderIssues(rows []IssueRow) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Log", "Source", "New Pages", "Issue"})
	for _, row := range rows {
		t.AppendRow(table.Row{row.Log, row.Source, row.Count, row.Result})
	}

	t.Render()
}
