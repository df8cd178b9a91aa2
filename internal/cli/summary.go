package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"

	"github.com/dubalot/dubalot/internal/usecase"
)

// printSummary reports the run outcome and any per-segment degradations. A
// table is rendered on TTYs, plain lines otherwise, so piped output stays
// machine-friendly.
func printSummary(w io.Writer, target string, res usecase.Result) {
	rows := summaryRows(target, res)

	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		tw := table.NewWriter()
		tw.SetStyle(table.StyleRounded)
		for _, r := range rows {
			tw.AppendRow(table.Row{r[0], r[1]})
		}
		fmt.Fprintln(w, tw.Render())
	} else {
		for _, r := range rows {
			fmt.Fprintf(w, "%s: %s\n", r[0], r[1])
		}
	}

	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
}

func summaryRows(target string, res usecase.Result) [][2]string {
	rows := [][2]string{
		{"output", res.OutputPath},
		{"language", fmt.Sprintf("%s -> %s", orUnknown(res.Transcript.Language), target)},
		{"segments", fmt.Sprintf("%d", len(res.Transcript.Segments))},
		{"lip sync", res.LipSync.Mode.String()},
	}
	if res.Silenced > 0 {
		rows = append(rows, [2]string{"silenced segments", fmt.Sprintf("%d", res.Silenced)})
	}
	return rows
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
