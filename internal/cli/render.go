package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"bcct-chatbot-be/internal/dto"

	"github.com/fatih/color"
)

var (
	botColor   = color.New(color.FgCyan)
	warnColor  = color.New(color.FgYellow)
	errorColor = color.New(color.FgRed, color.Bold)
	dimColor   = color.New(color.Faint)
)

func render(w io.Writer, resp *dto.ChatbotResponse, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	if resp.InputTracking.CorrectedInput != resp.InputTracking.OriginalInput {
		dimColor.Fprintf(w, "(read as: %s)\n", resp.InputTracking.CorrectedInput)
	}

	msgColor := botColor
	if !resp.IsSuccess {
		msgColor = errorColor
	}
	msgColor.Fprintln(w, resp.Message)

	for _, e := range resp.Errors {
		c := warnColor
		if e.IsBlocker() {
			c = errorColor
		}
		c.Fprintf(w, "  [%s] %s\n", e.Code, e.Message)
	}

	renderRows(w, resp.Data, resp.DisplayEntities)

	dimColor.Fprintf(w, "  %s / %s, confidence %.2f, %dms\n",
		resp.Metadata.QueryType, resp.Metadata.ActionType, resp.Metadata.Confidence, resp.Metadata.ProcessingTimeMs)
	return nil
}

// renderRows prints rows as an aligned table. Columns follow the display
// entities when given, otherwise the sorted keys of the first row.
func renderRows(w io.Writer, rows []map[string]interface{}, display []string) {
	if len(rows) == 0 {
		return
	}
	var cols []string
	for _, d := range display {
		if _, ok := rows[0][d]; ok {
			cols = append(cols, d)
		}
	}
	if len(cols) == 0 {
		for k := range rows[0] {
			cols = append(cols, k)
		}
		sort.Strings(cols)
	}

	widths := make([]int, len(cols))
	cells := make([][]string, len(rows))
	for i, c := range cols {
		widths[i] = len(c)
	}
	for r, row := range rows {
		cells[r] = make([]string, len(cols))
		for i, c := range cols {
			v := ""
			if row[c] != nil {
				v = fmt.Sprint(row[c])
			}
			cells[r][i] = v
			if len(v) > widths[i] {
				widths[i] = len(v)
			}
		}
	}

	line := func(values []string) string {
		parts := make([]string, len(values))
		for i, v := range values {
			parts[i] = v + strings.Repeat(" ", widths[i]-len(v))
		}
		return "  " + strings.TrimRight(strings.Join(parts, "  "), " ")
	}
	fmt.Fprintln(w, line(cols))
	for _, row := range cells {
		fmt.Fprintln(w, line(row))
	}
}
