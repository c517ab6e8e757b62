package tableprinter

import (
	"fmt"
	"io"
	"sauto-parser/internal/core/domain"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Format - вид вывода таблицы.
type Format string

const (
	FormatTable    Format = "table"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatCSV, FormatMarkdown, FormatHTML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, csv, markdown or html)", s)
	}
}

// Printer выводит собранную таблицу объявлений.
type Printer struct {
	out    io.Writer
	format Format
}

func New(out io.Writer, format Format) *Printer {
	if format == "" {
		format = FormatTable
	}
	return &Printer{out: out, format: format}
}

// Print выводит строки в порядке таблицы, колонки - в порядке колонок таблицы.
func (p *Printer) Print(t *domain.Table) error {
	w := table.NewWriter()
	w.SetStyle(table.StyleRounded)

	columns := t.Columns()
	header := make(table.Row, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	w.AppendHeader(header)

	for _, rec := range t.Rows() {
		row := make(table.Row, len(columns))
		for i, c := range columns {
			if v, ok := rec.Get(c); ok {
				row[i] = v.Interface()
			}
		}
		w.AppendRow(row)
	}

	var rendered string
	switch p.format {
	case FormatCSV:
		rendered = w.RenderCSV()
	case FormatMarkdown:
		rendered = w.RenderMarkdown()
	case FormatHTML:
		rendered = w.RenderHTML()
	default:
		rendered = w.Render()
	}

	if _, err := fmt.Fprintln(p.out, rendered); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}
	return nil
}
