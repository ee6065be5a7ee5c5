// Package report renders probe/scan/diagnostic results into the output
// formats every subcommand's --format flag accepts: JSON, CSV, HTML,
// Markdown, and plain text.
package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dmitriimaksimovdevelop/nelst/internal/nelsterr"
)

// Format selects the rendering produced by a Generator.
type Format int

const (
	FormatJSON Format = iota
	FormatCSV
	FormatHTML
	FormatMarkdown
	FormatText
)

// ParseFormat parses a --format flag value, accepting "md" as an alias
// for markdown and "txt" as an alias for text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "html":
		return FormatHTML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "text", "txt":
		return FormatText, nil
	default:
		return 0, nelsterr.Config("unknown report format %q, valid formats: json, csv, html, markdown, text", s)
	}
}

// Extension returns the file extension conventionally used for a format.
func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatCSV:
		return "csv"
	case FormatHTML:
		return "html"
	case FormatMarkdown:
		return "md"
	default:
		return "txt"
	}
}

// SectionContent is the payload of one report section: exactly one of its
// fields is populated, selected by which constructor built the section.
type SectionContent struct {
	KeyValue [][2]string
	Table    *TableContent
	Text     string
}

// TableContent is a header row plus data rows, both rendered as strings.
type TableContent struct {
	Headers []string
	Rows    [][]string
}

// Section is one titled block of a rendered report.
type Section struct {
	Title   string
	Content SectionContent
}

// KeyValueSection builds a section rendered as a label/value list.
func KeyValueSection(title string, items [][2]string) Section {
	return Section{Title: title, Content: SectionContent{KeyValue: items}}
}

// TableSection builds a section rendered as a table.
func TableSection(title string, headers []string, rows [][]string) Section {
	return Section{Title: title, Content: SectionContent{Table: &TableContent{Headers: headers, Rows: rows}}}
}

// TextSection builds a section rendered as preformatted text.
func TextSection(title, content string) Section {
	return Section{Title: title, Content: SectionContent{Text: content}}
}

// Generator renders a titled report from Sections, or raw data as JSON/CSV.
type Generator struct {
	Title       string
	Description string
	GeneratedAt time.Time
}

// NewGenerator creates a Generator stamped with the current time.
func NewGenerator(title string) *Generator {
	return &Generator{Title: title, GeneratedAt: time.Now().UTC()}
}

// WithDescription attaches a subtitle/description line.
func (g *Generator) WithDescription(description string) *Generator {
	g.Description = description
	return g
}

// ToJSON marshals arbitrary result data as indented JSON.
func (g *Generator) ToJSON(data interface{}) (string, error) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", nelsterr.Config("failed to serialize to JSON: %v", err)
	}
	return string(b), nil
}

// ToCSV renders a header row and data rows as CSV.
func (g *Generator) ToCSV(headers []string, rows [][]string) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if len(headers) > 0 {
		if err := w.Write(headers); err != nil {
			return "", nelsterr.Config("failed to write CSV header: %v", err)
		}
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return "", nelsterr.Config("failed to write CSV row: %v", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", nelsterr.Config("failed to flush CSV: %v", err)
	}
	return buf.String(), nil
}

// ToHTML renders sections as a standalone HTML document.
func (g *Generator) ToHTML(sections []Section) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	b.WriteString("  <meta charset=\"UTF-8\">\n")
	b.WriteString("  <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(&b, "  <title>%s</title>\n", escapeHTML(g.Title))
	b.WriteString("  <style>\n")
	b.WriteString(cssStyles)
	b.WriteString("  </style>\n</head>\n<body>\n")
	b.WriteString("  <div class=\"container\">\n")
	fmt.Fprintf(&b, "    <h1>%s</h1>\n", escapeHTML(g.Title))
	if g.Description != "" {
		fmt.Fprintf(&b, "    <p class=\"description\">%s</p>\n", escapeHTML(g.Description))
	}
	fmt.Fprintf(&b, "    <p class=\"meta\">Generated: %s</p>\n", g.GeneratedAt.Format(time.RFC3339))

	for _, section := range sections {
		fmt.Fprintf(&b, "    <h2>%s</h2>\n", escapeHTML(section.Title))
		switch {
		case section.Content.Table != nil:
			t := section.Content.Table
			b.WriteString("    <table class=\"data-table\">\n      <thead><tr>\n")
			for _, h := range t.Headers {
				fmt.Fprintf(&b, "        <th>%s</th>\n", escapeHTML(h))
			}
			b.WriteString("      </tr></thead>\n      <tbody>\n")
			for _, row := range t.Rows {
				b.WriteString("      <tr>\n")
				for _, cell := range row {
					fmt.Fprintf(&b, "        <td>%s</td>\n", escapeHTML(cell))
				}
				b.WriteString("      </tr>\n")
			}
			b.WriteString("      </tbody>\n    </table>\n")
		case section.Content.Text != "":
			fmt.Fprintf(&b, "    <pre>%s</pre>\n", escapeHTML(section.Content.Text))
		default:
			b.WriteString("    <table class=\"kv-table\">\n")
			for _, kv := range section.Content.KeyValue {
				fmt.Fprintf(&b, "      <tr><th>%s</th><td>%s</td></tr>\n", escapeHTML(kv[0]), escapeHTML(kv[1]))
			}
			b.WriteString("    </table>\n")
		}
	}

	b.WriteString("  </div>\n</body>\n</html>\n")
	return b.String()
}

// ToMarkdown renders sections as a Markdown document.
func (g *Generator) ToMarkdown(sections []Section) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", g.Title)
	if g.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", g.Description)
	}
	fmt.Fprintf(&b, "*Generated: %s*\n\n", g.GeneratedAt.Format(time.RFC3339))

	for _, section := range sections {
		fmt.Fprintf(&b, "## %s\n\n", section.Title)
		switch {
		case section.Content.Table != nil:
			t := section.Content.Table
			b.WriteString("| ")
			b.WriteString(strings.Join(t.Headers, " | "))
			b.WriteString(" |\n| ")
			seps := make([]string, len(t.Headers))
			for i := range seps {
				seps[i] = "---"
			}
			b.WriteString(strings.Join(seps, " | "))
			b.WriteString(" |\n")
			for _, row := range t.Rows {
				b.WriteString("| ")
				b.WriteString(strings.Join(row, " | "))
				b.WriteString(" |\n")
			}
			b.WriteString("\n")
		case section.Content.Text != "":
			b.WriteString("```\n")
			b.WriteString(section.Content.Text)
			b.WriteString("\n```\n\n")
		default:
			for _, kv := range section.Content.KeyValue {
				fmt.Fprintf(&b, "- **%s**: %s\n", kv[0], kv[1])
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// ToText renders sections as aligned plain text.
func (g *Generator) ToText(sections []Section) string {
	var b strings.Builder
	sep := strings.Repeat("=", 60)
	fmt.Fprintf(&b, "%s\n  %s\n%s\n\n", sep, g.Title, sep)
	if g.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", g.Description)
	}
	fmt.Fprintf(&b, "Generated: %s\n\n", g.GeneratedAt.Format(time.RFC3339))

	for _, section := range sections {
		fmt.Fprintf(&b, "--- %s ---\n\n", section.Title)
		switch {
		case section.Content.Table != nil:
			t := section.Content.Table
			widths := make([]int, len(t.Headers))
			for i, h := range t.Headers {
				widths[i] = len(h)
			}
			for _, row := range t.Rows {
				for i, cell := range row {
					if i < len(widths) && len(cell) > widths[i] {
						widths[i] = len(cell)
					}
				}
			}
			b.WriteString("  " + padJoin(t.Headers, widths) + "\n")
			seps := make([]string, len(widths))
			for i, w := range widths {
				seps[i] = strings.Repeat("-", w)
			}
			b.WriteString("  " + strings.Join(seps, "  ") + "\n")
			for _, row := range t.Rows {
				b.WriteString("  " + padJoin(row, widths) + "\n")
			}
			b.WriteString("\n")
		case section.Content.Text != "":
			for _, line := range strings.Split(section.Content.Text, "\n") {
				fmt.Fprintf(&b, "  %s\n", line)
			}
			b.WriteString("\n")
		default:
			maxKey := 0
			for _, kv := range section.Content.KeyValue {
				if len(kv[0]) > maxKey {
					maxKey = len(kv[0])
				}
			}
			for _, kv := range section.Content.KeyValue {
				fmt.Fprintf(&b, "  %-*s  %s\n", maxKey, kv[0], kv[1])
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func padJoin(cells []string, widths []int) string {
	parts := make([]string, len(cells))
	for i, c := range cells {
		w := 0
		if i < len(widths) {
			w = widths[i]
		}
		parts[i] = fmt.Sprintf("%-*s", w, c)
	}
	return strings.Join(parts, "  ")
}

// SaveToFile renders sections in the given format and writes them to path.
// JSON and CSV are raw-data formats handled by ToJSON/ToCSV directly; this
// helper only covers the three section-based formats.
func (g *Generator) SaveToFile(format Format, sections []Section, path string) error {
	var content string
	switch format {
	case FormatHTML:
		content = g.ToHTML(sections)
	case FormatMarkdown:
		content = g.ToMarkdown(sections)
	case FormatText:
		content = g.ToText(sections)
	default:
		return nelsterr.Config("use ToJSON or ToCSV for JSON/CSV formats")
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return nelsterr.Config("failed to write report to %s: %v", path, err)
	}
	return nil
}

func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	s = strings.ReplaceAll(s, "'", "&#x27;")
	return s
}

const cssStyles = `
    body {
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Oxygen, Ubuntu, sans-serif;
      line-height: 1.6;
      color: #333;
      background: #f5f5f5;
      margin: 0;
      padding: 20px;
    }
    .container {
      max-width: 1000px;
      margin: 0 auto;
      background: white;
      padding: 30px;
      border-radius: 8px;
      box-shadow: 0 2px 4px rgba(0,0,0,0.1);
    }
    h1 {
      color: #2c3e50;
      border-bottom: 3px solid #3498db;
      padding-bottom: 10px;
    }
    h2 {
      color: #34495e;
      margin-top: 30px;
      border-bottom: 1px solid #ecf0f1;
      padding-bottom: 5px;
    }
    .description { color: #7f8c8d; font-size: 1.1em; }
    .meta { color: #95a5a6; font-size: 0.9em; }
    table { width: 100%; border-collapse: collapse; margin: 15px 0; }
    .kv-table th { text-align: left; width: 200px; padding: 8px 12px; background: #ecf0f1; border: 1px solid #bdc3c7; }
    .kv-table td { padding: 8px 12px; border: 1px solid #bdc3c7; }
    .data-table th { background: #3498db; color: white; padding: 10px; text-align: left; }
    .data-table td { padding: 10px; border-bottom: 1px solid #ecf0f1; }
    .data-table tbody tr:hover { background: #f8f9fa; }
    pre { background: #2c3e50; color: #ecf0f1; padding: 15px; border-radius: 4px; overflow-x: auto; }
`
