package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseFormatVariants(t *testing.T) {
	cases := map[string]Format{
		"json": FormatJSON, "JSON": FormatJSON,
		"csv": FormatCSV,
		"html": FormatHTML, "HTML": FormatHTML,
		"markdown": FormatMarkdown, "md": FormatMarkdown, "MD": FormatMarkdown,
		"text": FormatText, "txt": FormatText, "TXT": FormatText,
	}
	for input, want := range cases {
		got, err := ParseFormat(input)
		if err != nil {
			t.Errorf("ParseFormat(%q) returned error: %v", input, err)
		}
		if got != want {
			t.Errorf("ParseFormat(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestParseFormatInvalidIsError(t *testing.T) {
	if _, err := ParseFormat("invalid"); err == nil {
		t.Error("expected an error for an invalid format")
	}
}

func TestFormatExtension(t *testing.T) {
	if FormatMarkdown.Extension() != "md" {
		t.Errorf("Markdown extension = %q, want md", FormatMarkdown.Extension())
	}
	if FormatText.Extension() != "txt" {
		t.Errorf("Text extension = %q, want txt", FormatText.Extension())
	}
}

func TestToCSV(t *testing.T) {
	g := NewGenerator("Test Report")
	csvOut, err := g.ToCSV([]string{"Port", "State", "Service"}, [][]string{
		{"22", "open", "ssh"},
		{"80", "open", "http"},
	})
	if err != nil {
		t.Fatalf("ToCSV failed: %v", err)
	}
	if !strings.Contains(csvOut, "Port,State,Service") {
		t.Error("expected header row in CSV output")
	}
	if !strings.Contains(csvOut, "22,open,ssh") {
		t.Error("expected data row in CSV output")
	}
}

func TestToCSVEscapesCommasAndQuotes(t *testing.T) {
	g := NewGenerator("Test")
	csvOut, err := g.ToCSV([]string{"Name", "Value"}, [][]string{
		{"test,with,commas", `has "quotes"`},
	})
	if err != nil {
		t.Fatalf("ToCSV failed: %v", err)
	}
	if !strings.Contains(csvOut, `"test,with,commas"`) {
		t.Errorf("expected comma field to be quoted, got %q", csvOut)
	}
	if !strings.Contains(csvOut, `"has ""quotes"""`) {
		t.Errorf("expected embedded quotes to be doubled, got %q", csvOut)
	}
}

func TestToHTML(t *testing.T) {
	g := NewGenerator("Test Report").WithDescription("Test description")
	sections := []Section{
		KeyValueSection("Summary", [][2]string{{"Total", "100"}, {"Success", "95"}}),
		TableSection("Results", []string{"Port", "State"}, [][]string{{"22", "open"}}),
	}
	html := g.ToHTML(sections)
	if !strings.Contains(html, "<title>Test Report</title>") {
		t.Error("expected title in HTML output")
	}
	if !strings.Contains(html, "Test description") {
		t.Error("expected description in HTML output")
	}
	if !strings.Contains(html, "Summary") || !strings.Contains(html, "Total") {
		t.Error("expected key-value section content in HTML output")
	}
}

func TestToMarkdown(t *testing.T) {
	g := NewGenerator("Test Report")
	sections := []Section{
		KeyValueSection("Info", [][2]string{{"Target", "192.168.1.1"}}),
		TableSection("Ports", []string{"Port", "Service"}, [][]string{{"80", "http"}}),
	}
	md := g.ToMarkdown(sections)
	if !strings.Contains(md, "# Test Report") {
		t.Error("expected title heading")
	}
	if !strings.Contains(md, "**Target**: 192.168.1.1") {
		t.Error("expected key-value rendering")
	}
	if !strings.Contains(md, "| Port | Service |") {
		t.Error("expected table header")
	}
}

func TestToText(t *testing.T) {
	g := NewGenerator("Test Report")
	sections := []Section{TextSection("Output", "Line 1\nLine 2")}
	text := g.ToText(sections)
	if !strings.Contains(text, "Test Report") || !strings.Contains(text, "--- Output ---") {
		t.Error("expected title and section header in text output")
	}
	if !strings.Contains(text, "Line 1") {
		t.Error("expected section body in text output")
	}
}

func TestEscapeHTML(t *testing.T) {
	if escapeHTML("<script>") != "&lt;script&gt;" {
		t.Errorf("unexpected escape result: %q", escapeHTML("<script>"))
	}
	if escapeHTML("a & b") != "a &amp; b" {
		t.Errorf("unexpected escape result: %q", escapeHTML("a & b"))
	}
	if escapeHTML("it's") != "it&#x27;s" {
		t.Errorf("unexpected escape result: %q", escapeHTML("it's"))
	}
}

func TestSaveToFileHTML(t *testing.T) {
	g := NewGenerator("Save Test")
	dir := t.TempDir()
	path := filepath.Join(dir, "test_report.html")

	sections := []Section{TextSection("Content", "Test content")}
	if err := g.SaveToFile(FormatHTML, sections, path); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read saved report: %v", err)
	}
	if !strings.Contains(string(content), "Save Test") || !strings.Contains(string(content), "Test content") {
		t.Error("saved report missing expected content")
	}
}

func TestSaveToFileRejectsJSONAndCSV(t *testing.T) {
	g := NewGenerator("Test")
	dir := t.TempDir()
	if err := g.SaveToFile(FormatJSON, nil, filepath.Join(dir, "out.json")); err == nil {
		t.Error("expected SaveToFile to reject FormatJSON")
	}
	if err := g.SaveToFile(FormatCSV, nil, filepath.Join(dir, "out.csv")); err == nil {
		t.Error("expected SaveToFile to reject FormatCSV")
	}
}
