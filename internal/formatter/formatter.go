package formatter

import (
	"fmt"
	"path/filepath"
	"strings"

	"eqcrawl/internal/scraper"
)

// Format renders content in the given format
func Format(content scraper.Content, format string) (string, error) {
	switch strings.ToLower(format) {
	case "html":
		return content.ToHTML()
	case "text":
		return content.ToText()
	case "markdown":
		return content.ToMarkdown()
	case "csv":
		return content.ToCSV()
	case "json":
		b, err := content.ToJSON()
		if err != nil {
			return "", err
		}
		return string(b), nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", format)
	}
}

// Extension returns the file extension, dot included, used for format
func Extension(format string) string {
	switch strings.ToLower(format) {
	case "html":
		return ".html"
	case "text":
		return ".txt"
	case "markdown":
		return ".md"
	case "json":
		return ".json"
	default:
		return ".csv"
	}
}

// FromExtension infers the output format from a file name, or "" when the
// extension is not recognised
func FromExtension(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".md", ".markdown":
		return "markdown"
	case ".json":
		return "json"
	case ".html", ".htm":
		return "html"
	case ".txt":
		return "text"
	case ".csv":
		return "csv"
	default:
		return ""
	}
}

// Valid reports whether format is supported
func Valid(format string) bool {
	switch strings.ToLower(format) {
	case "html", "text", "markdown", "json", "csv":
		return true
	}
	return false
}
