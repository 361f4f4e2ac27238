package yahoo

import (
	"encoding/json"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

var csvHeader = []string{"symbol", "name", "price"}

// EquityContent is the result of one screener run
type EquityContent struct {
	region   string
	equities []Equity
}

// NewEquityContent creates a new EquityContent instance
func NewEquityContent(region string, equities []Equity) *EquityContent {
	return &EquityContent{
		region:   region,
		equities: equities,
	}
}

// Region returns the region the listing was filtered by
func (e *EquityContent) Region() string {
	return e.region
}

// Equities returns the collected rows in extraction order
func (e *EquityContent) Equities() []Equity {
	return e.equities
}

// Len returns the number of collected rows
func (e *EquityContent) Len() int {
	return len(e.equities)
}

// ToCSV returns the rows with a symbol,name,price header. Every field is
// quoted and records end with CRLF.
func (e *EquityContent) ToCSV() (string, error) {
	var sb strings.Builder
	writeQuotedRecord(&sb, csvHeader)
	for _, eq := range e.equities {
		writeQuotedRecord(&sb, []string{eq.Symbol, eq.Name, eq.Price})
	}
	return sb.String(), nil
}

func writeQuotedRecord(sb *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('"')
		sb.WriteString(strings.ReplaceAll(f, `"`, `""`))
		sb.WriteByte('"')
	}
	sb.WriteString("\r\n")
}

// ToJSON returns JSON format content
func (e *EquityContent) ToJSON() ([]byte, error) {
	equities := e.equities
	if equities == nil {
		equities = []Equity{}
	}
	return json.Marshal(struct {
		Region   string   `json:"region"`
		Count    int      `json:"count"`
		Equities []Equity `json:"equities"`
	}{
		Region:   e.region,
		Count:    len(equities),
		Equities: equities,
	})
}

// ToMarkdown returns Markdown format content
func (e *EquityContent) ToMarkdown() (string, error) {
	var sb strings.Builder
	sb.WriteString("# Equities: " + e.region + "\n\n")
	sb.WriteString(e.table().RenderMarkdown())
	sb.WriteString("\n")
	return sb.String(), nil
}

// ToText returns a plain text table
func (e *EquityContent) ToText() (string, error) {
	return e.table().Render(), nil
}

// ToHTML returns HTML format content
func (e *EquityContent) ToHTML() (string, error) {
	return e.table().RenderHTML(), nil
}

func (e *EquityContent) table() table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Symbol", "Name", "Price"})
	for _, eq := range e.equities {
		t.AppendRow(table.Row{eq.Symbol, eq.Name, eq.Price})
	}
	return t
}
