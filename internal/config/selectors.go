package config

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
)

// Selectors collects every locator the screener sequence touches.
// Values starting with "/", "./" or "(" are XPath, everything else is CSS.
type Selectors struct {
	// Region filter widget. DefaultLabel, DefaultInput and RegionOption
	// take the quoted region name as their %s verb.
	RegionButton string `yaml:"region_button"`
	RegionDialog string `yaml:"region_dialog"`
	DefaultLabel string `yaml:"default_label"`
	DefaultInput string `yaml:"default_input"`
	RegionSearch string `yaml:"region_search"`
	RegionOption string `yaml:"region_option"`
	RegionApply  string `yaml:"region_apply"`

	// Rows-per-page menu. PageSizeOption takes the row count as %d.
	PageSizeButton   string `yaml:"page_size_button"`
	PageSizeDropdown string `yaml:"page_size_dropdown"`
	PageSizeOption   string `yaml:"page_size_option"`

	// Pagination
	NextPage string `yaml:"next_page"`
	Sentinel string `yaml:"sentinel"`

	Table TableSelectors `yaml:"table"`
}

// TableSelectors locates listing rows in the rendered markup.
type TableSelectors struct {
	Rows         string `yaml:"rows"`
	Cells        string `yaml:"cells"`
	SymbolColumn int    `yaml:"symbol_column"`
	NameColumn   int    `yaml:"name_column"`
	PriceColumn  int    `yaml:"price_column"`
}

// MinColumns is the number of cells a row needs to yield a record.
func (t TableSelectors) MinColumns() int {
	return max(t.SymbolColumn, t.NameColumn, t.PriceColumn) + 1
}

// DefaultSelectors returns the locators for the Yahoo Finance equity screener.
func DefaultSelectors() Selectors {
	regionMenu := "//div[contains(@class, 'menuContainer') and .//div[text()='Region']]"
	dialog := regionMenu + "//div[contains(@class, 'menu-surface-dialog')]"

	return Selectors{
		RegionButton: regionMenu + "//button",
		RegionDialog: dialog,
		DefaultLabel: dialog + "//label[@title=%s]",
		DefaultInput: dialog + "//label[@title=%s]//input",
		RegionSearch: dialog + "//input[@placeholder='Search...']",
		RegionOption: dialog + "//label[@title=%s]",
		RegionApply:  dialog + "//button[@aria-label='Apply']",

		PageSizeButton:   "//div[contains(@class, 'paginationContainer')]//button[contains(@class, 'menuBtn')]",
		PageSizeDropdown: "div.dialog-container[aria-hidden='false']",
		PageSizeOption:   `div.dialog-container[aria-hidden='false'] div[data-value="%d"]`,

		NextPage: `button[data-testid="next-page-button"]`,
		Sentinel: `tr.row [data-testid-cell="ticker"] span.symbol`,

		Table: TableSelectors{
			Rows:         "table tbody tr",
			Cells:        "td",
			SymbolColumn: 1,
			NameColumn:   2,
			PriceColumn:  4,
		},
	}
}

// DefaultRegionLabel returns the label of the pre-selected region.
func (s Selectors) DefaultRegionLabel(region string) string {
	return fmt.Sprintf(s.DefaultLabel, XPathLiteral(region))
}

// DefaultRegionInput returns the checkbox of the pre-selected region.
func (s Selectors) DefaultRegionInput(region string) string {
	return fmt.Sprintf(s.DefaultInput, XPathLiteral(region))
}

// RegionOptionFor returns the option label matching region.
func (s Selectors) RegionOptionFor(region string) string {
	return fmt.Sprintf(s.RegionOption, XPathLiteral(region))
}

// PageSizeOptionFor returns the menu entry for the given page size.
func (s Selectors) PageSizeOptionFor(rows int) string {
	return fmt.Sprintf(s.PageSizeOption, rows)
}

// Validate checks that every selector is set and that CSS selectors compile.
func (s Selectors) Validate() error {
	named := []struct {
		name, value string
	}{
		{"region_button", s.RegionButton},
		{"region_dialog", s.RegionDialog},
		{"default_label", s.DefaultRegionLabel("X")},
		{"default_input", s.DefaultRegionInput("X")},
		{"region_search", s.RegionSearch},
		{"region_option", s.RegionOptionFor("X")},
		{"region_apply", s.RegionApply},
		{"page_size_button", s.PageSizeButton},
		{"page_size_dropdown", s.PageSizeDropdown},
		{"page_size_option", s.PageSizeOptionFor(100)},
		{"next_page", s.NextPage},
		{"sentinel", s.Sentinel},
		{"table.rows", s.Table.Rows},
		{"table.cells", s.Table.Cells},
	}
	for _, n := range named {
		if strings.TrimSpace(n.value) == "" {
			return fmt.Errorf("selector %s must not be empty", n.name)
		}
		if strings.Contains(n.value, "%!") {
			return fmt.Errorf("selector %s has a bad placeholder: %s", n.name, n.value)
		}
		if IsXPath(n.value) {
			continue
		}
		if _, err := cascadia.Compile(n.value); err != nil {
			return fmt.Errorf("selector %s is not valid CSS: %w", n.name, err)
		}
	}

	t := s.Table
	if t.SymbolColumn < 0 || t.NameColumn < 0 || t.PriceColumn < 0 {
		return fmt.Errorf("table column indexes must not be negative")
	}
	return nil
}

// IsXPath reports whether sel should be evaluated as XPath.
func IsXPath(sel string) bool {
	sel = strings.TrimSpace(sel)
	return strings.HasPrefix(sel, "/") || strings.HasPrefix(sel, "./") || strings.HasPrefix(sel, "(")
}

// XPathLiteral quotes s as an XPath 1.0 string literal. XPath has no escape
// sequences, so a value holding both quote kinds is built with concat().
func XPathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if p != "" {
			quoted = append(quoted, "'"+p+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
