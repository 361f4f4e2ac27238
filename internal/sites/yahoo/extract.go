package yahoo

import (
	"fmt"
	"strings"

	"eqcrawl/internal/config"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Equity is one listing row as rendered by the screener
type Equity struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Price  string `json:"price"`
}

// rowParser pulls equities out of rendered screener markup
type rowParser struct {
	rows    cascadia.Selector
	cells   cascadia.Selector
	table   config.TableSelectors
	minCols int
}

func newRowParser(t config.TableSelectors) (*rowParser, error) {
	rows, err := cascadia.Compile(t.Rows)
	if err != nil {
		return nil, fmt.Errorf("invalid row selector %q: %w", t.Rows, err)
	}
	cells, err := cascadia.Compile(t.Cells)
	if err != nil {
		return nil, fmt.Errorf("invalid cell selector %q: %w", t.Cells, err)
	}
	return &rowParser{
		rows:    rows,
		cells:   cells,
		table:   t,
		minCols: t.MinColumns(),
	}, nil
}

// Parse returns the equities in document order. Rows with fewer cells than
// the configured minimum are skipped.
func (p *rowParser) Parse(markup string) ([]Equity, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page markup: %w", err)
	}

	var equities []Equity
	doc.FindMatcher(p.rows).Each(func(_ int, row *goquery.Selection) {
		cells := row.FindMatcher(p.cells)
		if cells.Length() < p.minCols {
			return
		}
		equities = append(equities, Equity{
			Symbol: strippedText(cells.Eq(p.table.SymbolColumn)),
			Name:   strippedText(cells.Eq(p.table.NameColumn)),
			Price:  strippedText(cells.Eq(p.table.PriceColumn)),
		})
	})
	return equities, nil
}

// strippedText trims every text node under sel and joins them without a
// separator, so "<span> AAPL </span>\n<span>+1%</span>" reads "AAPL+1%".
func strippedText(sel *goquery.Selection) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(strings.TrimSpace(n.Data))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return sb.String()
}
