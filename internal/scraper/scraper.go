package scraper

import (
	"context"

	"eqcrawl/internal/config"

	"go.uber.org/zap"
)

type Scraper interface {
	Name() string
	Scrape(ctx context.Context, target string, opts Options, sink Sink) error
}

type Content interface {
	Len() int
	ToHTML() (string, error)
	ToText() (string, error)
	ToMarkdown() (string, error)
	ToJSON() ([]byte, error)
	ToCSV() (string, error)
}

// Sink receives the collected content once a run finishes.
type Sink interface {
	Write(content Content) error
}

type Options struct {
	Browser        config.BrowserConfig
	Crawler        config.CrawlerConfig
	Selectors      config.Selectors
	DiagnosticsDir string // screenshots and page snapshots of fatal failures
	Logger         *zap.Logger
}
