package yahoo

import (
	"context"
	"strings"

	"eqcrawl/internal/browser"
	"eqcrawl/internal/scraper"

	"go.uber.org/zap"
)

func init() {
	scraper.Register(&EquityScraper{})
}

// EquityScraper implements scraper.Scraper for the Yahoo Finance equity screener
type EquityScraper struct {
	// open is replaced in tests; nil means a real browser session
	open func(opts scraper.Options) (Driver, error)
}

// Name returns site name
func (e *EquityScraper) Name() string {
	return "yahoo.equity"
}

// Scrape collects every equity listed for the region in target
func (e *EquityScraper) Scrape(ctx context.Context, target string, opts scraper.Options, sink scraper.Sink) error {
	region := strings.TrimSpace(target)
	if region == "" {
		region = opts.Crawler.Region
	}

	open := e.open
	if open == nil {
		open = openSession
	}
	drv, err := open(opts)
	if err != nil {
		return scraper.NewScrapeError(scraper.ErrCodeBrowser, "failed to create browser", err)
	}

	crawler, err := NewCrawler(region, drv, opts)
	if err != nil {
		_ = drv.Close()
		return err
	}
	return crawler.Run(ctx, sink)
}

func openSession(opts scraper.Options) (Driver, error) {
	s, err := browser.Open(opts.Browser)
	if err != nil {
		return nil, err
	}
	if proxy := s.ProxyURL(); proxy != "" && opts.Logger != nil {
		opts.Logger.Info("browser session uses proxy", zap.String("proxy", proxy))
	}
	return s, nil
}
