package yahoo

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"eqcrawl/internal/config"
	"eqcrawl/internal/diagnose"
	"eqcrawl/internal/scraper"
	"eqcrawl/internal/wait"

	"go.uber.org/zap"
)

// Driver is the scripted browser surface the crawler needs. Lookups other
// than the Wait* methods return immediately when nothing matches.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	WaitVisible(ctx context.Context, selector string) error
	WaitHidden(ctx context.Context, selector string) error
	Click(ctx context.Context, selector string) error
	Checked(ctx context.Context, selector string) (bool, error)
	Input(ctx context.Context, selector, text string) error
	Text(ctx context.Context, selector string) (string, error)
	Attribute(ctx context.Context, selector, name string) (*string, error)
	HTML(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
	Close() error
}

// Crawler walks the equity screener for one region. It owns its driver and
// closes it when Run returns.
type Crawler struct {
	region   string
	equities []Equity

	driver  Driver
	parser  *rowParser
	sel     config.Selectors
	cfg     config.CrawlerConfig
	diagDir string
	logger  *zap.Logger
}

// NewCrawler creates a crawler for region driving drv.
func NewCrawler(region string, drv Driver, opts scraper.Options) (*Crawler, error) {
	parser, err := newRowParser(opts.Selectors.Table)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	diagDir := opts.DiagnosticsDir
	if diagDir == "" {
		diagDir = "."
	}
	return &Crawler{
		region:  region,
		driver:  drv,
		parser:  parser,
		sel:     opts.Selectors,
		cfg:     opts.Crawler,
		diagDir: diagDir,
		logger:  logger.With(zap.String("region", region)),
	}, nil
}

// Equities returns the rows collected so far.
func (c *Crawler) Equities() []Equity {
	return c.equities
}

// Run applies the region filter, maximizes the page size, extracts every
// page and hands the result to sink. Only a failed region filter, an
// unreadable page, a cancelled ctx or a sink failure abort the run.
func (c *Crawler) Run(ctx context.Context, sink scraper.Sink) error {
	defer func() {
		if err := c.driver.Close(); err != nil {
			c.logger.Warn("failed to close browser session", zap.Error(err))
		}
	}()

	if err := c.applyRegionFilter(ctx); err != nil {
		return err
	}

	if err := c.setRowsToMaximum(ctx); err != nil {
		c.logger.Warn("could not maximize page size, continuing with default", zap.Error(err))
	}

	pages, err := c.paginate(ctx)
	if err != nil {
		return err
	}
	c.logger.Info("pagination finished", zap.Int("pages", pages), zap.Int("equities", len(c.equities)))

	if err := sink.Write(NewEquityContent(c.region, c.equities)); err != nil {
		return scraper.NewScrapeError(scraper.ErrCodeSink, "failed to write results", err)
	}
	return nil
}

// paginate extracts the current page and advances until the pager reports
// no further page or the MaxPages limit is reached. It returns the number
// of pages extracted.
func (c *Crawler) paginate(ctx context.Context) (int, error) {
	return paginate(ctx, c.cfg.MaxPages, c.logger, c.extractCurrentPage, c.advancePage)
}

func paginate(
	ctx context.Context,
	maxPages int,
	logger *zap.Logger,
	extract func(context.Context) error,
	advance func(context.Context) (bool, error),
) (int, error) {
	for page := 1; ; page++ {
		logger.Info("processing page", zap.Int("page", page))
		if err := extract(ctx); err != nil {
			return page - 1, err
		}

		if maxPages > 0 && page >= maxPages {
			logger.Info("page limit reached", zap.Int("max_pages", maxPages))
			return page, nil
		}

		more, err := advance(ctx)
		if err != nil && ctx.Err() != nil {
			logger.Warn("pagination interrupted", zap.Int("page", page), zap.Error(ctx.Err()))
			return page, fmt.Errorf("pagination interrupted after page %d: %w", page, ctx.Err())
		}
		if err != nil {
			logger.Info("pagination control unavailable, stopping", zap.Int("page", page), zap.Error(err))
			return page, nil
		}
		if !more {
			return page, nil
		}
	}
}

// applyRegionFilter opens the region menu, swaps the pre-selected region for
// the target one and applies the selection. Any failure is fatal and leaves
// a screenshot plus page snapshot behind.
func (c *Crawler) applyRegionFilter(ctx context.Context) error {
	c.logger.Info("navigating to screener", zap.String("url", c.cfg.BaseURL))

	step, err := c.filterSteps(ctx)
	if err == nil {
		c.logger.Info("region filter applied")
		return nil
	}

	c.logger.Error("failed to apply region filter", zap.String("step", step), zap.Error(err))
	if report, capErr := diagnose.Capture(ctx, c.driver, c.diagDir, "error_region"); capErr != nil {
		c.logger.Warn("failed to capture diagnostics", zap.Error(capErr))
	} else {
		c.logger.Info("diagnostics saved",
			zap.String("screenshot", report.Screenshot),
			zap.String("snapshot", report.Snapshot))
	}
	return scraper.NewScrapeError(scraper.ErrCodeRegionFilter, "failed to apply region filter at step "+step, err)
}

func (c *Crawler) filterSteps(ctx context.Context) (string, error) {
	s := c.sel

	if err := c.driver.Navigate(ctx, c.cfg.BaseURL); err != nil {
		return "navigate", err
	}

	bounded := func(fn func(context.Context) error) error {
		waitCtx, cancel := context.WithTimeout(ctx, c.cfg.FilterTimeout)
		defer cancel()
		return fn(waitCtx)
	}

	if err := bounded(func(ctx context.Context) error { return c.driver.WaitVisible(ctx, s.RegionButton) }); err != nil {
		return "open menu", err
	}
	if err := c.driver.Click(ctx, s.RegionButton); err != nil {
		return "open menu", err
	}
	if err := bounded(func(ctx context.Context) error { return c.driver.WaitVisible(ctx, s.RegionDialog) }); err != nil {
		return "open menu", err
	}

	if err := c.deselectDefaultRegion(ctx); err != nil {
		c.logger.Warn("could not deselect default region",
			zap.String("default_region", c.cfg.DefaultRegion), zap.Error(err))
	}

	if err := c.driver.Input(ctx, s.RegionSearch, c.region); err != nil {
		return "search", err
	}
	if err := wait.Sleep(ctx, c.cfg.SearchDelay); err != nil {
		return "search", err
	}

	if err := c.driver.Click(ctx, s.RegionOptionFor(c.region)); err != nil {
		return "select region", err
	}
	if err := c.driver.Click(ctx, s.RegionApply); err != nil {
		return "apply", err
	}
	if err := bounded(func(ctx context.Context) error { return c.driver.WaitHidden(ctx, s.RegionDialog) }); err != nil {
		return "close menu", err
	}
	if err := wait.Sleep(ctx, c.cfg.SettleDelay); err != nil {
		return "settle", err
	}
	return "", nil
}

// deselectDefaultRegion unchecks the pre-selected region. An already
// unchecked option is not an error. It runs even when the target is the
// default region, since the option click that follows toggles it back on.
func (c *Crawler) deselectDefaultRegion(ctx context.Context) error {
	if c.cfg.DefaultRegion == "" {
		return nil
	}

	checked, err := c.driver.Checked(ctx, c.sel.DefaultRegionInput(c.cfg.DefaultRegion))
	if err != nil {
		return err
	}
	if !checked {
		return nil
	}
	if err := c.driver.Click(ctx, c.sel.DefaultRegionLabel(c.cfg.DefaultRegion)); err != nil {
		return err
	}
	return wait.Sleep(ctx, c.cfg.DeselectDelay)
}

// setRowsToMaximum switches the rows-per-page menu to its largest value.
// The caller treats failure as non-fatal.
func (c *Crawler) setRowsToMaximum(ctx context.Context) error {
	s := c.sel
	maxRows := strconv.Itoa(c.cfg.MaxRows)

	fail := func(msg string, err error) error {
		return scraper.NewScrapeError(scraper.ErrCodePageSize, msg, err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, c.cfg.PageSizeTimeout)
	defer cancel()

	if err := c.driver.WaitVisible(waitCtx, s.PageSizeButton); err != nil {
		return fail("page size menu not found", err)
	}
	label, err := c.driver.Text(ctx, s.PageSizeButton)
	if err != nil {
		return fail("page size menu not readable", err)
	}
	if strings.Contains(label, maxRows) {
		c.logger.Debug("page size already at maximum", zap.String("label", label))
		return nil
	}

	if err := c.driver.Click(ctx, s.PageSizeButton); err != nil {
		return fail("failed to open page size menu", err)
	}
	if err := c.driver.WaitVisible(waitCtx, s.PageSizeDropdown); err != nil {
		return fail("page size menu did not open", err)
	}
	if err := c.driver.Click(ctx, s.PageSizeOptionFor(c.cfg.MaxRows)); err != nil {
		return fail("failed to pick "+maxRows+" rows", err)
	}
	if err := wait.Sleep(ctx, c.cfg.SettleDelay); err != nil {
		return fail("interrupted while page size applied", err)
	}
	c.logger.Info("page size set", zap.Int("rows", c.cfg.MaxRows))
	return nil
}

// extractCurrentPage parses the rendered listing and appends its rows.
func (c *Crawler) extractCurrentPage(ctx context.Context) error {
	markup, err := c.driver.HTML(ctx)
	if err != nil {
		return scraper.NewScrapeError(scraper.ErrCodeExtract, "failed to read rendered page", err)
	}
	equities, err := c.parser.Parse(markup)
	if err != nil {
		return scraper.NewScrapeError(scraper.ErrCodeExtract, "failed to parse listing", err)
	}
	c.logger.Info("rows found", zap.Int("rows", len(equities)))
	c.equities = append(c.equities, equities...)
	return nil
}

// advancePage clicks the next-page control and waits for the first ticker
// to change. It reports false without clicking when the control is
// disabled, and false with an error when the control cannot be used.
func (c *Crawler) advancePage(ctx context.Context) (bool, error) {
	s := c.sel

	disabled, err := c.driver.Attribute(ctx, s.NextPage, "disabled")
	if err != nil {
		return false, scraper.NewScrapeError(scraper.ErrCodePagination, "next page control not found", err)
	}
	if disabled != nil {
		return false, nil
	}

	sentinel, err := c.driver.Text(ctx, s.Sentinel)
	if err != nil {
		c.logger.Warn("could not read first ticker before paging", zap.Error(err))
		sentinel = ""
	}

	if err := c.driver.Click(ctx, s.NextPage); err != nil {
		return false, scraper.NewScrapeError(scraper.ErrCodePagination, "failed to click next page", err)
	}

	changed, err := wait.UntilOrSleep(ctx, c.cfg.PageChangeTimeout, c.cfg.PollInterval, c.cfg.PageChangeFallback,
		func(ctx context.Context) (bool, error) {
			current, err := c.driver.Text(ctx, s.Sentinel)
			if err != nil {
				return false, err
			}
			return current != sentinel, nil
		})
	if err != nil {
		return false, fmt.Errorf("waiting for next page: %w", err)
	}
	if !changed {
		c.logger.Warn("listing did not change after paging, continuing",
			zap.String("sentinel", sentinel), zap.Duration("fallback", c.cfg.PageChangeFallback))
	}
	return true, nil
}
