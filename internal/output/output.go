package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"eqcrawl/internal/formatter"
	"eqcrawl/internal/scraper"

	"go.uber.org/zap"
)

// Regional is implemented by content that was collected for one region.
type Regional interface {
	Region() string
}

// FileSink writes formatted content to a file named after the region.
type FileSink struct {
	dir      string
	format   string
	override string
	logger   *zap.Logger

	written string
}

// NewFileSink creates a sink writing into dir in the given format. A
// non-empty override replaces the derived path.
func NewFileSink(dir, format, override string, logger *zap.Logger) *FileSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSink{
		dir:      dir,
		format:   format,
		override: override,
		logger:   logger,
	}
}

// PathFor returns dir/stocks_<region>.<ext>, with the region lower-cased
// and spaces replaced by underscores.
func PathFor(dir, region, format string) string {
	name := strings.ToLower(strings.ReplaceAll(region, " ", "_"))
	return filepath.Join(dir, "stocks_"+name+formatter.Extension(format))
}

// Path returns the file written by the last successful Write, or "".
func (s *FileSink) Path() string {
	return s.written
}

// Write renders content and stores it. Empty content is logged and skipped
// so that no file is created.
func (s *FileSink) Write(content scraper.Content) error {
	if content.Len() == 0 {
		s.logger.Warn("no equities collected, nothing written")
		return nil
	}

	path := s.override
	if path == "" {
		r, ok := content.(Regional)
		if !ok {
			return fmt.Errorf("cannot derive output path: content has no region")
		}
		path = PathFor(s.dir, r.Region(), s.format)
	}

	body, err := formatter.Format(content, s.format)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}

	s.written = path
	s.logger.Info("output written", zap.String("path", path), zap.Int("records", content.Len()))
	return nil
}
