package diagnose

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

// Page is the subset of a browser session needed to capture its state
type Page interface {
	Screenshot(ctx context.Context) ([]byte, error)
	HTML(ctx context.Context) (string, error)
}

// Report lists the files a capture produced
type Report struct {
	Screenshot string
	Snapshot   string
}

// Capture writes <name>.png (viewport screenshot) and <name>.md (the
// rendered page converted to Markdown) into dir. It keeps going when one of
// the two fails and returns the first error met.
func Capture(ctx context.Context, page Page, dir, name string) (Report, error) {
	var report Report
	if err := os.MkdirAll(dir, 0755); err != nil {
		return report, fmt.Errorf("failed to create diagnostics dir: %w", err)
	}

	var firstErr error
	keep := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}

	if png, err := page.Screenshot(ctx); err != nil {
		keep(fmt.Errorf("failed to take screenshot: %w", err))
	} else {
		path := filepath.Join(dir, name+".png")
		if err := os.WriteFile(path, png, 0644); err != nil {
			keep(fmt.Errorf("failed to write screenshot: %w", err))
		} else {
			report.Screenshot = path
		}
	}

	if html, err := page.HTML(ctx); err != nil {
		keep(fmt.Errorf("failed to read page HTML: %w", err))
	} else {
		converter := md.NewConverter("", true, nil)
		markdown, err := converter.ConvertString(html)
		if err != nil {
			keep(fmt.Errorf("failed to convert HTML to Markdown: %w", err))
		} else {
			path := filepath.Join(dir, name+".md")
			if err := os.WriteFile(path, []byte(markdown), 0644); err != nil {
				keep(fmt.Errorf("failed to write snapshot: %w", err))
			} else {
				report.Snapshot = path
			}
		}
	}

	return report, firstErr
}
