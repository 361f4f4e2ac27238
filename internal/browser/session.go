package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eqcrawl/internal/config"
	"eqcrawl/internal/wait"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

const hiddenPollInterval = 250 * time.Millisecond

// ErrNotFound is returned when a selector matches nothing on the page.
var ErrNotFound = errors.New("element not found")

// Session is a single scripted tab. Selectors are CSS unless they look like
// XPath (see config.IsXPath). Lookups other than WaitVisible and WaitHidden
// do not wait for the element to appear.
type Session struct {
	browser *Browser
	page    *rod.Page
}

// Open launches a browser and opens the tab the session drives. Close
// releases both.
func Open(cfg config.BrowserConfig) (*Session, error) {
	b, err := New(cfg)
	if err != nil {
		return nil, err
	}
	page, err := b.NewPage()
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	return &Session{browser: b, page: page}, nil
}

// ProxyURL returns the proxy the session's browser was launched with, or "".
func (s *Session) ProxyURL() string {
	if s.browser == nil {
		return ""
	}
	return s.browser.GetProxyURL()
}

// Navigate loads url and waits for the load event.
func (s *Session) Navigate(ctx context.Context, url string) error {
	p := s.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("failed to wait for page load: %w", err)
	}
	return nil
}

// WaitVisible blocks until selector matches a visible element or ctx ends.
func (s *Session) WaitVisible(ctx context.Context, selector string) error {
	p := s.page.Context(ctx)
	var (
		el  *rod.Element
		err error
	)
	if config.IsXPath(selector) {
		el, err = p.ElementX(selector)
	} else {
		el, err = p.Element(selector)
	}
	if err != nil {
		return fmt.Errorf("waiting for %q: %w", selector, err)
	}
	if err := el.WaitVisible(); err != nil {
		return fmt.Errorf("waiting for %q to be visible: %w", selector, err)
	}
	return nil
}

// WaitHidden blocks until selector matches nothing or only a hidden element.
// The deadline comes from ctx.
func (s *Session) WaitHidden(ctx context.Context, selector string) error {
	deadline, ok := ctx.Deadline()
	if !ok {
		return fmt.Errorf("waiting for %q to hide: context has no deadline", selector)
	}
	timeout := time.Until(deadline)
	return wait.Until(ctx, timeout, hiddenPollInterval, func(ctx context.Context) (bool, error) {
		el, err := s.find(ctx, selector)
		if errors.Is(err, ErrNotFound) {
			return true, nil
		}
		if err != nil {
			return false, err
		}
		visible, err := el.Visible()
		if err != nil {
			return false, err
		}
		return !visible, nil
	})
}

// Click scrolls the element into view and clicks it from script, which also
// works when an overlay would swallow a real mouse event.
func (s *Session) Click(ctx context.Context, selector string) error {
	el, err := s.find(ctx, selector)
	if err != nil {
		return err
	}
	if _, err := el.Eval(`() => { this.scrollIntoView({block: 'center'}); this.click(); }`); err != nil {
		return fmt.Errorf("failed to click %q: %w", selector, err)
	}
	return nil
}

// Checked reports the checked property of a checkbox or radio input.
func (s *Session) Checked(ctx context.Context, selector string) (bool, error) {
	el, err := s.find(ctx, selector)
	if err != nil {
		return false, err
	}
	prop, err := el.Property("checked")
	if err != nil {
		return false, fmt.Errorf("failed to read checked state of %q: %w", selector, err)
	}
	return prop.Bool(), nil
}

// Input replaces the content of a text field with text.
func (s *Session) Input(ctx context.Context, selector, text string) error {
	el, err := s.find(ctx, selector)
	if err != nil {
		return err
	}
	if err := el.SelectAllText(); err != nil {
		return fmt.Errorf("failed to clear %q: %w", selector, err)
	}
	if err := el.Input(text); err != nil {
		return fmt.Errorf("failed to type into %q: %w", selector, err)
	}
	return nil
}

// Text returns the rendered text of the first match.
func (s *Session) Text(ctx context.Context, selector string) (string, error) {
	el, err := s.find(ctx, selector)
	if err != nil {
		return "", err
	}
	return el.Text()
}

// Attribute returns the named attribute of the first match, nil when unset.
func (s *Session) Attribute(ctx context.Context, selector, name string) (*string, error) {
	el, err := s.find(ctx, selector)
	if err != nil {
		return nil, err
	}
	return el.Attribute(name)
}

// HTML returns the fully rendered document markup.
func (s *Session) HTML(ctx context.Context) (string, error) {
	return s.page.Context(ctx).HTML()
}

// Screenshot captures the current viewport as PNG.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	return s.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

// Close closes the tab and the browser behind it.
func (s *Session) Close() error {
	if s.page != nil {
		_ = s.page.Close()
	}
	if s.browser != nil {
		return s.browser.Close()
	}
	return nil
}

func (s *Session) find(ctx context.Context, selector string) (*rod.Element, error) {
	p := s.page.Context(ctx)
	var (
		has bool
		el  *rod.Element
		err error
	)
	if config.IsXPath(selector) {
		has, el, err = p.HasX(selector)
	} else {
		has, el, err = p.Has(selector)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query %q: %w", selector, err)
	}
	if !has {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, selector)
	}
	return el, nil
}
