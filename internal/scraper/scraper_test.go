package scraper

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubScraper struct{ name string }

func (s stubScraper) Name() string { return s.name }

func (s stubScraper) Scrape(context.Context, string, Options, Sink) error { return nil }

func TestRegistry(t *testing.T) {
	Register(stubScraper{name: "Test.Site"})
	t.Cleanup(func() { delete(registry, "test.site") })

	s, ok := Get(" TEST.site ")
	assert.True(t, ok)
	assert.Equal(t, "Test.Site", s.Name())
	assert.Contains(t, Names(), "test.site")

	_, ok = Get("unknown")
	assert.False(t, ok)
}

func TestScrapeError(t *testing.T) {
	cause := errors.New("dialog never opened")
	err := NewScrapeError(ErrCodeRegionFilter, "failed to apply region filter", cause)

	assert.Equal(t, "REGION_FILTER_FAILED: failed to apply region filter: dialog never opened", err.Error())
	assert.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("run: %w", err)
	assert.True(t, HasCode(wrapped, ErrCodeRegionFilter))
	assert.False(t, HasCode(wrapped, ErrCodePageSize))
	assert.False(t, HasCode(cause, ErrCodeRegionFilter))

	assert.Equal(t, "SINK_FAILED: no path", NewScrapeError(ErrCodeSink, "no path", nil).Error())
}
