package scraper

import (
	"errors"
	"fmt"
)

// Error codes carried by ScrapeError.
const (
	ErrCodeRegionFilter = "REGION_FILTER_FAILED"
	ErrCodePageSize     = "PAGE_SIZE_FAILED"
	ErrCodePagination   = "PAGINATION_ENDED"
	ErrCodeExtract      = "EXTRACT_FAILED"
	ErrCodeBrowser      = "BROWSER_FAILED"
	ErrCodeSink         = "SINK_FAILED"
)

// ScrapeError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// HasCode reports whether err is a ScrapeError with the given code.
func HasCode(err error, code string) bool {
	var se *ScrapeError
	return errors.As(err, &se) && se.Code == code
}
