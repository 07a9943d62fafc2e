package marketdata

import (
	"errors"
	"strings"
)

// ErrNoData is returned when the feed answers without any usable payload.
var ErrNoData = errors.New("no data returned")

// FetchError wraps a provider failure for one symbol. Delisted is a
// best-effort classification from matching the error text against known
// delisting indicators; it can both over- and under-trigger and must not be
// treated as authoritative.
type FetchError struct {
	Symbol   string
	Delisted bool
	Err      error
}

func (e *FetchError) Error() string {
	if e.Delisted {
		return "fetch " + e.Symbol + " (delisting signal): " + e.Err.Error()
	}
	return "fetch " + e.Symbol + ": " + e.Err.Error()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// delistedKeywords are matched case-insensitively against provider error text.
var delistedKeywords = []string{"delisted", "退市", "no data", "not found"}

// classify wraps err into a FetchError, flagging delisting indicators.
func classify(symbol string, err error) error {
	if err == nil {
		return nil
	}

	text := strings.ToLower(err.Error())
	delisted := false
	for _, kw := range delistedKeywords {
		if strings.Contains(text, kw) {
			delisted = true
			break
		}
	}

	return &FetchError{Symbol: symbol, Delisted: delisted, Err: err}
}

// IsDelisted reports whether err carries a delisting classification.
func IsDelisted(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Delisted
}
