package binance

import "fmt"

// ProviderError is a failed market-data call. The monitor skips the symbol
// for the current cycle.
type ProviderError struct {
	Op     string
	Symbol string
	Err    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("binance %s %s: %v", e.Op, e.Symbol, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

type parseError struct {
	field string
	value string
	err   error
}

func (e *parseError) Error() string {
	return fmt.Sprintf("parse %s %q: %v", e.field, e.value, e.err)
}

func (e *parseError) Unwrap() error {
	return e.err
}
