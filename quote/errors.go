package quote

import "fmt"

// AuthError reports a required credential missing from the environment.
// This is a configuration problem, not a transient fault.
type AuthError struct {
	Source Source
	Env    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: API key must be set via %s", e.Source, e.Env)
}

// DataError reports a provider response that did not carry a usable price:
// the expected field was missing, unparseable, or non-finite.
type DataError struct {
	Source Source
	Symbol string
	Reason string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("%s: no usable price for %q: %s", e.Source, e.Symbol, e.Reason)
}

// TransportError reports a network or HTTP failure reaching the provider.
type TransportError struct {
	Source Source
	Symbol string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: cannot fetch price for %q: %v", e.Source, e.Symbol, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
