package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

var (
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrProviderTimeout     = errors.New("provider timeout")
	ErrProviderRejected    = errors.New("provider rejected request")

	// ErrMalformedOutput means the provider answered but the answer is not a JSON object.
	ErrMalformedOutput = errors.New("malformed provider output")
)

// truncated reports output cut off at the token limit. Its text may still
// repair into an object, so it is never decoded.
func truncated(provider, reason string) error {
	return fmt.Errorf("%s: %w: response truncated (finish reason %s)", provider, ErrMalformedOutput, reason)
}

// ProviderError is a classified provider failure. Kind is one of
// ErrProviderUnavailable, ErrProviderTimeout or ErrProviderRejected.
type ProviderError struct {
	Provider   string
	Kind       error
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %v (status %d): %v", e.Provider, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() []error { return []error{e.Kind, e.Err} }

// classify maps a transport or API failure onto the provider taxonomy.
// Cancellation by the caller is passed through untouched so the flow can
// report it as such.
func classify(ctx context.Context, provider string, status int, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", provider, context.Canceled)
	}
	pe := &ProviderError{Provider: provider, StatusCode: status, Err: err}
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		pe.Kind = ErrProviderTimeout
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		pe.Kind = ErrProviderTimeout
	case status == http.StatusTooManyRequests, status >= 500:
		pe.Kind = ErrProviderUnavailable
	case status >= 400:
		pe.Kind = ErrProviderRejected
	default:
		pe.Kind = ErrProviderUnavailable
	}
	return pe
}

// rejected builds a refusal that did not come with an HTTP status, such as a
// safety block.
func rejected(provider, reason string) error {
	return &ProviderError{Provider: provider, Kind: ErrProviderRejected, Err: errors.New(reason)}
}
