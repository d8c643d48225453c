package llm

import "errors"

var (
	// ErrProviderUnknown is returned when a step names a provider that
	// does not exist.
	ErrProviderUnknown = errors.New("unknown provider")

	// ErrProviderUnavailable is returned when a named provider has no
	// initialized adapter, usually because credentials are missing.
	ErrProviderUnavailable = errors.New("provider not initialized")

	// ErrProviderFailure wraps errors returned by a vendor API.
	ErrProviderFailure = errors.New("provider request failed")
)
