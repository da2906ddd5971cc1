package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when no provider recognizes the food
	ErrNotFound = errors.New("food not found")

	// ErrAuthFailure is returned when a provider rejects our credentials
	ErrAuthFailure = errors.New("provider authentication failed")

	// ErrRateLimited is returned when a provider quota is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrNetwork is returned when a provider cannot be reached or answers 5xx
	ErrNetwork = errors.New("provider network error")

	// ErrSchema is returned when a provider response does not match the expected shape
	ErrSchema = errors.New("provider response schema mismatch")

	// ErrTimeout is returned when a provider call exceeds its timeout
	ErrTimeout = errors.New("provider call timed out")

	// ErrCapabilityNotSupported is returned when a provider lacks the requested operation
	ErrCapabilityNotSupported = errors.New("capability not supported by provider")

	// ErrAllProvidersExhausted is returned when every eligible provider failed
	ErrAllProvidersExhausted = errors.New("all providers exhausted")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrUnknownProvider is returned when a request names a provider that is not registered
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)

// ErrorKind classifies a provider failure
type ErrorKind string

const (
	KindAuthFailure            ErrorKind = "auth_failure"
	KindRateLimited            ErrorKind = "rate_limited"
	KindNotFound               ErrorKind = "not_found"
	KindNetworkError           ErrorKind = "network_error"
	KindSchemaError            ErrorKind = "schema_error"
	KindTimeout                ErrorKind = "timeout"
	KindCapabilityNotSupported ErrorKind = "capability_not_supported"
)

var kindSentinels = map[ErrorKind]error{
	KindAuthFailure:            ErrAuthFailure,
	KindRateLimited:            ErrRateLimited,
	KindNotFound:               ErrNotFound,
	KindNetworkError:           ErrNetwork,
	KindSchemaError:            ErrSchema,
	KindTimeout:                ErrTimeout,
	KindCapabilityNotSupported: ErrCapabilityNotSupported,
}

// ProviderError is the typed failure every adapter returns
type ProviderError struct {
	Provider   string
	Kind       ErrorKind
	Err        error
	RetryAfter time.Duration // set for KindRateLimited when the provider said so
}

// NewProviderError creates a ProviderError
func NewProviderError(provider string, kind ErrorKind, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, Err: err}
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind, so callers can write
// errors.Is(err, domain.ErrRateLimited).
func (e *ProviderError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// ConfigurationError reports a provider that could not be constructed.
// Only that provider is disabled.
type ConfigurationError struct {
	Provider string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("provider %s disabled: %s", e.Provider, e.Reason)
}

// CacheError wraps a cache storage failure. It is never fatal to a request.
type CacheError struct {
	Op  string
	Key string
	Err error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

// ExhaustedError is the only hard failure the resolver surfaces: every
// eligible provider errored or returned nothing.
type ExhaustedError struct {
	Failures []*ProviderError
}

func (e *ExhaustedError) Error() string {
	if len(e.Failures) == 0 {
		return ErrAllProvidersExhausted.Error() + ": no eligible providers"
	}
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.Error())
	}
	return fmt.Sprintf("%s: %s", ErrAllProvidersExhausted, strings.Join(parts, "; "))
}

// Is matches ErrAllProvidersExhausted, and ErrNotFound when every provider
// answered that it does not know the food.
func (e *ExhaustedError) Is(target error) bool {
	switch target {
	case ErrAllProvidersExhausted:
		return true
	case ErrNotFound:
		return e.AllNotFound()
	}
	return false
}

// AllNotFound reports whether every failure was a NotFound
func (e *ExhaustedError) AllNotFound() bool {
	if len(e.Failures) == 0 {
		return false
	}
	for _, f := range e.Failures {
		if f.Kind != KindNotFound {
			return false
		}
	}
	return true
}
