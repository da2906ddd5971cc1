package domain

import (
	"context"
	"time"
)

// CacheStore is the byte store behind the read-through cache.
// Get returns ErrCacheMiss for absent or expired keys; any other error means
// the store itself is unhealthy.
type CacheStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Translator is the translation collaborator used by the query preprocessor
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
	IsSourceLanguage(text string) bool
	SourceLanguage() string
}

// Credentials carries whatever a provider needs to authenticate
type Credentials struct {
	APIKey string
	AppID  string
	AppKey string
	Token  string
}

// CredentialsProvider supplies per-provider credentials at adapter
// construction time. ok is false when nothing is configured.
type CredentialsProvider interface {
	Credentials(provider string) (creds Credentials, ok bool)
}
