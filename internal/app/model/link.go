package model

import (
	"errors"
	"time"
)

// ShortLink describes a registered slug and its target.
// The target is immutable for the lifetime of the slug; the entry disappears
// from the registry when its TTL elapses, there is no explicit delete.
type ShortLink struct {
	Slug      string        `json:"slug"`
	TargetURL string        `json:"target_url"`
	TTL       time.Duration `json:"ttl"`
	CreatedAt time.Time     `json:"created_at"`
}

// Registration and resolution failures. Handlers map these onto HTTP
// statuses, so every non-success path out of the service layer must surface
// as one of them.
var (
	// ErrInvalidURL signals a target that is not an absolute HTTPS URL.
	ErrInvalidURL = errors.New("invalid target url")

	// ErrInvalidSlug signals a custom slug outside the alphabet or length bounds.
	ErrInvalidSlug = errors.New("invalid custom slug")

	// ErrSlugConflict signals that a custom slug is already registered.
	// Custom slugs are never retried; the caller must pick another.
	ErrSlugConflict = errors.New("slug already in use")

	// ErrGenerationExhausted signals that the bounded collision-retry loop
	// ran out of attempts. Operationally actionable: the keyspace is saturating.
	ErrGenerationExhausted = errors.New("could not generate a free slug")

	// ErrLinkNotFound signals that the requested slug does not exist or has expired.
	ErrLinkNotFound = errors.New("link not found")

	// ErrStoreUnavailable signals a registry round-trip failure.
	ErrStoreUnavailable = errors.New("link store unavailable")
)

// RateLimitedError is returned when the caller's quota window is exhausted.
// RetryAfter is the remaining window, so callers know when a fresh quota opens.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return "rate limit exceeded"
}
