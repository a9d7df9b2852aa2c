package service

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// SlugFilter is a per-process bloom filter over slugs known to be taken. It
// only short-circuits generated candidates before the conditional write; the
// write itself always decides. A false positive burns one attempt, a slug
// registered by another instance is simply not filtered here. The filter is
// never consulted on the resolve path.
type SlugFilter struct {
	mu     sync.RWMutex
	filter *bloom.BloomFilter
}

// NewSlugFilter sizes the filter for n expected slugs at the given
// false-positive rate.
func NewSlugFilter(n uint, fpRate float64) *SlugFilter {
	return &SlugFilter{filter: bloom.NewWithEstimates(n, fpRate)}
}

// Add marks a slug as taken.
func (f *SlugFilter) Add(slug string) {
	f.mu.Lock()
	f.filter.AddString(slug)
	f.mu.Unlock()
}

// MayExist reports whether the slug might already be taken.
func (f *SlugFilter) MayExist(slug string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.filter.TestString(slug)
}
