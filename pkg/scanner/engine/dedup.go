package engine

import (
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/rxwycdh/rxhash"
)

type dedupKey struct {
	Value  string
	Source string
}

// Deduplicator remembers (value, source) pairs for the lifetime of one scan.
// The first Claim of a pair wins, every later Claim of it returns false.
type Deduplicator struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewDeduplicator() *Deduplicator {
	return &Deduplicator{seen: make(map[string]struct{})}
}

// Claim marks the pair as seen and reports whether this call was the first.
func (d *Deduplicator) Claim(value string, source string) bool {
	key := Key(value, source)

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[key]; ok {
		return false
	}
	d.seen[key] = struct{}{}
	return true
}

func (d *Deduplicator) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

// Key hashes a (value, source) pair.
func Key(value string, source string) string {
	hash, err := rxhash.HashStruct(dedupKey{Value: value, Source: source})
	if err != nil {
		log.Trace().Err(err).Str("value", value).Msg("Failed hashing dedup key, using raw key")
		return source + "\x00" + value
	}
	return hash
}
