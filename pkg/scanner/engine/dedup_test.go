package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeduplicatorClaim(t *testing.T) {
	d := NewDeduplicator()

	assert.True(t, d.Claim("/api/users", "https://a.example/app.js"))
	assert.False(t, d.Claim("/api/users", "https://a.example/app.js"))
	assert.True(t, d.Claim("/api/users", "https://b.example/app.js"))
	assert.True(t, d.Claim("/api/user", "https://a.example/app.js"))
	assert.Equal(t, 3, d.Len())
}

func TestKeyIsStable(t *testing.T) {
	assert.Equal(t, Key("v", "s"), Key("v", "s"))
	assert.NotEqual(t, Key("a", "s"), Key("b", "s"))
	assert.NotEqual(t, Key("v", "s1"), Key("v", "s2"))
}

func TestDeduplicatorConcurrentClaims(t *testing.T) {
	d := NewDeduplicator()
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0

	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if d.Claim("/api/x", "src") {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}
