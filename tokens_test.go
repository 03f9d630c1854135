package servicenow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryTokenStoreReadAfterStore(t *testing.T) {
	assert := assert.New(t)

	now := time.Now()
	store := NewMemoryTokenStore()
	store.Now = func() time.Time { return now }

	store.Store("tok123", 1800*time.Second)

	token, ok := store.Read()
	assert.True(ok)
	assert.Equal("tok123", token)
}

func TestMemoryTokenStoreSkewedExpiry(t *testing.T) {
	assert := assert.New(t)

	now := time.Now()
	store := NewMemoryTokenStore()
	store.Now = func() time.Time { return now }

	store.Store("tok123", 60*time.Second)

	// the 30s skew front-loads expiry: dead at 30s, not 60s
	now = now.Add(31 * time.Second)

	token, ok := store.Read()
	assert.False(ok)
	assert.Empty(token)
}

func TestMemoryTokenStoreExpiredTokenAutoClears(t *testing.T) {
	assert := assert.New(t)

	now := time.Now()
	store := NewMemoryTokenStore()
	store.Now = func() time.Time { return now }

	store.Store("tok123", 60*time.Second)
	now = now.Add(61 * time.Second)

	_, ok := store.Read()
	assert.False(ok)

	// the expired token is gone even if the clock rolls back
	now = now.Add(-61 * time.Second)
	_, ok = store.Read()
	assert.False(ok)
}

func TestMemoryTokenStoreClearIsIdempotent(t *testing.T) {
	assert := assert.New(t)

	store := NewMemoryTokenStore()
	store.Store("tok123", 1800*time.Second)

	store.Clear()
	store.Clear()

	_, ok := store.Read()
	assert.False(ok)
}

func TestMemoryStateStoreConsumeIsSingleUse(t *testing.T) {
	assert := assert.New(t)

	store := NewMemoryStateStore()
	store.Save("nonce-1")

	nonce, ok := store.Consume()
	assert.True(ok)
	assert.Equal("nonce-1", nonce)

	_, ok = store.Consume()
	assert.False(ok)
}

func TestMemoryStateStoreConsumeWithoutSave(t *testing.T) {
	assert := assert.New(t)

	store := NewMemoryStateStore()

	_, ok := store.Consume()
	assert.False(ok)
}
