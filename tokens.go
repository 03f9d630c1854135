package servicenow

import (
	"sync"
	"time"
)

// expirySkew is subtracted from the advertised token lifetime so a token
// that is about to lapse is treated as already dead instead of racing the
// authorization server.
const expirySkew = 30 * time.Second

// TokenStore holds the session-scoped bearer token. Read performs lazy
// expiry: an expired token is cleared and reported as absent.
type TokenStore interface {
	Store(token string, expiresIn time.Duration)
	Read() (string, bool)
	Clear()
}

// StateStore holds the single-use OAuth state nonce across the
// authorization redirect. Consume compares-and-deletes: the nonce is gone
// after the first call whether or not it matched.
type StateStore interface {
	Save(nonce string)
	Consume() (string, bool)
}

// MemoryTokenStore is the in-process TokenStore. The zero value is usable.
type MemoryTokenStore struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time

	// Now is the clock used for expiry checks, overridable in tests.
	// Nil means time.Now.
	Now func() time.Time
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *MemoryTokenStore) Store(token string, expiresIn time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
	s.expiresAt = s.now().Add(expiresIn - expirySkew)
}

func (s *MemoryTokenStore) Read() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == "" {
		return "", false
	}

	if !s.now().Before(s.expiresAt) {
		s.token = ""
		s.expiresAt = time.Time{}
		return "", false
	}

	return s.token, true
}

func (s *MemoryTokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	s.expiresAt = time.Time{}
}

// MemoryStateStore is the in-process StateStore. The zero value is usable.
type MemoryStateStore struct {
	mu    sync.Mutex
	nonce string
	set   bool
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{}
}

func (s *MemoryStateStore) Save(nonce string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nonce = nonce
	s.set = true
}

func (s *MemoryStateStore) Consume() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nonce, ok := s.nonce, s.set
	s.nonce = ""
	s.set = false
	return nonce, ok
}
