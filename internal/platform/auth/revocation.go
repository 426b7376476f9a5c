package auth

import (
	"sort"
	"sync"
	"time"
)

// TokenRevocationStore tracks bearer tokens that must stop working before
// they expire: single tokens by JTI, and every token a user was issued up to a
// cutoff (used when a staff account is disabled or a device is lost). Entries
// are dropped once the tokens they cover would have expired anyway.
type TokenRevocationStore struct {
	mu       sync.RWMutex
	tokens   map[string]RevocationInfo // jti -> entry
	users    map[string]time.Time      // user id -> issued-at cutoff
	tokenTTL time.Duration
	done     chan struct{}
}

type RevocationInfo struct {
	JTI       string    `json:"jti,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewTokenRevocationStore starts a store whose user cutoffs live for tokenTTL,
// the longest lifetime the login service issues. A background sweep removes
// stale entries every five minutes until Close.
func NewTokenRevocationStore(tokenTTL time.Duration) *TokenRevocationStore {
	s := &TokenRevocationStore{
		tokens:   make(map[string]RevocationInfo),
		users:    make(map[string]time.Time),
		tokenTTL: tokenTTL,
		done:     make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

// Revoke blocks one token until expiresAt.
func (s *TokenRevocationStore) Revoke(jti, userID string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[jti] = RevocationInfo{JTI: jti, UserID: userID, ExpiresAt: expiresAt}
}

// RevokeUser blocks every token issued to userID at or before cutoff. JWT iat
// has one-second precision, so the cutoff is truncated to the second and the
// whole second it falls in is revoked.
func (s *TokenRevocationStore) RevokeUser(userID string, cutoff time.Time) {
	cutoff = cutoff.Truncate(time.Second)
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.users[userID]; !ok || cutoff.After(prev) {
		s.users[userID] = cutoff
	}
}

// IsRevoked reports whether a token with the given claims has been revoked.
// A zero issuedAt is treated as issued before any user cutoff.
func (s *TokenRevocationStore) IsRevoked(jti, userID string, issuedAt time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if jti != "" {
		if _, ok := s.tokens[jti]; ok {
			return true
		}
	}
	if cutoff, ok := s.users[userID]; ok && userID != "" {
		return !issuedAt.After(cutoff)
	}
	return false
}

func (s *TokenRevocationStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens) + len(s.users)
}

// Entries returns a snapshot ordered by expiry. User cutoffs carry no JTI.
func (s *TokenRevocationStore) Entries() []RevocationInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]RevocationInfo, 0, len(s.tokens)+len(s.users))
	for _, info := range s.tokens {
		out = append(out, info)
	}
	for userID, cutoff := range s.users {
		out = append(out, RevocationInfo{UserID: userID, ExpiresAt: cutoff.Add(s.tokenTTL)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	return out
}

// Close stops the sweep. Safe to call more than once.
func (s *TokenRevocationStore) Close() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

func (s *TokenRevocationStore) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.cleanup(now)
		}
	}
}

func (s *TokenRevocationStore) cleanup(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for jti, info := range s.tokens {
		if now.After(info.ExpiresAt) {
			delete(s.tokens, jti)
		}
	}
	for userID, cutoff := range s.users {
		if now.After(cutoff.Add(s.tokenTTL)) {
			delete(s.users, userID)
		}
	}
}
