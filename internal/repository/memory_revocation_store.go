package repository

import (
	"context"
	"sync"
	"time"
)

// MemoryRevocationStore はプロセス内メモリに失効トークンを保持する。
// REDIS_URL未設定時と単一インスタンス構成で使う。再起動で内容は消える。
type MemoryRevocationStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemoryRevocationStore はMemoryRevocationStoreを生成する。
func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Revoke はjtiをuntilまで失効扱いにする。
func (s *MemoryRevocationStore) Revoke(_ context.Context, jti string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.purgeLocked(now)
	if !until.After(now) {
		return nil
	}
	s.entries[jti] = until
	return nil
}

// IsRevoked はjtiが失効済みかを返す。
func (s *MemoryRevocationStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	until, ok := s.entries[jti]
	if !ok {
		return false, nil
	}
	if !until.After(s.now()) {
		delete(s.entries, jti)
		return false, nil
	}
	return true, nil
}

// Len は保持しているエントリ数を返す。
func (s *MemoryRevocationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Purge は期限切れのエントリを削除し、削除件数を返す。
func (s *MemoryRevocationStore) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.purgeLocked(s.now())
}

// purgeLocked は期限切れのエントリを削除する。muを保持して呼ぶこと。
func (s *MemoryRevocationStore) purgeLocked(now time.Time) int {
	removed := 0
	for jti, until := range s.entries {
		if !until.After(now) {
			delete(s.entries, jti)
			removed++
		}
	}
	return removed
}

var _ RevocationStore = (*MemoryRevocationStore)(nil)
