package storage

import (
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/rs/zerolog/log"

	"github.com/charleshuang3/errgate/internal/models"
)

const (
	sessionCacheTTL   = 5 * time.Minute
	maxCachedSessions = 10000
)

// SessionCache keeps hot sessions in memory so the identity lookup on every
// proxied request does not hit the database. Entries expire after a short TTL
// so revocations converge.
type SessionCache struct {
	cache *ristretto.Cache[string, *models.Session]
}

func NewSessionCache() *SessionCache {
	c, err := ristretto.NewCache(&ristretto.Config[string, *models.Session]{
		NumCounters: maxCachedSessions,
		MaxCost:     maxCachedSessions,
		BufferItems: 64,
	})

	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create session cache")
	}

	return &SessionCache{
		cache: c,
	}
}

func (s *SessionCache) Get(token string) (*models.Session, bool) {
	return s.cache.Get(token)
}

func (s *SessionCache) Set(token string, value *models.Session) {
	s.cache.SetWithTTL(token, value, 1, sessionCacheTTL)
	s.cache.Wait()
}

func (s *SessionCache) Delete(token string) {
	s.cache.Del(token)
	s.cache.Wait()
}
