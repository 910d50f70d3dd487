package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/pmore/portfolio/internal/contact"
	"github.com/pmore/portfolio/internal/nav"
)

const sessionCookie = "portfolio_session"

// session is the server-side state of one browser tab group.
type session struct {
	id      string
	contact *contact.Controller
	nav     *nav.Tracker
}

type sessionStore struct {
	cache *expirable.LRU[string, *session]
	ttl   time.Duration
	opts  func() []contact.Option
	log   zerolog.Logger
}

// newSessionStore keeps at most size sessions, each for ttl after its last
// use. Evicted sessions are closed so their gate timers stop.
func newSessionStore(size int, ttl time.Duration, opts func() []contact.Option, log zerolog.Logger) *sessionStore {
	s := &sessionStore{ttl: ttl, opts: opts, log: log}
	s.cache = expirable.NewLRU[string, *session](size, func(id string, sess *session) {
		sess.contact.Close()
		s.log.Debug().Str("session", id).Msg("session evicted")
	}, ttl)
	return s
}

// get returns the caller's session, creating one (and its cookie) if the
// cookie is missing or the session expired.
func (s *sessionStore) get(c *gin.Context) *session {
	if id, err := c.Cookie(sessionCookie); err == nil {
		if sess, ok := s.cache.Get(id); ok {
			// Re-adding refreshes the expiry.
			s.cache.Add(id, sess)
			return sess
		}
	}

	sess := &session{
		id:      uuid.NewString(),
		contact: contact.NewController(s.opts()...),
		nav:     nav.NewTracker(nil),
	}
	s.cache.Add(sess.id, sess)
	c.SetCookie(sessionCookie, sess.id, int(s.ttl.Seconds()), "/", "", false, true)
	return sess
}

func (s *sessionStore) purge() {
	s.cache.Purge()
}

// rateLimiters hands out one token bucket per hashed visitor IP.
type rateLimiters struct {
	cache *expirable.LRU[string, *rate.Limiter]
	limit rate.Limit
	burst int
}

func newRateLimiters(perMinute, burst int) *rateLimiters {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	return &rateLimiters{
		cache: expirable.NewLRU[string, *rate.Limiter](8192, nil, 10*time.Minute),
		limit: limit,
		burst: burst,
	}
}

func (r *rateLimiters) allow(key string) bool {
	l, ok := r.cache.Get(key)
	if !ok {
		l = rate.NewLimiter(r.limit, r.burst)
		r.cache.Add(key, l)
	}
	return l.Allow()
}
