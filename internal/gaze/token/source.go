package token

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"cog_mailing_sync/platform/logger"
)

// Loginer obtains a fresh bearer token.
type Loginer interface {
	Login(ctx context.Context) (string, error)
}

// LoginFunc adapts a function to Loginer.
type LoginFunc func(ctx context.Context) (string, error)

func (f LoginFunc) Login(ctx context.Context) (string, error) { return f(ctx) }

// Source hands out a cached token and logs in again when it is missing or
// invalidated. Concurrent callers share a single login.
type Source struct {
	store Store
	login Loginer
	ttl   time.Duration
	log   *logger.Logger
	group singleflight.Group
}

// NewSource creates a token source.
func NewSource(store Store, login Loginer, ttl time.Duration, log *logger.Logger) *Source {
	return &Source{store: store, login: login, ttl: ttl, log: log}
}

// Token returns a bearer token.
func (s *Source) Token(ctx context.Context) (string, error) {
	tok, ok, err := s.store.Get(ctx)
	if err != nil {
		s.log.Warn("gaze token store read failed", "error", err)
	}
	if ok {
		return tok, nil
	}

	v, err, _ := s.group.Do(cacheKey, func() (any, error) {
		tok, err := s.login.Login(ctx)
		if err != nil {
			return "", err
		}
		if err := s.store.Set(ctx, tok, s.ttl); err != nil {
			s.log.Warn("gaze token store write failed", "error", err)
		}
		s.log.Info("gaze token refreshed", "ttl", s.ttl.String())
		return tok, nil
	})
	if err != nil {
		return "", fmt.Errorf("gaze login: %w", err)
	}
	return v.(string), nil
}

// Invalidate drops the cached token so the next Token call logs in again.
func (s *Source) Invalidate(ctx context.Context) {
	if err := s.store.Delete(ctx); err != nil {
		s.log.Warn("gaze token invalidate failed", "error", err)
	}
}
