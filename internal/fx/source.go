package fx

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

var ErrRateUnavailable = errors.New("exchange rate unavailable")

// Quote is a KRW per USD rate. Stale is set when the last refresh failed and an older value was served.
type Quote struct {
	Rate      float64
	FetchedAt time.Time
	Stale     bool
}

type Provider interface {
	USDKRW(ctx context.Context) (float64, error)
}

// Source caches a provider's rate, refreshing at most once per minRefresh and
// serving the last good value when a refresh fails.
type Source struct {
	provider   Provider
	minRefresh time.Duration
	log        *zap.Logger
	now        func() time.Time

	mu          sync.Mutex
	last        Quote
	lastAttempt time.Time
}

func NewSource(provider Provider, minRefresh time.Duration, log *zap.Logger) *Source {
	if log == nil {
		log = zap.NewNop()
	}
	return &Source{provider: provider, minRefresh: minRefresh, log: log, now: time.Now}
}

func (s *Source) Rate(ctx context.Context) (Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if s.last.Rate > 0 && now.Sub(s.lastAttempt) < s.minRefresh {
		return s.last, nil
	}
	s.lastAttempt = now
	rate, err := s.provider.USDKRW(ctx)
	if err == nil && rate <= 0 {
		err = fmt.Errorf("non-positive rate %v", rate)
	}
	if err != nil {
		if s.last.Rate > 0 {
			s.last.Stale = true
			s.log.Warn("fx refresh failed, serving cached rate",
				zap.Float64("rate", s.last.Rate),
				zap.Time("fetched_at", s.last.FetchedAt),
				zap.Error(err),
			)
			return s.last, nil
		}
		return Quote{}, fmt.Errorf("%w: %v", ErrRateUnavailable, err)
	}
	s.last = Quote{Rate: rate, FetchedAt: now}
	return s.last, nil
}

// Static always returns a fixed rate.
type Static float64

func (s Static) USDKRW(context.Context) (float64, error) {
	if s <= 0 {
		return 0, ErrRateUnavailable
	}
	return float64(s), nil
}
