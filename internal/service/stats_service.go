package service

import (
	"errors"
	"log/slog"
	"time"

	"github.com/yourorg/rentalhub/internal/domain"
	"github.com/yourorg/rentalhub/pkg/cache"
)

const countsCacheKey = "counts:public"

// StatsService serves the public counts endpoint, memoised through the
// in-memory TTL cache so the unauthenticated route cannot hammer the store.
type StatsService struct {
	statsRepo domain.StatsRepository
	cache     *cache.Cache
	ttl       time.Duration
	logger    *slog.Logger
}

// NewStatsService creates a new stats service
func NewStatsService(statsRepo domain.StatsRepository, c *cache.Cache, ttl time.Duration, logger *slog.Logger) *StatsService {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 15 * time.Second
	}

	return &StatsService{
		statsRepo: statsRepo,
		cache:     c,
		ttl:       ttl,
		logger:    logger,
	}
}

// Counts returns the aggregate snapshot, from cache when fresh
func (s *StatsService) Counts() (*domain.Counts, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(countsCacheKey); ok {
			if counts, ok := v.(*domain.Counts); ok {
				return counts, nil
			}
		}
	}

	counts, err := s.statsRepo.Counts()
	if err != nil {
		s.logger.Error("failed to fetch counts", slog.String("error", err.Error()))
		return nil, errors.New("failed to fetch stats")
	}

	if s.cache != nil {
		s.cache.Set(countsCacheKey, counts, s.ttl)
	}
	return counts, nil
}

// Refresh recomputes the counts and replaces the cached snapshot. Called by
// the background stats worker.
func (s *StatsService) Refresh() (*domain.Counts, error) {
	counts, err := s.statsRepo.Counts()
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(countsCacheKey, counts, s.ttl)
	}
	return counts, nil
}
