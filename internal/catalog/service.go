package catalog

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const priceCachePrefix = "price:"

// ServiceConfig tunes lookup behavior.
type ServiceConfig struct {
	// LookupTimeout bounds each individual price lookup.
	LookupTimeout time.Duration
	// CacheTTL bounds how long a fetched price is served from redis.
	CacheTTL time.Duration
	// SearchDebounce is the coalescing window for cache warming.
	SearchDebounce time.Duration
}

func (c *ServiceConfig) withDefaults() {
	if c.LookupTimeout <= 0 {
		c.LookupTimeout = 5 * time.Second
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 10 * time.Minute
	}
	if c.SearchDebounce <= 0 {
		c.SearchDebounce = 500 * time.Millisecond
	}
}

// Service provides product search and concurrent price resolution.
type Service struct {
	repo     Repository
	prices   PriceSource
	cache    *redis.Client
	cfg      ServiceConfig
	logger   *slog.Logger
	group    singleflight.Group
	debounce *Debouncer
}

// NewService constructs a catalog service. cache may be nil; lookups then
// always hit the upstream source.
func NewService(repo Repository, prices PriceSource, cache *redis.Client, cfg ServiceConfig, logger *slog.Logger) *Service {
	cfg.withDefaults()
	return &Service{
		repo:     repo,
		prices:   prices,
		cache:    cache,
		cfg:      cfg,
		logger:   logger,
		debounce: NewDebouncer(cfg.SearchDebounce),
	}
}

// Close stops background scheduling.
func (s *Service) Close() {
	s.debounce.Stop()
}

// Search queries the catalog and schedules a debounced price warm-up for the
// matched codes. callerKey scopes the debounce window: a new search from the
// same caller inside the window supersedes the pending warm-up, mirroring
// keystroke-driven lookups.
func (s *Service) Search(ctx context.Context, callerKey, query string, limit int) ([]Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	products, err := s.repo.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	if len(products) > 0 && callerKey != "" {
		codes := make([]string, len(products))
		for i, p := range products {
			codes[i] = p.Code
		}
		s.debounce.Do("warm:"+callerKey, func() {
			warmCtx, cancel := context.WithTimeout(context.Background(), s.cfg.LookupTimeout*2)
			defer cancel()
			if _, err := s.PriceCandidates(warmCtx, codes); err != nil {
				s.logger.Warn("price warm-up", slog.Any("error", err))
			}
		})
	}
	return products, nil
}

// PriceCandidates resolves prices for the given codes concurrently. Each
// lookup carries its own timeout, and a failed lookup degrades that one
// candidate to unpriced; the batch always completes.
func (s *Service) PriceCandidates(ctx context.Context, codes []string) ([]PriceCandidate, error) {
	candidates := make([]PriceCandidate, len(codes))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, code := range codes {
		i, code := i, code
		g.Go(func() error {
			price, source, err := s.lookup(ctx, code)
			if err != nil {
				s.logger.Warn("price lookup degraded",
					slog.String("code", code), slog.Any("error", err))
				candidates[i] = PriceCandidate{ProductCode: code, Priced: false, Reason: "no price data"}
				return nil
			}
			candidates[i] = PriceCandidate{ProductCode: code, Priced: true, UnitPrice: price, Source: source}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return candidates, nil
}

// lookup serves one price, preferring the cache and coalescing concurrent
// misses for the same code through singleflight.
func (s *Service) lookup(ctx context.Context, code string) (float64, string, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, priceCachePrefix+code).Result()
		if err == nil {
			price, perr := strconv.ParseFloat(raw, 64)
			if perr == nil {
				return price, SourceCache, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("price cache read", slog.String("code", code), slog.Any("error", err))
		}
	}

	v, err, _ := s.group.Do(code, func() (interface{}, error) {
		lookupCtx, cancel := context.WithTimeout(ctx, s.cfg.LookupTimeout)
		defer cancel()

		price, err := s.prices.Lookup(lookupCtx, code)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			raw := strconv.FormatFloat(price, 'f', -1, 64)
			if err := s.cache.Set(ctx, priceCachePrefix+code, raw, s.cfg.CacheTTL).Err(); err != nil {
				s.logger.Warn("price cache write", slog.String("code", code), slog.Any("error", err))
			}
		}
		return price, nil
	})
	if err != nil {
		return 0, "", err
	}
	return v.(float64), SourceLive, nil
}
