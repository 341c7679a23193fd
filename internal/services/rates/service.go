// Package rates serves exchange rates from the local table and keeps
// it fresh in the background. Nothing in the money path ever fetches a
// rate synchronously from the network.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"kobo/internal/models"
	"kobo/internal/repositories"

	"github.com/shopspring/decimal"
)

var (
	ErrRateNotFound = errors.New("exchange rate not found")
	ErrRateStale    = errors.New("exchange rate is stale")
)

const defaultMaxAge = 24 * time.Hour

// Provider fetches a fresh rate from an external source.
type Provider interface {
	FetchRate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// Cache is the rate cache face this service needs.
type Cache interface {
	GetRate(ctx context.Context, from, to string) (*models.ExchangeRate, error)
	CacheRate(ctx context.Context, rate *models.ExchangeRate, ttl time.Duration) error
}

// Service reads rates; the refresher writes them.
type Service interface {
	GetRate(ctx context.Context, from, to string) (*models.ExchangeRate, error)
	ListRates(ctx context.Context) ([]*models.ExchangeRate, error)
	Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error)
}

type service struct {
	repo   repositories.RateRepository
	cache  Cache
	maxAge time.Duration
}

// NewService creates a new rate reader.
func NewService(repo repositories.RateRepository, cache Cache, maxAge time.Duration) Service {
	if repo == nil {
		panic("repo is required")
	}
	if maxAge == 0 {
		maxAge = defaultMaxAge
	}
	return &service{
		repo:   repo,
		cache:  cache,
		maxAge: maxAge,
	}
}

func (s *service) GetRate(ctx context.Context, from, to string) (*models.ExchangeRate, error) {
	if from == to {
		return &models.ExchangeRate{
			FromCurrency: from,
			ToCurrency:   to,
			Rate:         decimal.NewFromInt(1),
			FetchedAt:    time.Now(),
		}, nil
	}

	if s.cache != nil {
		if rate, err := s.cache.GetRate(ctx, from, to); err == nil && rate != nil {
			return rate, nil
		}
	}

	rate, err := s.repo.Get(from, to)
	if err != nil {
		if errors.Is(err, repositories.ErrRateNotFound) {
			return nil, ErrRateNotFound
		}
		return nil, fmt.Errorf("failed to get rate: %w", err)
	}
	if rate.Stale(s.maxAge) {
		return rate, ErrRateStale
	}

	if s.cache != nil {
		s.cache.CacheRate(ctx, rate, s.maxAge)
	}
	return rate, nil
}

func (s *service) ListRates(ctx context.Context) ([]*models.ExchangeRate, error) {
	return s.repo.List()
}

func (s *service) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	rate, err := s.GetRate(ctx, from, to)
	if err != nil && !errors.Is(err, ErrRateStale) {
		return decimal.Zero, err
	}
	return amount.Mul(rate.Rate).Round(2), err
}

// HTTPProvider fetches rates from an exchangerate-style JSON API.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
}

func NewHTTPProvider(baseURL string, timeout time.Duration) *HTTPProvider {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &HTTPProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *HTTPProvider) FetchRate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	endpoint := fmt.Sprintf("%s/latest?base=%s&symbols=%s",
		p.baseURL, url.QueryEscape(from), url.QueryEscape(to))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to fetch rate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("rate source returned status %d", resp.StatusCode)
	}

	var body struct {
		Rates map[string]json.Number `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode rate response: %w", err)
	}

	raw, ok := body.Rates[to]
	if !ok {
		return decimal.Zero, ErrRateNotFound
	}
	rate, err := decimal.NewFromString(raw.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid rate value %q: %w", raw, err)
	}
	return rate, nil
}

// Refresher periodically pulls rates for the configured pairs and
// upserts them.
type Refresher struct {
	repo     repositories.RateRepository
	provider Provider
	pairs    [][2]string
	interval time.Duration
}

func NewRefresher(repo repositories.RateRepository, provider Provider, pairs [][2]string, interval time.Duration) *Refresher {
	if interval == 0 {
		interval = time.Hour
	}
	return &Refresher{
		repo:     repo,
		provider: provider,
		pairs:    pairs,
		interval: interval,
	}
}

// DefaultPairs quotes every supported currency against the default one.
func DefaultPairs() [][2]string {
	var pairs [][2]string
	for _, cur := range models.SupportedCurrencies {
		if cur == models.DefaultCurrency {
			continue
		}
		pairs = append(pairs, [2]string{cur, models.DefaultCurrency})
	}
	return pairs
}

// Run refreshes once immediately, then on every tick until the context
// is canceled. Call in a goroutine.
func (r *Refresher) Run(ctx context.Context) {
	r.RefreshAll(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RefreshAll(ctx)
		}
	}
}

// RefreshAll updates every configured pair, logging failures and
// moving on.
func (r *Refresher) RefreshAll(ctx context.Context) {
	for _, pair := range r.pairs {
		from, to := pair[0], pair[1]
		rate, err := r.provider.FetchRate(ctx, from, to)
		if err != nil {
			log.Printf("rates: refresh %s/%s failed: %v", from, to, err)
			continue
		}

		err = r.repo.Upsert(&models.ExchangeRate{
			FromCurrency: from,
			ToCurrency:   to,
			Rate:         rate,
			FetchedAt:    time.Now(),
		})
		if err != nil {
			log.Printf("rates: store %s/%s failed: %v", from, to, err)
		}
	}
}
