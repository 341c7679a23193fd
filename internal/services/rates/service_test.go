package rates

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kobo/internal/models"
	"kobo/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRateRepo struct {
	rates map[string]*models.ExchangeRate
}

func newFakeRateRepo() *fakeRateRepo {
	return &fakeRateRepo{rates: make(map[string]*models.ExchangeRate)}
}

func (f *fakeRateRepo) Upsert(rate *models.ExchangeRate) error {
	cp := *rate
	f.rates[rate.FromCurrency+":"+rate.ToCurrency] = &cp
	return nil
}

func (f *fakeRateRepo) Get(from, to string) (*models.ExchangeRate, error) {
	rate, ok := f.rates[from+":"+to]
	if !ok {
		return nil, repositories.ErrRateNotFound
	}
	cp := *rate
	return &cp, nil
}

func (f *fakeRateRepo) List() ([]*models.ExchangeRate, error) {
	var out []*models.ExchangeRate
	for _, r := range f.rates {
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func TestGetRate(t *testing.T) {
	ctx := context.Background()

	t.Run("identity pair", func(t *testing.T) {
		svc := NewService(newFakeRateRepo(), nil, 0)

		rate, err := svc.GetRate(ctx, "NGN", "NGN")
		require.NoError(t, err)
		assert.True(t, rate.Rate.Equal(decimal.NewFromInt(1)))
	})

	t.Run("fresh rate from the table", func(t *testing.T) {
		repo := newFakeRateRepo()
		repo.Upsert(&models.ExchangeRate{
			FromCurrency: "USD", ToCurrency: "NGN",
			Rate:      decimal.RequireFromString("1500.25"),
			FetchedAt: time.Now(),
		})
		svc := NewService(repo, nil, 0)

		rate, err := svc.GetRate(ctx, "USD", "NGN")
		require.NoError(t, err)
		assert.True(t, rate.Rate.Equal(decimal.RequireFromString("1500.25")))
	})

	t.Run("stale rate is flagged but returned", func(t *testing.T) {
		repo := newFakeRateRepo()
		repo.Upsert(&models.ExchangeRate{
			FromCurrency: "USD", ToCurrency: "NGN",
			Rate:      decimal.RequireFromString("1500.25"),
			FetchedAt: time.Now().Add(-48 * time.Hour),
		})
		svc := NewService(repo, nil, 24*time.Hour)

		rate, err := svc.GetRate(ctx, "USD", "NGN")
		assert.ErrorIs(t, err, ErrRateStale)
		require.NotNil(t, rate)
	})

	t.Run("missing pair", func(t *testing.T) {
		svc := NewService(newFakeRateRepo(), nil, 0)

		_, err := svc.GetRate(ctx, "USD", "GBP")
		assert.ErrorIs(t, err, ErrRateNotFound)
	})
}

func TestConvert(t *testing.T) {
	repo := newFakeRateRepo()
	repo.Upsert(&models.ExchangeRate{
		FromCurrency: "USD", ToCurrency: "NGN",
		Rate:      decimal.RequireFromString("1500.00"),
		FetchedAt: time.Now(),
	})
	svc := NewService(repo, nil, 0)

	got, err := svc.Convert(context.Background(), decimal.RequireFromString("2.50"), "USD", "NGN")
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("3750.00")), "got %s", got)
}

func TestHTTPProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest", r.URL.Path)
		assert.Equal(t, "USD", r.URL.Query().Get("base"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"rates": map[string]interface{}{"NGN": 1499.5},
		})
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, 0)
	rate, err := p.FetchRate(context.Background(), "USD", "NGN")
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.RequireFromString("1499.5")), "got %s", rate)
}

func TestRefresher(t *testing.T) {
	repo := newFakeRateRepo()

	calls := 0
	provider := providerFunc(func(ctx context.Context, from, to string) (decimal.Decimal, error) {
		calls++
		return decimal.RequireFromString("100.00"), nil
	})

	r := NewRefresher(repo, provider, [][2]string{{"USD", "NGN"}, {"EUR", "NGN"}}, time.Hour)
	r.RefreshAll(context.Background())

	assert.Equal(t, 2, calls)
	rate, err := repo.Get("USD", "NGN")
	require.NoError(t, err)
	assert.False(t, rate.Stale(time.Minute))
}

type providerFunc func(ctx context.Context, from, to string) (decimal.Decimal, error)

func (f providerFunc) FetchRate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	return f(ctx, from, to)
}
