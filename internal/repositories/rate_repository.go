package repositories

import (
	"errors"
	"fmt"

	"kobo/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrRateNotFound = errors.New("exchange rate not found")

// RateRepository persists refreshed exchange rates.
type RateRepository interface {
	Upsert(rate *models.ExchangeRate) error
	Get(from, to string) (*models.ExchangeRate, error)
	List() ([]*models.ExchangeRate, error)
}

type rateRepository struct {
	db *gorm.DB
}

func NewRateRepository(db *gorm.DB) RateRepository {
	return &rateRepository{db: db}
}

func (r *rateRepository) Upsert(rate *models.ExchangeRate) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "from_currency"}, {Name: "to_currency"}},
		DoUpdates: clause.AssignmentColumns([]string{"rate", "fetched_at", "updated_at"}),
	}).Create(rate).Error
	if err != nil {
		return fmt.Errorf("failed to upsert exchange rate: %w", err)
	}
	return nil
}

func (r *rateRepository) Get(from, to string) (*models.ExchangeRate, error) {
	var rate models.ExchangeRate
	err := r.db.Where("from_currency = ? AND to_currency = ?", from, to).First(&rate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRateNotFound
		}
		return nil, fmt.Errorf("failed to get exchange rate: %w", err)
	}
	return &rate, nil
}

func (r *rateRepository) List() ([]*models.ExchangeRate, error) {
	var rates []*models.ExchangeRate
	if err := r.db.Order("from_currency, to_currency").Find(&rates).Error; err != nil {
		return nil, fmt.Errorf("failed to list exchange rates: %w", err)
	}
	return rates, nil
}
