package repositories

import (
	"errors"
	"fmt"

	"kobo/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrIntentNotFound = errors.New("pending intent not found")
	ErrIntentConsumed = errors.New("pending intent already consumed")
)

// IntentRepository defines the interface for OTP intent persistence.
// A wallet holds at most one intent per operation; starting a new one
// replaces the previous row.
type IntentRepository interface {
	Replace(intent *models.PendingIntent) error
	Get(walletID uint, operation string) (*models.PendingIntent, error)
	Update(intent *models.PendingIntent) error
	// Consume flips an otp_sent intent to confirmed. Exactly one caller
	// wins; everyone else gets ErrIntentConsumed.
	Consume(intentID uint) error
	// Reopen puts a confirmed intent back to otp_sent so the same code
	// can be retried after a transient downstream failure.
	Reopen(intentID uint) error
	Delete(walletID uint, operation string) error
}

type intentRepository struct {
	db *gorm.DB
}

func NewIntentRepository(db *gorm.DB) IntentRepository {
	return &intentRepository{db: db}
}

func (r *intentRepository) Replace(intent *models.PendingIntent) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "wallet_id"}, {Name: "operation"}},
		UpdateAll: true,
	}).Create(intent).Error
	if err != nil {
		return fmt.Errorf("failed to save pending intent: %w", err)
	}
	return nil
}

func (r *intentRepository) Get(walletID uint, operation string) (*models.PendingIntent, error) {
	var intent models.PendingIntent
	err := r.db.Where("wallet_id = ? AND operation = ?", walletID, operation).First(&intent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIntentNotFound
		}
		return nil, fmt.Errorf("failed to get pending intent: %w", err)
	}
	return &intent, nil
}

func (r *intentRepository) Update(intent *models.PendingIntent) error {
	if err := r.db.Save(intent).Error; err != nil {
		return fmt.Errorf("failed to update pending intent: %w", err)
	}
	return nil
}

func (r *intentRepository) Consume(intentID uint) error {
	result := r.db.Model(&models.PendingIntent{}).
		Where("id = ? AND status = ?", intentID, models.IntentStatusOTPSent).
		Update("status", models.IntentStatusConfirmed)
	if result.Error != nil {
		return fmt.Errorf("failed to consume pending intent: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrIntentConsumed
	}
	return nil
}

func (r *intentRepository) Reopen(intentID uint) error {
	result := r.db.Model(&models.PendingIntent{}).
		Where("id = ? AND status = ?", intentID, models.IntentStatusConfirmed).
		Update("status", models.IntentStatusOTPSent)
	if result.Error != nil {
		return fmt.Errorf("failed to reopen pending intent: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrIntentNotFound
	}
	return nil
}

func (r *intentRepository) Delete(walletID uint, operation string) error {
	result := r.db.Where("wallet_id = ? AND operation = ?", walletID, operation).Delete(&models.PendingIntent{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete pending intent: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrIntentNotFound
	}
	return nil
}
