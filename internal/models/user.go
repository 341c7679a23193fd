package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Email        string   `gorm:"uniqueIndex;not null"`
	Password     string   `gorm:"not null"`
	Name         string   `gorm:"not null"`
	Tag          string   `gorm:"uniqueIndex;not null"` // Public handle used to address transfers
	Phone        string   `gorm:"uniqueIndex;not null"`
	Role         string   `gorm:"default:'user'"`
	Status       string   `gorm:"default:'active'"`
	Activated    bool     `gorm:"default:false"`
	LastLoginAt  time.Time
	LastLoginIP  string
	TokenVersion int      `gorm:"default:1"`
	Wallets      []Wallet `gorm:"constraint:OnDelete:CASCADE"`
}
