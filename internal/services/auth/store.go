package auth

import (
	"kobo/internal/models"
	"kobo/internal/repositories"
)

// DBUserStore adapts the repositories package to the UserStore interface.
type DBUserStore struct{}

func (DBUserStore) GetByEmail(email string) (*models.User, error) {
	return repositories.GetUserByEmail(email)
}

func (DBUserStore) GetByID(id uint) (*models.User, error) {
	return repositories.GetUserByID(id)
}

func (DBUserStore) Create(user *models.User) error {
	return repositories.CreateUser(user)
}

func (DBUserStore) Update(user *models.User) error {
	return repositories.UpdateUser(user)
}

func (DBUserStore) IncrementTokenVersion(userID uint) error {
	return repositories.IncrementUserTokenVersion(userID)
}
