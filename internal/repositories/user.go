package repositories

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"kobo/internal/models"

	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("user not found")

func GetUserByEmail(email string) (*models.User, error) {
	ctx := context.Background()
	if CacheService != nil {
		if user, err := CacheService.GetUser(ctx, CacheService.GenerateKey("user", "email", email)); err == nil {
			return user, nil
		}
	}

	var user models.User
	err := DB.Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if CacheService != nil {
		go func() {
			if err := CacheService.CacheUser(context.Background(), &user); err != nil {
				log.Printf("Failed to cache user by email: %v", err)
			}
		}()
	}

	return &user, nil
}

func GetUserByID(userID uint) (*models.User, error) {
	ctx := context.Background()
	if CacheService != nil {
		if user, err := CacheService.GetUser(ctx, CacheService.GenerateKey("user", "id", userID)); err == nil {
			return user, nil
		}
	}

	var user models.User
	err := DB.First(&user, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if CacheService != nil {
		go func() {
			if err := CacheService.CacheUser(context.Background(), &user); err != nil {
				log.Printf("Failed to cache user by ID: %v", err)
			}
		}()
	}

	return &user, nil
}

func GetUserByTag(tag string) (*models.User, error) {
	var user models.User
	err := DB.Where("tag = ?", tag).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func CreateUser(user *models.User) error {
	if DB == nil {
		return fmt.Errorf("database connection is nil")
	}

	result := DB.Create(user)
	if result.Error != nil {
		if strings.Contains(result.Error.Error(), "uni_users_email") ||
			strings.Contains(result.Error.Error(), "duplicate key value") {
			return fmt.Errorf("user with email %s already exists", user.Email)
		}
		log.Printf("Error creating user: %T", result.Error)
		return fmt.Errorf("failed to create user")
	}

	return nil
}

func UpdateUser(user *models.User) error {
	if err := DB.Save(user).Error; err != nil {
		return err
	}
	InvalidateUserCache(user.ID)
	return nil
}

func InvalidateUserCache(userID uint) {
	if CacheService == nil {
		return
	}
	if err := CacheService.InvalidateUser(context.Background(), userID); err != nil {
		log.Printf("Failed to invalidate user cache: %v", err)
	}
}

func IncrementUserTokenVersion(userID uint) error {
	var user models.User
	if err := DB.First(&user, userID).Error; err != nil {
		return err
	}

	InvalidateUserCache(userID)

	user.TokenVersion++
	return DB.Save(&user).Error
}
