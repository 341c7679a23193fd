// Package auth covers registration, account activation and login.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"kobo/internal/models"
	"kobo/internal/services/ratelimit"
	"kobo/internal/utils"
	"kobo/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotActivated       = errors.New("account not activated")
	ErrAlreadyActivated   = errors.New("account already activated")
	ErrCodeInvalid        = errors.New("invalid activation code")
	ErrLockedOut          = ratelimit.ErrLocked
	ErrWeakPassword       = errors.New("password must be at least 8 characters and contain special characters")
)

const activationTTL = 15 * time.Minute

// UserStore is the persistence face this service needs.
type UserStore interface {
	GetByEmail(email string) (*models.User, error)
	GetByID(id uint) (*models.User, error)
	Create(user *models.User) error
	Update(user *models.User) error
	IncrementTokenVersion(userID uint) error
}

// CodeStore holds activation codes with expiry. Satisfied by
// cache.CacheService.
type CodeStore interface {
	SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Delete(ctx context.Context, keys ...string) error
}

// Notifier delivers activation codes out-of-band.
type Notifier interface {
	SendActivationCode(ctx context.Context, user *models.User, code string) error
}

// LogNotifier writes codes to the application log. Development only.
type LogNotifier struct{}

func (LogNotifier) SendActivationCode(ctx context.Context, user *models.User, code string) error {
	log.Printf("activation code for %s: %s", user.Email, code)
	return nil
}

// RegisterInput is the sign-up payload.
type RegisterInput struct {
	Email    string
	Phone    string
	Tag      string
	Name     string
	Password string
}

type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	RequestActivation(ctx context.Context, email string) error
	Activate(ctx context.Context, email, code string) error
	Login(ctx context.Context, email, password, ip string) (*models.User, string, string, error)
	RefreshTokens(refreshToken string) (string, string, error)
	Logout(userID uint) error
	ChangePassword(userID uint, oldPassword, newPassword string) error
}

type service struct {
	users        UserStore
	codes        CodeStore
	notifier     Notifier
	loginLimiter *ratelimit.Limiter
	otpLimiter   *ratelimit.Limiter
}

// NewService creates a new auth service. The login limiter is keyed by
// client IP, the otp limiter by user ID.
func NewService(users UserStore, codes CodeStore, notifier Notifier, loginLimiter, otpLimiter *ratelimit.Limiter) Service {
	if users == nil {
		panic("user store is required")
	}
	if codes == nil {
		panic("code store is required")
	}
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &service{
		users:        users,
		codes:        codes,
		notifier:     notifier,
		loginLimiter: loginLimiter,
		otpLimiter:   otpLimiter,
	}
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	v := validation.New()
	v.Check(validation.IsEmail(input.Email), "email", "invalid email address")
	v.Check(validation.IsPhone(input.Phone), "phone", "invalid phone number")
	v.Check(validation.IsTag(input.Tag), "tag", "tags are 3-30 lowercase letters, digits or underscores")
	v.Check(input.Name != "", "name", "name is required")
	if !v.Valid() {
		return nil, v.Errors[0]
	}
	if len(input.Password) < 8 || !hasSpecialChar(input.Password) {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:    input.Email,
		Phone:    input.Phone,
		Tag:      input.Tag,
		Name:     input.Name,
		Password: string(hash),
		Role:     models.RoleUser,
		Status:   "active",
	}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}

	if err := s.issueActivationCode(ctx, user); err != nil {
		log.Printf("failed to issue activation code for %s: %v", user.Email, err)
	}
	return user, nil
}

func (s *service) RequestActivation(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(email)
	if err != nil {
		return ErrInvalidCredentials
	}
	if user.Activated {
		return ErrAlreadyActivated
	}
	return s.issueActivationCode(ctx, user)
}

func (s *service) Activate(ctx context.Context, email, code string) error {
	user, err := s.users.GetByEmail(email)
	if err != nil {
		return ErrCodeInvalid
	}
	if user.Activated {
		return ErrAlreadyActivated
	}

	subject := fmt.Sprint(user.ID)
	if s.otpLimiter != nil {
		if err := s.otpLimiter.Allow(ctx, subject); err != nil {
			return err
		}
	}

	var stored string
	found, err := s.codes.Get(ctx, activationKey(user.ID), &stored)
	if err != nil {
		return fmt.Errorf("failed to load activation code: %w", err)
	}
	if !found || stored != code {
		if s.otpLimiter != nil {
			if lockErr := s.otpLimiter.Hit(ctx, subject); lockErr != nil {
				return lockErr
			}
		}
		return ErrCodeInvalid
	}

	user.Activated = true
	if err := s.users.Update(user); err != nil {
		return fmt.Errorf("failed to activate user: %w", err)
	}

	s.codes.Delete(ctx, activationKey(user.ID))
	if s.otpLimiter != nil {
		s.otpLimiter.Reset(ctx, subject)
	}
	return nil
}

func (s *service) Login(ctx context.Context, email, password, ip string) (*models.User, string, string, error) {
	if s.loginLimiter != nil {
		if err := s.loginLimiter.Allow(ctx, ip); err != nil {
			return nil, "", "", err
		}
	}

	user, err := s.users.GetByEmail(email)
	if err != nil {
		s.recordLoginFailure(ctx, ip)
		return nil, "", "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		s.recordLoginFailure(ctx, ip)
		return nil, "", "", ErrInvalidCredentials
	}

	if !user.Activated {
		return nil, "", "", ErrNotActivated
	}

	if s.loginLimiter != nil {
		s.loginLimiter.Reset(ctx, ip)
	}

	user.LastLoginAt = time.Now()
	user.LastLoginIP = ip
	if err := s.users.Update(user); err != nil {
		log.Printf("failed to record login for user %d: %v", user.ID, err)
	}

	accessToken, refreshToken, err := utils.GenerateTokens(&models.UserClaims{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
		Permissions:  models.DefaultPermissions(user.Role),
	})
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to generate tokens: %w", err)
	}

	return user, accessToken, refreshToken, nil
}

func (s *service) RefreshTokens(refreshToken string) (string, string, error) {
	_, claims, err := utils.ParseToken(refreshToken)
	if err != nil {
		return "", "", ErrInvalidCredentials
	}

	user, err := s.users.GetByID(claims.UserID)
	if err != nil {
		return "", "", ErrInvalidCredentials
	}

	if user.TokenVersion != claims.TokenVersion {
		return "", "", ErrInvalidCredentials
	}

	return utils.GenerateTokens(&models.UserClaims{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
		Permissions:  models.DefaultPermissions(user.Role),
	})
}

func (s *service) Logout(userID uint) error {
	return s.users.IncrementTokenVersion(userID)
}

func (s *service) ChangePassword(userID uint, oldPassword, newPassword string) error {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		return ErrInvalidCredentials
	}

	if len(newPassword) < 8 || !hasSpecialChar(newPassword) {
		return ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.Password = string(hash)
	user.TokenVersion++

	if err := s.users.Update(user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

func (s *service) issueActivationCode(ctx context.Context, user *models.User) error {
	code, err := utils.GenerateOTP(6)
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}
	if err := s.codes.SetWithTTL(ctx, activationKey(user.ID), code, activationTTL); err != nil {
		return fmt.Errorf("failed to store code: %w", err)
	}
	return s.notifier.SendActivationCode(ctx, user, code)
}

func (s *service) recordLoginFailure(ctx context.Context, ip string) {
	if s.loginLimiter == nil {
		return
	}
	if err := s.loginLimiter.Hit(ctx, ip); err != nil && !errors.Is(err, ratelimit.ErrLocked) {
		log.Printf("failed to record login attempt from %s: %v", ip, err)
	}
}

func activationKey(userID uint) string {
	return fmt.Sprintf("activation:%d", userID)
}

func hasSpecialChar(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		default:
			return true
		}
	}
	return false
}
