package services

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/validation"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, storeErr("list users", err)
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrUserNotFound
	}

	var user models.User
	err = s.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, storeErr("find user", err)
	}
	return &user, nil
}

// Register validates and stores a new user. The returned raw token is the
// user's only credential and is not recoverable later.
func (s *UserService) Register(ctx context.Context, req *validation.UserCandidate) (*models.User, string, error) {
	if err := validation.ValidateUser(req); err != nil {
		return nil, "", err
	}

	token := uuid.NewString()
	user := models.User{
		Name:      req.Name,
		TokenHash: hashToken(token),
		Age:       req.Age,
		Gender:    req.Gender,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, "", storeErr("create user", err)
	}
	metrics.UsersRegistered.Inc()

	return &user, token, nil
}

// Authenticate resolves the user holding the given bearer token.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrMissingUserToken
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("token_hash = ?", hashToken(token)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidUserToken
	}
	if err != nil {
		return nil, storeErr("find user by token", err)
	}
	return &user, nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
