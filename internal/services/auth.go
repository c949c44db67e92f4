package services

import (
	"errors"
	"strings"

	"github.com/shopfloor/board/backend/internal/models"
	"github.com/shopfloor/board/backend/pkg/response"
	"gorm.io/gorm"
)

// AuthService keeps the local user projection in step with the identity provider.
type AuthService struct {
	db *gorm.DB
}

func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{db: db}
}

// SyncUserRequest carries the profile the frontend received from the identity provider.
type SyncUserRequest struct {
	Email     string  `json:"email" binding:"required,email"`
	Name      *string `json:"name"`
	AvatarURL *string `json:"avatar_url"`
}

// SyncUser creates the user on first sign-in and refreshes the profile afterwards.
func (s *AuthService) SyncUser(session Session, req *SyncUserRequest) (*models.User, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	var user models.User

	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where(&models.User{ExternalID: session.UserID}).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user = models.User{
				ExternalID: session.UserID,
				Email:      email,
				Name:       req.Name,
				AvatarURL:  req.AvatarURL,
			}
			return tx.Create(&user).Error
		}
		if err != nil {
			return err
		}

		user.Email = email
		user.Name = req.Name
		user.AvatarURL = req.AvatarURL
		return tx.Save(&user).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, response.NewConflict("email already belongs to another account").WithCause(err)
		}
		return nil, err
	}

	return &user, nil
}

// Me returns the local projection of the session user.
func (s *AuthService) Me(session Session) (*models.User, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}
	return findSessionUser(s.db, session)
}
