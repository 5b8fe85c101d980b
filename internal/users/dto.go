package users

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/marketloft-backend/pkg/db/models"
)

// CreateUserDTO captures the fields needed to insert a user row.
type CreateUserDTO struct {
	Email        string
	PasswordHash string
	DisplayName  string
}

// ToModel converts the DTO into a persistable model.
func (d CreateUserDTO) ToModel() *models.User {
	return &models.User{
		ID:           uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(d.Email)),
		PasswordHash: d.PasswordHash,
		DisplayName:  strings.TrimSpace(d.DisplayName),
	}
}

// UserDTO is the API-facing view of a user.
type UserDTO struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// FromModel maps a user model to its DTO.
func FromModel(user *models.User) *UserDTO {
	if user == nil {
		return nil
	}
	return &UserDTO{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
}
