package dto

import (
	"time"

	"goldsignal/internal/model"
)

// LoginRequestDTO is the login payload.
type LoginRequestDTO struct {
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequestDTO is the registration payload.
type RegisterRequestDTO struct {
	Name     string `json:"name" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// AuthResponseDTO is returned by login and register.
type AuthResponseDTO struct {
	Token string          `json:"token"`
	User  UserResponseDTO `json:"user"`
}

// UserUpdateDTO is the partial update payload. Absent fields are left
// unchanged.
type UserUpdateDTO struct {
	Name     *string         `json:"name,omitempty" validate:"omitempty,min=3"`
	Email    *string         `json:"email,omitempty" validate:"omitempty,email"`
	Password *string         `json:"password,omitempty" validate:"omitempty,min=6"`
	Plan     *model.PlanTier `json:"status,omitempty" validate:"omitempty,oneof=Free VIP"`
}

// UserResponseDTO is returned in API responses. It never carries credential
// material.
type UserResponseDTO struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Email          string         `json:"email"`
	AccessKey      string         `json:"key"`
	Plan           model.PlanTier `json:"status"`
	AnalysisCount  int            `json:"analysisCount"`
	LastAnalysisAt time.Time      `json:"lastAnalysisTimestamp"`
}

// NewUserResponse maps a sanitized user to its response DTO.
func NewUserResponse(u model.User) UserResponseDTO {
	return UserResponseDTO{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		AccessKey:      u.AccessKey,
		Plan:           u.Plan,
		AnalysisCount:  u.AnalysisCount,
		LastAnalysisAt: u.LastAnalysisAt,
	}
}
