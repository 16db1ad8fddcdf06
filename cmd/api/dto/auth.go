package dto

import "time"

type LoginRequestDTO struct {
	Email    string `json:"email" example:"owner@example.com"`
	Password string `json:"password"`
}

type UserDTO struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
}

type SessionDTO struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserDTO   `json:"user"`
}
