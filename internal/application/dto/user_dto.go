package dto

import "time"

// RegisterRequest entrada para registro: crea el comercio y su primer usuario.
type RegisterRequest struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8"`
	Name         string `json:"name" validate:"omitempty,max=200"`
	MerchantName string `json:"merchant_name" validate:"required,min=1,max=200"`
	LegalID      string `json:"legal_id" validate:"omitempty,max=50"`
	Country      string `json:"country" validate:"omitempty,len=2"`
	Wallet       string `json:"wallet" validate:"omitempty,max=64"`
}

// UserResponse salida de un usuario (sin password).
type UserResponse struct {
	ID         string    `json:"id"`
	MerchantID string    `json:"merchant_id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// LoginRequest entrada para login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse salida con token JWT.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}
