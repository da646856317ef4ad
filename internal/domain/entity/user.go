package entity

import "time"

// User usuario de un comercio (acceso al panel y a la API).
type User struct {
	ID           string
	MerchantID   string
	Email        string
	PasswordHash string
	Name         string
	Status       string // "active" | "disabled"
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
