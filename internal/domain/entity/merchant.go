package entity

import "time"

// Merchant representa un comercio registrado en el marketplace de
// financiamiento por ingresos (el dueño de conexiones y attestations).
type Merchant struct {
	ID        string
	Name      string
	LegalID   string // NIT o registro mercantil
	Country   string // ISO 3166-1 alpha-2
	Wallet    string // dirección on-chain a la que se asocian las attestations
	CreatedAt time.Time
	UpdatedAt time.Time
}
