package entity

import "time"

// User representa un usuario del sistema (pertenece a una Account).
type User struct {
	ID           string
	AccountID    string
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
