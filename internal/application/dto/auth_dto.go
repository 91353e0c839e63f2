package dto

import "time"

// RegisterRequest entrada para crear una cuenta con su primer usuario.
type RegisterRequest struct {
	AccountName string `json:"account_name" validate:"required,min=1,max=200"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	Name        string `json:"name"`
}

// RegisterResponse salida del registro.
type RegisterResponse struct {
	AccountID string `json:"account_id"`
	UserID    string `json:"user_id"`
}

// LoginRequest entrada para login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserResponse usuario sin datos sensibles.
type UserResponse struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginResponse token emitido más el usuario autenticado.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}
