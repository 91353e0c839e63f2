package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrVersionConflict    = errors.New("conflicto de versión en el registro de stock")
	ErrInsufficientStock  = errors.New("stock insuficiente")
)

// InsufficientStockError indica que una salida dejaría el stock en negativo.
// Lleva la cantidad disponible para que el caller responda sin una segunda lectura.
// errors.Is(err, ErrInsufficientStock) funciona sobre este tipo.
type InsufficientStockError struct {
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente: disponible %d", e.Available)
}

// Is permite tratar el error tipado como el sentinel ErrInsufficientStock.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
