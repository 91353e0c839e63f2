package entity

import "time"

// Account representa un tenant del sistema. Todo producto, stock y movimiento
// pertenece a exactamente una cuenta.
type Account struct {
	ID        string
	Name      string
	CreatedAt time.Time
}
