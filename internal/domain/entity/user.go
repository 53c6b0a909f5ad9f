package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleUser    = "user" // solo lectura
)

// ValidRole indica si s es uno de los roles conocidos.
func ValidRole(s string) bool {
	switch s {
	case RoleAdmin, RoleManager, RoleUser:
		return true
	}
	return false
}

// User representa un usuario del sistema.
type User struct {
	ID           string
	Username     string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Name         string
	Role         string // admin, manager, user
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
