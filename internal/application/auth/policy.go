package auth

import (
	"github.com/jhoicas/Kardex-api/internal/application/ledger"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
)

var _ ledger.AuthorizationPolicy = (*RolePolicy)(nil)

// RolePolicy resuelve capacidad de escritura por rol: admin y manager escriben
// sobre productos y movimientos, user solo lee.
type RolePolicy struct{}

// NewRolePolicy construye la política por defecto.
func NewRolePolicy() *RolePolicy {
	return &RolePolicy{}
}

// HasWriteCapability implementa ledger.AuthorizationPolicy.
func (RolePolicy) HasWriteCapability(actor entity.Actor) bool {
	switch actor.Role {
	case entity.RoleAdmin, entity.RoleManager:
		return true
	}
	return false
}
