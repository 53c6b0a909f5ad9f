package entity

// Actor es la identidad ya resuelta del que invoca una operación del ledger.
// El ledger nunca verifica credenciales: confía en el rol que le entregan
// (el middleware HTTP lo extrae del JWT y lo pasa como parámetro explícito,
// nunca como estado ambiente).
type Actor struct {
	UserID   string
	Username string
	Role     string // admin, manager, user
}
