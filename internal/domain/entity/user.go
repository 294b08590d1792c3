package entity

// Role rol del usuario que ejecuta una acción de flujo.
type Role string

// Roles válidos. Admin se acepta donde se exige Manager.
const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// IsValid indica si el rol pertenece a la enumeración conocida.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleEmployee:
		return true
	}
	return false
}

// Actor identidad del principal que ejecuta la acción (la provee el proveedor de identidad, p. ej. JWT).
type Actor struct {
	UserID int64
	Role   Role
}
