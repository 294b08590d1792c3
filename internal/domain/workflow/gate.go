// Package workflow contiene las tablas de transición de salidas y entradas y la compuerta
// (Decide) por la que pasa toda acción de flujo. No hace I/O: solo depende de sus entradas.
package workflow

import (
	"fmt"
	"strings"

	"github.com/jhoicas/bodega-api/internal/domain"
	"github.com/jhoicas/bodega-api/internal/domain/entity"
)

// Action acción de flujo solicitada sobre un documento.
type Action string

const (
	ActionApprove         Action = "approve"
	ActionReject          Action = "reject"
	ActionStartPreparing  Action = "start_preparing"
	ActionDeliver         Action = "deliver"
	ActionComplete        Action = "complete"
	ActionSupplierConfirm Action = "supplier_confirm" // externa, autenticada por token
)

// ParseAction convierte el texto de la ruta/HTTP en Action.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")))
	switch a {
	case ActionApprove, ActionReject, ActionStartPreparing, ActionDeliver, ActionComplete, ActionSupplierConfirm:
		return a, nil
	}
	return "", fmt.Errorf("%w: acción desconocida %q", domain.ErrInvalidInput, s)
}

// Direction efecto sobre el inventario al completar el documento.
type Direction int

const (
	DirectionIncrease Direction = iota + 1 // entradas
	DirectionDecrease                      // salidas
)

// Transition fila de la tabla (estado actual, acción) → (estado siguiente, roles).
// Roles vacío significa que la acción no exige rol (la autentica un token).
type Transition struct {
	From       entity.Status
	Action     Action
	To         entity.Status
	Roles      []entity.Role
	MovesStock bool // la transición representa el movimiento físico de stock
}

// Definition máquina de estados de un tipo de documento.
type Definition struct {
	Kind        entity.Kind
	Initial     entity.Status
	Editable    entity.Status
	Direction   Direction
	Statuses    []entity.Status
	Transitions []Transition
}

var (
	manager        = []entity.Role{entity.RoleManager}
	employee       = []entity.Role{entity.RoleEmployee}
	employeeOrMgr  = []entity.Role{entity.RoleEmployee, entity.RoleManager}
	noRoleRequired []entity.Role
)

// Issue flujo de salidas: New → Approved → Preparing → Delivered → Completed.
var Issue = &Definition{
	Kind:      entity.KindIssue,
	Initial:   entity.StatusNew,
	Editable:  entity.StatusNew,
	Direction: DirectionDecrease,
	Statuses: []entity.Status{
		entity.StatusNew, entity.StatusApproved, entity.StatusPreparing,
		entity.StatusDelivered, entity.StatusCompleted, entity.StatusRejected,
	},
	Transitions: []Transition{
		{From: entity.StatusNew, Action: ActionApprove, To: entity.StatusApproved, Roles: manager},
		{From: entity.StatusNew, Action: ActionReject, To: entity.StatusRejected, Roles: manager},
		{From: entity.StatusApproved, Action: ActionReject, To: entity.StatusRejected, Roles: manager},
		{From: entity.StatusApproved, Action: ActionStartPreparing, To: entity.StatusPreparing, Roles: employee},
		{From: entity.StatusPreparing, Action: ActionDeliver, To: entity.StatusDelivered, Roles: employee},
		{From: entity.StatusDelivered, Action: ActionComplete, To: entity.StatusCompleted, Roles: employeeOrMgr, MovesStock: true},
	},
}

// Receipt flujo de entradas: Pending → Approved → (confirmación) → Completed.
var Receipt = &Definition{
	Kind:      entity.KindReceipt,
	Initial:   entity.StatusPending,
	Editable:  entity.StatusPending,
	Direction: DirectionIncrease,
	Statuses: []entity.Status{
		entity.StatusPending, entity.StatusApproved, entity.StatusCompleted, entity.StatusRejected,
	},
	Transitions: []Transition{
		{From: entity.StatusPending, Action: ActionApprove, To: entity.StatusApproved, Roles: manager},
		{From: entity.StatusPending, Action: ActionReject, To: entity.StatusRejected, Roles: manager},
		{From: entity.StatusApproved, Action: ActionReject, To: entity.StatusRejected, Roles: manager},
		{From: entity.StatusApproved, Action: ActionSupplierConfirm, To: entity.StatusApproved, Roles: noRoleRequired},
		{From: entity.StatusApproved, Action: ActionComplete, To: entity.StatusCompleted, Roles: employeeOrMgr, MovesStock: true},
	},
}

// For devuelve la definición del tipo de documento.
func For(kind entity.Kind) (*Definition, error) {
	switch kind {
	case entity.KindIssue:
		return Issue, nil
	case entity.KindReceipt:
		return Receipt, nil
	}
	return nil, &domain.InvariantError{Detail: fmt.Sprintf("tipo de documento desconocido %q", kind)}
}

// Decide valida (estado, acción, rol) contra la tabla y devuelve la transición a aplicar.
// Errores: ErrIllegalTransition si la acción no aplica al estado, ErrForbidden si el rol no alcanza,
// InvariantError si el estado no pertenece a la enumeración.
func (d *Definition) Decide(current entity.Status, action Action, role entity.Role) (Transition, error) {
	if !d.knows(current) {
		return Transition{}, &domain.InvariantError{
			Detail: fmt.Sprintf("estado %q fuera de la enumeración de %s", current, d.Kind),
		}
	}
	t, ok := d.find(current, action)
	if !ok {
		return Transition{}, fmt.Errorf("%w: %s desde %s", domain.ErrIllegalTransition, action, current)
	}
	if !Allows(t.Roles, role) {
		return Transition{}, fmt.Errorf("%w: %s requiere rol %v", domain.ErrForbidden, action, t.Roles)
	}
	return t, nil
}

// Allows indica si el rol satisface la lista. Admin vale donde se exige Manager.
func Allows(required []entity.Role, role entity.Role) bool {
	if len(required) == 0 {
		return true
	}
	for _, r := range required {
		if r == role || (r == entity.RoleManager && role == entity.RoleAdmin) {
			return true
		}
	}
	return false
}

// CanEdit true solo en el estado editable (New / Pending).
func (d *Definition) CanEdit(s entity.Status) bool {
	return s == d.Editable
}

// Available transiciones que salen del estado dado, en orden de tabla.
func (d *Definition) Available(s entity.Status) []Transition {
	var out []Transition
	for _, t := range d.Transitions {
		if t.From == s {
			out = append(out, t)
		}
	}
	return out
}

// Actions todas las acciones que conoce la definición, sin repetir.
func (d *Definition) Actions() []Action {
	seen := make(map[Action]bool)
	var out []Action
	for _, t := range d.Transitions {
		if !seen[t.Action] {
			seen[t.Action] = true
			out = append(out, t.Action)
		}
	}
	return out
}

// IsTerminal true si ninguna transición sale del estado.
func (d *Definition) IsTerminal(s entity.Status) bool {
	return len(d.Available(s)) == 0
}

func (d *Definition) knows(s entity.Status) bool {
	for _, st := range d.Statuses {
		if st == s {
			return true
		}
	}
	return false
}

func (d *Definition) find(s entity.Status, a Action) (Transition, bool) {
	for _, t := range d.Transitions {
		if t.From == s && t.Action == a {
			return t, true
		}
	}
	return Transition{}, false
}
