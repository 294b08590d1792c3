package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound             = errors.New("recurso no encontrado")
	ErrInvalidInput         = errors.New("entrada inválida")
	ErrUnauthorized         = errors.New("no autorizado")
	ErrForbidden            = errors.New("acceso denegado")
	ErrConflict             = errors.New("conflicto con el estado actual")
	ErrIllegalTransition    = errors.New("transición no permitida para el estado actual")
	ErrInsufficientStock    = errors.New("stock insuficiente")
	ErrConfirmationRequired = errors.New("se requiere confirmación del proveedor")
	ErrInvalidToken         = errors.New("token de confirmación inválido")
	ErrInternal             = errors.New("error interno")

	// ErrNumberTaken el número asignado ya existe; es un ErrConflict.
	ErrNumberTaken = fmt.Errorf("%w: número de documento en uso", ErrConflict)
)

// InvalidLineError línea de documento rechazada por validación. Es un ErrInvalidInput.
type InvalidLineError struct {
	ProductID int64
	Reason    string
}

func (e *InvalidLineError) Error() string {
	return fmt.Sprintf("línea inválida (producto %d): %s", e.ProductID, e.Reason)
}

func (e *InvalidLineError) Unwrap() error { return ErrInvalidInput }

// InsufficientStockError detalla qué producto no alcanza. Es un ErrInsufficientStock.
type InsufficientStockError struct {
	ProductID int64
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para producto %d: solicitado %d, disponible %d",
		e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// InvariantError violación de un invariante de programación (estado desconocido, sellos fuera de orden).
// No forma parte de la taxonomía esperada: se registra y se reporta como ErrInternal.
type InvariantError struct {
	Detail string
}

func (e *InvariantError) Error() string { return "invariante violado: " + e.Detail }

func (e *InvariantError) Unwrap() error { return ErrInternal }
