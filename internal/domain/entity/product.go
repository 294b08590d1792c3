package entity

// ProductRef datos del catálogo de productos que consume el flujo (existencia, nombre, unidad).
// El CRUD de productos vive fuera de este servicio.
type ProductRef struct {
	ID   int64
	Name string
	Unit string // unidad de medida (UND, KG, ...)
}
