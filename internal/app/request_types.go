package app

import (
	"github.com/shopspring/decimal"
)

// ClienteRequest is the input for creating or updating a cliente.
type ClienteRequest struct {
	Nombre    string
	Apellido  string
	Telefono  string
	Email     string
	DNI       string
	Direccion string
	Notas     string
}

// ListOrdersRequest filters the reparaciones listing. Estado is a code such as "REPARADO".
type ListOrdersRequest struct {
	Estado        string
	ClienteID     int
	Query         string
	IncludeClosed bool
	Limit         int
}

// CreateOrderRequest is the input for registering a device at intake.
type CreateOrderRequest struct {
	ClienteID     int
	Equipo        string
	Marca         string
	Modelo        string
	NumeroSerie   string
	Falla         string
	Accesorios    string
	Observaciones string
	Sena          decimal.Decimal
	MedioPago     string
	Usuario       string
}

// UpdateOrderRequest carries the descriptive fields to change. Nil means unchanged.
type UpdateOrderRequest struct {
	Equipo        *string
	Marca         *string
	Modelo        *string
	NumeroSerie   *string
	Falla         *string
	Accesorios    *string
	Observaciones *string
}

// NovedadRequest is one workflow event. Tipo is the target estado code.
type NovedadRequest struct {
	Tipo        string
	Monto       *decimal.Decimal
	MedioPago   string
	Observacion string
	Usuario     string
}

// SummaryRequest selects a period. Dates are YYYY-MM-DD in the shop timezone;
// empty Hasta means today and empty Desde a default window for the bucket.
type SummaryRequest struct {
	Desde  string
	Hasta  string
	Bucket string
}

// MovimientosRequest filters ventas and pagos listings.
type MovimientosRequest struct {
	Desde        string
	Hasta        string
	ReparacionID int
	Limit        int
}

// CreateVentaRequest is a counter sale not linked to a reparacion.
type CreateVentaRequest struct {
	Concepto  string
	Monto     decimal.Decimal
	ClienteID *int
	Cobrar    bool
	MedioPago string
}

type PagoRequest struct {
	Monto     decimal.Decimal
	MedioPago string
}

type PlantillaRequest struct {
	Clave  string
	Nombre string
	Cuerpo string
	Activo bool
}

type CreateUserRequest struct {
	Username string
	Nombre   string
	Password string
	Rol      string
}
