package app

import (
	"time"

	"taller/internal/core"
)

// ClienteResult is returned by cliente lookups and writes.
type ClienteResult struct {
	Cliente *core.Cliente `json:"cliente"`
}

// ClienteListResult is returned by ListClientes.
type ClienteListResult struct {
	Clientes []core.Cliente `json:"clientes"`
}

// OrderResult is returned by order lifecycle operations.
type OrderResult struct {
	Order      *core.Reparacion `json:"reparacion"`
	Novedades  []core.Novedad   `json:"novedades,omitempty"`
	Siguientes []core.Estado    `json:"siguientes"`
}

// OrderListResult is returned by ListOrders and ClienteHistory.
type OrderListResult struct {
	Orders []core.Reparacion `json:"reparaciones"`
}

// NovedadListResult is returned by ListNovedades.
type NovedadListResult struct {
	OrderID   int            `json:"reparacion_id"`
	Novedades []core.Novedad `json:"novedades"`
}

// PublicStatusResult is the customer-facing status of a reparacion.
type PublicStatusResult struct {
	Codigo        string      `json:"codigo"`
	Equipo        string      `json:"equipo"`
	Marca         string      `json:"marca,omitempty"`
	Modelo        string      `json:"modelo,omitempty"`
	Estado        core.Estado `json:"estado"`
	FechaIngreso  time.Time   `json:"fecha_ingreso"`
	FechaReparado *time.Time  `json:"fecha_reparado,omitempty"`
	FechaRetiro   *time.Time  `json:"fecha_retiro,omitempty"`
}

// KanbanResult is returned by Kanban. Cached is false when the board was built
// from the database because no snapshot was ready.
type KanbanResult struct {
	Board   core.Board `json:"board"`
	BuiltAt time.Time  `json:"built_at"`
	Cached  bool       `json:"cached"`
}

// VentaListResult is returned by ListVentas.
type VentaListResult struct {
	Ventas []core.Venta `json:"ventas"`
}

// PagoListResult is returned by ListPagos.
type PagoListResult struct {
	Pagos []core.Pago `json:"pagos"`
}

// PlantillaListResult is returned by ListPlantillas.
type PlantillaListResult struct {
	Plantillas []core.Plantilla `json:"plantillas"`
}

// UserSession is returned by AuthenticateUser.
type UserSession struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Nombre   string `json:"nombre"`
	Rol      string `json:"rol"`
}

// UserResult is returned by GetUser and CreateUser.
type UserResult struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Nombre   string `json:"nombre"`
	Rol      string `json:"rol"`
}
