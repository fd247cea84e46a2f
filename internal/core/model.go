package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estado is a repair order status. Its values are the primary keys of the estados table.
type Estado string

const (
	EstadoIngreso       Estado = "INGRESO"
	EstadoPresupuestado Estado = "PRESUPUESTADO"
	EstadoAcepta        Estado = "ACEPTA"
	EstadoRechaza       Estado = "RECHAZA"
	EstadoReparado      Estado = "REPARADO"
	EstadoRetira        Estado = "RETIRA"
	EstadoReingreso     Estado = "REINGRESO"
	EstadoArchivado     Estado = "ARCHIVADO"
	EstadoArmado        Estado = "ARMADO"
)

// AllEstados lists every estado in board order.
var AllEstados = []Estado{
	EstadoIngreso, EstadoReingreso, EstadoPresupuestado, EstadoAcepta,
	EstadoRechaza, EstadoArmado, EstadoReparado, EstadoRetira, EstadoArchivado,
}

func (e Estado) Valid() bool {
	for _, v := range AllEstados {
		if v == e {
			return true
		}
	}
	return false
}

// Abierto reports whether an order in this estado is still in the shop.
func (e Estado) Abierto() bool {
	return e.Valid() && e != EstadoRetira && e != EstadoArchivado
}

type MedioPago string

const (
	MedioEfectivo      MedioPago = "EFECTIVO"
	MedioTransferencia MedioPago = "TRANSFERENCIA"
	MedioTarjeta       MedioPago = "TARJETA"
	MedioMercadoPago   MedioPago = "MERCADOPAGO"
)

var MediosPago = []MedioPago{MedioEfectivo, MedioTransferencia, MedioTarjeta, MedioMercadoPago}

func (m MedioPago) Valid() bool {
	for _, v := range MediosPago {
		if v == m {
			return true
		}
	}
	return false
}

// Cliente is a customer of the shop.
type Cliente struct {
	ID        int       `json:"id"`
	Nombre    string    `json:"nombre"`
	Apellido  string    `json:"apellido"`
	Telefono  string    `json:"telefono"`
	Email     string    `json:"email"`
	DNI       string    `json:"dni"`
	Direccion string    `json:"direccion"`
	Notas     string    `json:"notas"`
	CreatedAt time.Time `json:"created_at"`
}

// NombreCompleto joins nombre and apellido.
func (c Cliente) NombreCompleto() string {
	if c.Apellido == "" {
		return c.Nombre
	}
	return c.Nombre + " " + c.Apellido
}

// ClienteInput carries the editable fields of a Cliente.
type ClienteInput struct {
	Nombre    string
	Apellido  string
	Telefono  string
	Email     string
	DNI       string
	Direccion string
	Notas     string
}

// Reparacion is a repair order for one device.
// Estado only changes through novedades:
//
//	INGRESO → PRESUPUESTADO → ACEPTA → REPARADO → RETIRA
//	                        ↘ RECHAZA → ARMADO → RETIRA
//	RETIRA → REINGRESO, any → ARCHIVADO
type Reparacion struct {
	ID               int              `json:"id"`
	Codigo           string           `json:"codigo"`
	ClienteID        int              `json:"cliente_id"`
	ClienteNombre    string           `json:"cliente_nombre"`   // joined from clientes
	ClienteTelefono  string           `json:"cliente_telefono"` // joined from clientes
	Estado           Estado           `json:"estado"`
	Equipo           string           `json:"equipo"`
	Marca            string           `json:"marca"`
	Modelo           string           `json:"modelo"`
	NumeroSerie      string           `json:"numero_serie"`
	Falla            string           `json:"falla"`
	Accesorios       string           `json:"accesorios"`
	Observaciones    string           `json:"observaciones"`
	Presupuesto      *decimal.Decimal `json:"presupuesto,omitempty"`
	PrecioFinal      *decimal.Decimal `json:"precio_final,omitempty"`
	Sena             decimal.Decimal  `json:"sena"`
	Reingresos       int              `json:"reingresos"`
	FechaIngreso     time.Time        `json:"fecha_ingreso"`
	FechaPresupuesto *time.Time       `json:"fecha_presupuesto,omitempty"`
	FechaRespuesta   *time.Time       `json:"fecha_respuesta,omitempty"`
	FechaReparado    *time.Time       `json:"fecha_reparado,omitempty"`
	FechaRetiro      *time.Time       `json:"fecha_retiro,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// NewOrderInput is used at intake.
type NewOrderInput struct {
	ClienteID     int
	Equipo        string
	Marca         string
	Modelo        string
	NumeroSerie   string
	Falla         string
	Accesorios    string
	Observaciones string
	Sena          decimal.Decimal
	MedioPago     MedioPago // for the seña; defaults to EFECTIVO
	Usuario       string
}

// OrderDetailsInput edits descriptive fields. Nil fields are left unchanged.
type OrderDetailsInput struct {
	Equipo        *string
	Marca         *string
	Modelo        *string
	NumeroSerie   *string
	Falla         *string
	Accesorios    *string
	Observaciones *string
}

// OrderFilter narrows ListOrders. Closed orders are excluded unless IncludeClosed is set
// or Estado names a closed estado.
type OrderFilter struct {
	Estado        Estado
	ClienteID     int
	Query         string
	IncludeClosed bool
	Limit         int
}

// Novedad is the append-only audit row written by every transition.
type Novedad struct {
	ID             int              `json:"id"`
	ReparacionID   int              `json:"reparacion_id"`
	Tipo           Estado           `json:"tipo"`
	EstadoAnterior *Estado          `json:"estado_anterior,omitempty"`
	Monto          *decimal.Decimal `json:"monto,omitempty"`
	MedioPago      *MedioPago       `json:"medio_pago,omitempty"`
	Observacion    string           `json:"observacion"`
	Usuario        string           `json:"usuario"`
	CreatedAt      time.Time        `json:"created_at"`
}

// NovedadInput is the request to move an order to Tipo.
type NovedadInput struct {
	Tipo        Estado
	Monto       *decimal.Decimal
	MedioPago   MedioPago
	Observacion string
	Usuario     string
}

type Venta struct {
	ID           int             `json:"id"`
	ReparacionID *int            `json:"reparacion_id,omitempty"`
	ClienteID    *int            `json:"cliente_id,omitempty"`
	NovedadID    *int            `json:"novedad_id,omitempty"`
	Fecha        time.Time       `json:"fecha"`
	Concepto     string          `json:"concepto"`
	Monto        decimal.Decimal `json:"monto"`
	Cobrado      decimal.Decimal `json:"cobrado"` // sum of pagos
	CreatedAt    time.Time       `json:"created_at"`
}

// Saldo is the amount still owed on the venta.
func (v Venta) Saldo() decimal.Decimal {
	return v.Monto.Sub(v.Cobrado)
}

type Pago struct {
	ID           int             `json:"id"`
	VentaID      int             `json:"venta_id"`
	ReparacionID *int            `json:"reparacion_id,omitempty"`
	Fecha        time.Time       `json:"fecha"`
	Monto        decimal.Decimal `json:"monto"`
	MedioPago    MedioPago       `json:"medio_pago"`
	CreatedAt    time.Time       `json:"created_at"`
}

type Factura struct {
	ID        int             `json:"id"`
	VentaID   int             `json:"venta_id"`
	Tipo      string          `json:"tipo"`
	Numero    string          `json:"numero"`
	Fecha     time.Time       `json:"fecha"`
	Total     decimal.Decimal `json:"total"`
	ClienteID *int            `json:"cliente_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
