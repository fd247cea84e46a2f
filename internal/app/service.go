package app

import (
	"context"
	"io"
	"time"

	"taller/internal/core"
)

// Event is pushed to dashboard subscribers after a write commits.
type Event struct {
	Type    string      `json:"type"`
	OrderID int         `json:"order_id,omitempty"`
	Codigo  string      `json:"codigo,omitempty"`
	Estado  core.Estado `json:"estado,omitempty"`
	VentaID int         `json:"venta_id,omitempty"`
	At      time.Time   `json:"at"`
}

const (
	EventOrderCreated = "order.created"
	EventOrderUpdated = "order.updated"
	EventVentaCreated = "venta.created"
	EventPagoCreated  = "pago.created"
)

// Publisher fans events out to live subscribers. Publish must not block.
type Publisher interface {
	Publish(ev Event)
}

// MessageSender delivers a WhatsApp text to an international phone number.
type MessageSender interface {
	SendText(ctx context.Context, phone, text string) error
}

// BoardCache serves the last Kanban snapshot and accepts rebuild requests.
type BoardCache interface {
	Snapshot() (core.Board, time.Time, bool)
	Invalidate()
}

// ApplicationService is the single interface all adapters (CLI, Web) call.
// It decouples presentation from business logic. Implementations must contain
// no display logic of any kind.
type ApplicationService interface {
	// ListClientes searches clientes by nombre, apellido, telefono or dni.
	ListClientes(ctx context.Context, query string) (*ClienteListResult, error)
	GetCliente(ctx context.Context, id int) (*ClienteResult, error)
	CreateCliente(ctx context.Context, req ClienteRequest) (*ClienteResult, error)
	UpdateCliente(ctx context.Context, id int, req ClienteRequest) (*ClienteResult, error)
	// ClienteHistory returns every reparacion of a cliente, newest first.
	ClienteHistory(ctx context.Context, id int) (*OrderListResult, error)

	ListOrders(ctx context.Context, req ListOrdersRequest) (*OrderListResult, error)

	// GetOrder returns a reparacion by numeric ID or codigo, with its novedades
	// and the novedades that may be applied next.
	GetOrder(ctx context.Context, ref string) (*OrderResult, error)

	// CreateOrder registers a device at intake (estado INGRESO).
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResult, error)

	// UpdateOrder edits descriptive fields. It never changes the estado.
	UpdateOrder(ctx context.Context, ref string, req UpdateOrderRequest) (*OrderResult, error)

	// ApplyNovedad runs one workflow transition. On success the Kanban cache is
	// invalidated and an order.updated event is published.
	ApplyNovedad(ctx context.Context, ref string, req NovedadRequest) (*OrderResult, error)

	ListNovedades(ctx context.Context, ref string) (*NovedadListResult, error)

	// PublicStatus returns the customer-facing view of an order. It carries no personal data.
	PublicStatus(ctx context.Context, codigo string) (*PublicStatusResult, error)

	// Kanban serves the cached board, falling back to the database before the
	// first refresh completes.
	Kanban(ctx context.Context) (*KanbanResult, error)

	GetSummary(ctx context.Context, req SummaryRequest) (*core.Summary, error)

	// ExportSummary writes the summary and its ventas as an XLSX workbook.
	ExportSummary(ctx context.Context, req SummaryRequest, w io.Writer) error

	ListVentas(ctx context.Context, req MovimientosRequest) (*VentaListResult, error)
	CreateVenta(ctx context.Context, req CreateVentaRequest) (*core.Venta, error)
	RegisterPago(ctx context.Context, ventaID int, req PagoRequest) (*core.Pago, error)
	ListPagos(ctx context.Context, req MovimientosRequest) (*PagoListResult, error)
	CreateFactura(ctx context.Context, ventaID int, tipo string) (*core.Factura, error)

	ListPlantillas(ctx context.Context) (*PlantillaListResult, error)
	UpsertPlantilla(ctx context.Context, req PlantillaRequest) (*core.Plantilla, error)

	// SeedPlantillas inserts the default templates when none exist.
	SeedPlantillas(ctx context.Context) (int, error)

	// RenderWhatsApp renders template clave for an order without sending it.
	RenderWhatsApp(ctx context.Context, ref, clave string) (*core.WhatsAppMessage, error)

	// SendWhatsApp renders and delivers the message through the configured gateway.
	// Returns core.ErrWhatsAppNotConfigured when no gateway is set.
	SendWhatsApp(ctx context.Context, ref, clave string) (*core.WhatsAppMessage, error)

	// AuthenticateUser verifies credentials and returns a session on success.
	AuthenticateUser(ctx context.Context, username, password string) (*UserSession, error)

	// GetUser returns user profile by ID.
	GetUser(ctx context.Context, userID int) (*UserResult, error)

	CreateUser(ctx context.Context, req CreateUserRequest) (*UserResult, error)
}
