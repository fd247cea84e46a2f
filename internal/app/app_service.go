package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"taller/internal/core"
)

type appService struct {
	clientes   core.ClienteService
	orders     core.OrderService
	accounting core.AccountingService
	whatsapp   core.WhatsAppService
	users      core.UserService
	cache      BoardCache
	events     Publisher
	sender     MessageSender
	now        func() time.Time
}

// Deps groups the collaborators of the application service. Cache, Events and
// Sender are optional.
type Deps struct {
	Clientes   core.ClienteService
	Orders     core.OrderService
	Accounting core.AccountingService
	WhatsApp   core.WhatsAppService
	Users      core.UserService
	Cache      BoardCache
	Events     Publisher
	Sender     MessageSender
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(d Deps) ApplicationService {
	return &appService{
		clientes:   d.Clientes,
		orders:     d.Orders,
		accounting: d.Accounting,
		whatsapp:   d.WhatsApp,
		users:      d.Users,
		cache:      d.Cache,
		events:     d.Events,
		sender:     d.Sender,
		now:        time.Now,
	}
}

// ── Clientes ─────────────────────────────────────────────────────────────────

func (s *appService) ListClientes(ctx context.Context, query string) (*ClienteListResult, error) {
	clientes, err := s.clientes.ListClientes(ctx, query, 0)
	if err != nil {
		return nil, err
	}
	return &ClienteListResult{Clientes: clientes}, nil
}

func (s *appService) GetCliente(ctx context.Context, id int) (*ClienteResult, error) {
	c, err := s.clientes.GetCliente(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ClienteResult{Cliente: c}, nil
}

func (s *appService) CreateCliente(ctx context.Context, req ClienteRequest) (*ClienteResult, error) {
	c, err := s.clientes.CreateCliente(ctx, clienteInput(req))
	if err != nil {
		return nil, err
	}
	return &ClienteResult{Cliente: c}, nil
}

func (s *appService) UpdateCliente(ctx context.Context, id int, req ClienteRequest) (*ClienteResult, error) {
	c, err := s.clientes.UpdateCliente(ctx, id, clienteInput(req))
	if err != nil {
		return nil, err
	}
	return &ClienteResult{Cliente: c}, nil
}

func (s *appService) ClienteHistory(ctx context.Context, id int) (*OrderListResult, error) {
	orders, err := s.clientes.ClienteHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	return &OrderListResult{Orders: orders}, nil
}

func clienteInput(req ClienteRequest) core.ClienteInput {
	return core.ClienteInput{
		Nombre:    req.Nombre,
		Apellido:  req.Apellido,
		Telefono:  req.Telefono,
		Email:     req.Email,
		DNI:       req.DNI,
		Direccion: req.Direccion,
		Notas:     req.Notas,
	}
}

// ── Reparaciones ─────────────────────────────────────────────────────────────

func (s *appService) ListOrders(ctx context.Context, req ListOrdersRequest) (*OrderListResult, error) {
	f := core.OrderFilter{
		ClienteID:     req.ClienteID,
		Query:         req.Query,
		IncludeClosed: req.IncludeClosed,
		Limit:         req.Limit,
	}
	if req.Estado != "" {
		f.Estado = core.Estado(strings.ToUpper(strings.TrimSpace(req.Estado)))
		if !f.Estado.Valid() {
			return nil, fmt.Errorf("%w: unknown estado %q", core.ErrValidation, req.Estado)
		}
	}
	orders, err := s.orders.ListOrders(ctx, f)
	if err != nil {
		return nil, err
	}
	return &OrderListResult{Orders: orders}, nil
}

func (s *appService) GetOrder(ctx context.Context, ref string) (*OrderResult, error) {
	order, err := s.resolveOrder(ctx, ref)
	if err != nil {
		return nil, err
	}
	novedades, err := s.orders.ListNovedades(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order, Novedades: novedades, Siguientes: core.NextEstados(order.Estado)}, nil
}

func (s *appService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResult, error) {
	order, err := s.orders.CreateOrder(ctx, core.NewOrderInput{
		ClienteID:     req.ClienteID,
		Equipo:        req.Equipo,
		Marca:         req.Marca,
		Modelo:        req.Modelo,
		NumeroSerie:   req.NumeroSerie,
		Falla:         req.Falla,
		Accesorios:    req.Accesorios,
		Observaciones: req.Observaciones,
		Sena:          req.Sena,
		MedioPago:     core.MedioPago(strings.ToUpper(strings.TrimSpace(req.MedioPago))),
		Usuario:       req.Usuario,
	})
	if err != nil {
		return nil, err
	}
	s.orderChanged(EventOrderCreated, order)
	return &OrderResult{Order: order, Siguientes: core.NextEstados(order.Estado)}, nil
}

func (s *appService) UpdateOrder(ctx context.Context, ref string, req UpdateOrderRequest) (*OrderResult, error) {
	order, err := s.resolveOrder(ctx, ref)
	if err != nil {
		return nil, err
	}
	order, err = s.orders.UpdateOrderDetails(ctx, order.ID, core.OrderDetailsInput{
		Equipo:        req.Equipo,
		Marca:         req.Marca,
		Modelo:        req.Modelo,
		NumeroSerie:   req.NumeroSerie,
		Falla:         req.Falla,
		Accesorios:    req.Accesorios,
		Observaciones: req.Observaciones,
	})
	if err != nil {
		return nil, err
	}
	s.orderChanged(EventOrderUpdated, order)
	return &OrderResult{Order: order, Siguientes: core.NextEstados(order.Estado)}, nil
}

func (s *appService) ApplyNovedad(ctx context.Context, ref string, req NovedadRequest) (*OrderResult, error) {
	order, err := s.resolveOrder(ctx, ref)
	if err != nil {
		return nil, err
	}
	order, err = s.orders.ApplyNovedad(ctx, order.ID, core.NovedadInput{
		Tipo:        core.Estado(strings.ToUpper(strings.TrimSpace(req.Tipo))),
		Monto:       req.Monto,
		MedioPago:   core.MedioPago(strings.ToUpper(strings.TrimSpace(req.MedioPago))),
		Observacion: strings.TrimSpace(req.Observacion),
		Usuario:     req.Usuario,
	})
	if err != nil {
		return nil, err
	}
	s.orderChanged(EventOrderUpdated, order)
	return &OrderResult{Order: order, Siguientes: core.NextEstados(order.Estado)}, nil
}

func (s *appService) ListNovedades(ctx context.Context, ref string) (*NovedadListResult, error) {
	order, err := s.resolveOrder(ctx, ref)
	if err != nil {
		return nil, err
	}
	novedades, err := s.orders.ListNovedades(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	return &NovedadListResult{OrderID: order.ID, Novedades: novedades}, nil
}

func (s *appService) PublicStatus(ctx context.Context, codigo string) (*PublicStatusResult, error) {
	// Only codigos resolve here, never numeric ids.
	codigo = strings.ToUpper(strings.TrimSpace(codigo))
	if codigo == "" {
		return nil, fmt.Errorf("codigo %q: %w", codigo, core.ErrNotFound)
	}
	o, err := s.orders.GetOrderByCodigo(ctx, codigo)
	if err != nil {
		return nil, err
	}
	return &PublicStatusResult{
		Codigo:        o.Codigo,
		Equipo:        o.Equipo,
		Marca:         o.Marca,
		Modelo:        o.Modelo,
		Estado:        o.Estado,
		FechaIngreso:  o.FechaIngreso,
		FechaReparado: o.FechaReparado,
		FechaRetiro:   o.FechaRetiro,
	}, nil
}

func (s *appService) Kanban(ctx context.Context) (*KanbanResult, error) {
	if s.cache != nil {
		if board, builtAt, ok := s.cache.Snapshot(); ok {
			return &KanbanResult{Board: board, BuiltAt: builtAt, Cached: true}, nil
		}
	}
	board, err := s.orders.Kanban(ctx)
	if err != nil {
		return nil, err
	}
	return &KanbanResult{Board: board, BuiltAt: board.GeneratedAt}, nil
}

// resolveOrder looks up a reparacion by numeric ID or codigo.
func (s *appService) resolveOrder(ctx context.Context, ref string) (*core.Reparacion, error) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.Atoi(ref); err == nil {
		return s.orders.GetOrder(ctx, id)
	}
	return s.orders.GetOrderByCodigo(ctx, strings.ToUpper(ref))
}

// orderChanged runs after a committed write: the board is rebuilt and
// subscribers are told which order moved.
func (s *appService) orderChanged(kind string, o *core.Reparacion) {
	if s.cache != nil {
		s.cache.Invalidate()
	}
	s.publish(Event{Type: kind, OrderID: o.ID, Codigo: o.Codigo, Estado: o.Estado})
}

func (s *appService) publish(ev Event) {
	if s.events == nil {
		return
	}
	ev.At = s.now()
	s.events.Publish(ev)
}

// ── Contabilidad ─────────────────────────────────────────────────────────────

func (s *appService) GetSummary(ctx context.Context, req SummaryRequest) (*core.Summary, error) {
	q, err := s.summaryQuery(req)
	if err != nil {
		return nil, err
	}
	return s.accounting.Summary(ctx, q)
}

func (s *appService) ExportSummary(ctx context.Context, req SummaryRequest, w io.Writer) error {
	q, err := s.summaryQuery(req)
	if err != nil {
		return err
	}
	summary, err := s.accounting.Summary(ctx, q)
	if err != nil {
		return err
	}
	ventas, err := s.accounting.ListVentas(ctx, core.MovimientoFilter{Desde: q.Desde, Hasta: q.Hasta})
	if err != nil {
		return err
	}
	return core.WriteSummaryXLSX(w, summary, ventas)
}

// summaryQuery parses the request dates in the shop timezone and fills the
// default window: 30 days, 12 weeks or 12 months ending on Hasta.
func (s *appService) summaryQuery(req SummaryRequest) (core.SummaryQuery, error) {
	loc := s.accounting.Location()
	q := core.SummaryQuery{Bucket: core.Bucket(strings.ToLower(strings.TrimSpace(req.Bucket)))}
	if q.Bucket == "" {
		q.Bucket = core.BucketDia
	}
	if !q.Bucket.Valid() {
		return q, fmt.Errorf("%w: unknown bucket %q", core.ErrValidation, req.Bucket)
	}

	var err error
	if q.Hasta, err = parseFecha(req.Hasta, loc); err != nil {
		return q, err
	}
	if q.Hasta.IsZero() {
		q.Hasta = core.BucketStart(s.now(), core.BucketDia, loc)
	}
	if q.Desde, err = parseFecha(req.Desde, loc); err != nil {
		return q, err
	}
	if q.Desde.IsZero() {
		switch q.Bucket {
		case core.BucketSemana:
			q.Desde = q.Hasta.AddDate(0, 0, -7*11)
		case core.BucketMes:
			q.Desde = core.BucketStart(q.Hasta, core.BucketMes, loc).AddDate(0, -11, 0)
		default:
			q.Desde = q.Hasta.AddDate(0, 0, -29)
		}
	}
	return q, nil
}

func (s *appService) movimientoFilter(req MovimientosRequest) (core.MovimientoFilter, error) {
	loc := s.accounting.Location()
	f := core.MovimientoFilter{ReparacionID: req.ReparacionID, Limit: req.Limit}
	var err error
	if f.Desde, err = parseFecha(req.Desde, loc); err != nil {
		return f, err
	}
	if f.Hasta, err = parseFecha(req.Hasta, loc); err != nil {
		return f, err
	}
	return f, nil
}

// parseFecha parses YYYY-MM-DD in loc. Empty input yields the zero time.
func parseFecha(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", core.ErrValidation, raw)
	}
	return t, nil
}

func (s *appService) ListVentas(ctx context.Context, req MovimientosRequest) (*VentaListResult, error) {
	f, err := s.movimientoFilter(req)
	if err != nil {
		return nil, err
	}
	ventas, err := s.accounting.ListVentas(ctx, f)
	if err != nil {
		return nil, err
	}
	return &VentaListResult{Ventas: ventas}, nil
}

func (s *appService) CreateVenta(ctx context.Context, req CreateVentaRequest) (*core.Venta, error) {
	v, err := s.accounting.CreateVenta(ctx, core.VentaInput{
		Concepto:  req.Concepto,
		Monto:     req.Monto,
		ClienteID: req.ClienteID,
		Cobrar:    req.Cobrar,
		MedioPago: core.MedioPago(strings.ToUpper(strings.TrimSpace(req.MedioPago))),
	})
	if err != nil {
		return nil, err
	}
	s.publish(Event{Type: EventVentaCreated, VentaID: v.ID})
	return v, nil
}

func (s *appService) RegisterPago(ctx context.Context, ventaID int, req PagoRequest) (*core.Pago, error) {
	p, err := s.accounting.RegisterPago(ctx, ventaID, core.PagoInput{
		Monto:     req.Monto,
		MedioPago: core.MedioPago(strings.ToUpper(strings.TrimSpace(req.MedioPago))),
	})
	if err != nil {
		return nil, err
	}
	s.publish(Event{Type: EventPagoCreated, VentaID: ventaID})
	return p, nil
}

func (s *appService) ListPagos(ctx context.Context, req MovimientosRequest) (*PagoListResult, error) {
	f, err := s.movimientoFilter(req)
	if err != nil {
		return nil, err
	}
	pagos, err := s.accounting.ListPagos(ctx, f)
	if err != nil {
		return nil, err
	}
	return &PagoListResult{Pagos: pagos}, nil
}

func (s *appService) CreateFactura(ctx context.Context, ventaID int, tipo string) (*core.Factura, error) {
	return s.accounting.CreateFactura(ctx, ventaID, tipo)
}

// ── WhatsApp ─────────────────────────────────────────────────────────────────

func (s *appService) ListPlantillas(ctx context.Context) (*PlantillaListResult, error) {
	plantillas, err := s.whatsapp.ListPlantillas(ctx)
	if err != nil {
		return nil, err
	}
	return &PlantillaListResult{Plantillas: plantillas}, nil
}

func (s *appService) UpsertPlantilla(ctx context.Context, req PlantillaRequest) (*core.Plantilla, error) {
	return s.whatsapp.UpsertPlantilla(ctx, core.Plantilla{
		Clave:  req.Clave,
		Nombre: req.Nombre,
		Cuerpo: req.Cuerpo,
		Activo: req.Activo,
	})
}

func (s *appService) SeedPlantillas(ctx context.Context) (int, error) {
	return s.whatsapp.SeedDefaults(ctx)
}

func (s *appService) RenderWhatsApp(ctx context.Context, ref, clave string) (*core.WhatsAppMessage, error) {
	order, err := s.resolveOrder(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.whatsapp.MessageForOrder(ctx, order.ID, strings.ToLower(strings.TrimSpace(clave)))
}

func (s *appService) SendWhatsApp(ctx context.Context, ref, clave string) (*core.WhatsAppMessage, error) {
	if s.sender == nil {
		return nil, core.ErrWhatsAppNotConfigured
	}
	msg, err := s.RenderWhatsApp(ctx, ref, clave)
	if err != nil {
		return nil, err
	}
	if err := s.sender.SendText(ctx, msg.Telefono, msg.Texto); err != nil {
		return nil, fmt.Errorf("failed to send whatsapp %q: %w", msg.Clave, err)
	}
	return msg, nil
}

// ── Usuarios ─────────────────────────────────────────────────────────────────

func (s *appService) AuthenticateUser(ctx context.Context, username, password string) (*UserSession, error) {
	u, err := s.users.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("invalid credentials: %w", core.ErrNotFound)
		}
		return nil, err
	}
	return &UserSession{UserID: u.ID, Username: u.Username, Nombre: u.Nombre, Rol: u.Rol}, nil
}

func (s *appService) GetUser(ctx context.Context, userID int) (*UserResult, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return userResult(u), nil
}

func (s *appService) CreateUser(ctx context.Context, req CreateUserRequest) (*UserResult, error) {
	u, err := s.users.CreateUser(ctx, req.Username, req.Nombre, req.Password, req.Rol)
	if err != nil {
		return nil, err
	}
	return userResult(u), nil
}

func userResult(u *core.User) *UserResult {
	return &UserResult{ID: u.ID, Username: u.Username, Nombre: u.Nombre, Rol: u.Rol}
}
