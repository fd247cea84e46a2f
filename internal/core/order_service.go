package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// OrderService manages the reparacion lifecycle. Every estado change goes through
// ApplyNovedad, which writes the audit row and derived fields in one transaction.
type OrderService interface {
	// CreateOrder records intake: the order in INGRESO, its INGRESO novedad and the seña if any.
	CreateOrder(ctx context.Context, in NewOrderInput) (*Reparacion, error)
	// ApplyNovedad moves an order to in.Tipo. Returns ErrInvalidTransition when the
	// current estado does not allow it.
	ApplyNovedad(ctx context.Context, orderID int, in NovedadInput) (*Reparacion, error)
	UpdateOrderDetails(ctx context.Context, orderID int, in OrderDetailsInput) (*Reparacion, error)

	GetOrder(ctx context.Context, orderID int) (*Reparacion, error)
	GetOrderByCodigo(ctx context.Context, codigo string) (*Reparacion, error)
	ListOrders(ctx context.Context, f OrderFilter) ([]Reparacion, error)
	ListNovedades(ctx context.Context, orderID int) ([]Novedad, error)
	// Kanban builds the board straight from the database.
	Kanban(ctx context.Context) (Board, error)
}

type orderService struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewOrderService(pool *pgxpool.Pool) OrderService {
	return &orderService{pool: pool, now: time.Now}
}

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx, enabling shared query helpers.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const reparacionColumns = `
	r.id, r.codigo, r.cliente_id, TRIM(c.nombre || ' ' || c.apellido), c.telefono,
	r.estado, r.equipo, r.marca, r.modelo, r.numero_serie, r.falla, r.accesorios, r.observaciones,
	r.presupuesto, r.precio_final, r.sena, r.reingresos,
	r.fecha_ingreso, r.fecha_presupuesto, r.fecha_respuesta, r.fecha_reparado, r.fecha_retiro,
	r.created_at, r.updated_at`

const reparacionFrom = `
	FROM reparaciones r
	JOIN clientes c ON c.id = r.cliente_id`

func scanReparacion(row pgx.Row) (*Reparacion, error) {
	var o Reparacion
	err := row.Scan(
		&o.ID, &o.Codigo, &o.ClienteID, &o.ClienteNombre, &o.ClienteTelefono,
		&o.Estado, &o.Equipo, &o.Marca, &o.Modelo, &o.NumeroSerie, &o.Falla, &o.Accesorios, &o.Observaciones,
		&o.Presupuesto, &o.PrecioFinal, &o.Sena, &o.Reingresos,
		&o.FechaIngreso, &o.FechaPresupuesto, &o.FechaRespuesta, &o.FechaReparado, &o.FechaRetiro,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

const maxCodigoAttempts = 5

// codigoGenerator is swapped in tests.
var codigoGenerator = newCodigo

// newCodigo returns a short public order code such as R-7F3A2C.
func newCodigo() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "R-" + strings.ToUpper(id[:6])
}

func nullIfZero(d decimal.Decimal) *decimal.Decimal {
	if d.IsZero() {
		return nil
	}
	return &d
}

func medioOrNil(p *PagoPlan) *MedioPago {
	if p == nil {
		return nil
	}
	m := p.MedioPago
	return &m
}

// ── Order Lifecycle ──────────────────────────────────────────────────────────

func (s *orderService) CreateOrder(ctx context.Context, in NewOrderInput) (*Reparacion, error) {
	in.Equipo = strings.TrimSpace(in.Equipo)
	if in.Equipo == "" {
		return nil, fmt.Errorf("%w: equipo is required", ErrValidation)
	}
	if _, _, err := PlanIntake("", in.Sena, in.MedioPago); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM clientes WHERE id = $1)", in.ClienteID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to resolve cliente: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("cliente %d: %w", in.ClienteID, ErrNotFound)
	}

	orderID, codigo, err := insertReparacion(ctx, tx, in)
	if err != nil {
		return nil, err
	}
	ventaPlan, pagoPlan, err := PlanIntake(codigo, in.Sena, in.MedioPago)
	if err != nil {
		return nil, err
	}

	var novedadID int
	err = tx.QueryRow(ctx, `
		INSERT INTO novedades (reparacion_id, tipo, estado_anterior, monto, medio_pago, observacion, usuario)
		VALUES ($1, 'INGRESO', NULL, $2, $3, $4, $5)
		RETURNING id
	`, orderID, nullIfZero(in.Sena), medioOrNil(pagoPlan), in.Observaciones, in.Usuario).Scan(&novedadID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert INGRESO novedad: %w", err)
	}

	if ventaPlan != nil {
		clienteID := in.ClienteID
		ventaID, err := insertVenta(ctx, tx, ventaRow{
			ReparacionID: &orderID,
			ClienteID:    &clienteID,
			NovedadID:    &novedadID,
			Concepto:     ventaPlan.Concepto,
			Monto:        ventaPlan.Monto,
		})
		if err != nil {
			return nil, err
		}
		if err := insertPago(ctx, tx, ventaID, &orderID, pagoPlan.Monto, pagoPlan.MedioPago); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order creation: %w", err)
	}

	return s.GetOrder(ctx, orderID)
}

// insertReparacion inserts the order under a fresh codigo, drawing a new one
// when the generated codigo is already taken.
func insertReparacion(ctx context.Context, q pgxQuerier, in NewOrderInput) (int, string, error) {
	for attempt := 0; attempt < maxCodigoAttempts; attempt++ {
		codigo := codigoGenerator()
		var id int
		err := q.QueryRow(ctx, `
			INSERT INTO reparaciones (codigo, cliente_id, estado, equipo, marca, modelo, numero_serie, falla, accesorios, observaciones, sena)
			VALUES ($1, $2, 'INGRESO', $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (codigo) DO NOTHING
			RETURNING id
		`, codigo, in.ClienteID, in.Equipo, in.Marca, in.Modelo, in.NumeroSerie, in.Falla, in.Accesorios, in.Observaciones, in.Sena).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return 0, "", fmt.Errorf("failed to insert reparacion: %w", err)
		}
		return id, codigo, nil
	}
	return 0, "", fmt.Errorf("failed to insert reparacion: no free codigo after %d attempts", maxCodigoAttempts)
}

func (s *orderService) ApplyNovedad(ctx context.Context, orderID int, in NovedadInput) (*Reparacion, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock the order so concurrent novedades serialize on it.
	var cur OrderState
	var clienteID int
	err = tx.QueryRow(ctx, `
		SELECT codigo, equipo, estado, presupuesto, precio_final, cliente_id
		FROM reparaciones
		WHERE id = $1
		FOR UPDATE
	`, orderID).Scan(&cur.Codigo, &cur.Equipo, &cur.Estado, &cur.Presupuesto, &cur.PrecioFinal, &clienteID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("reparacion %d: %w", orderID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch reparacion %d: %w", orderID, err)
	}
	if cur.Facturado, err = facturadoEnCiclo(ctx, tx, orderID); err != nil {
		return nil, err
	}

	plan, err := PlanTransition(cur, in)
	if err != nil {
		return nil, fmt.Errorf("reparacion %s: %w", cur.Codigo, err)
	}

	var medio *MedioPago
	if plan.Pago != nil {
		medio = &plan.Pago.MedioPago
	} else if in.MedioPago != "" {
		medio = &in.MedioPago
	}

	var novedadID int
	err = tx.QueryRow(ctx, `
		INSERT INTO novedades (reparacion_id, tipo, estado_anterior, monto, medio_pago, observacion, usuario)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, orderID, plan.To, plan.From, in.Monto, medio, in.Observacion, in.Usuario).Scan(&novedadID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert %s novedad: %w", plan.To, err)
	}

	sql, args := buildTransitionUpdate(orderID, plan)
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return nil, fmt.Errorf("failed to update reparacion %d: %w", orderID, err)
	}

	if plan.Venta != nil {
		ventaID, err := insertVenta(ctx, tx, ventaRow{
			ReparacionID: &orderID,
			ClienteID:    &clienteID,
			NovedadID:    &novedadID,
			Concepto:     plan.Venta.Concepto,
			Monto:        plan.Venta.Monto,
		})
		if err != nil {
			return nil, err
		}
		if plan.Pago != nil {
			if err := insertPago(ctx, tx, ventaID, &orderID, plan.Pago.Monto, plan.Pago.MedioPago); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit %s: %w", plan.To, err)
	}

	return s.GetOrder(ctx, orderID)
}

// facturadoEnCiclo sums the ventas booked for an order since its last REINGRESO
// novedad, or since intake when there is none.
func facturadoEnCiclo(ctx context.Context, q pgxQuerier, orderID int) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := q.QueryRow(ctx, `
		WITH ciclo AS (
			SELECT COALESCE(MAX(id), 0) AS desde
			FROM novedades
			WHERE reparacion_id = $1 AND tipo = 'REINGRESO'
		)
		SELECT COALESCE(SUM(v.monto), 0)
		FROM ventas v, ciclo
		WHERE v.reparacion_id = $1
		  AND (v.novedad_id > ciclo.desde OR (ciclo.desde = 0 AND v.novedad_id IS NULL))
	`, orderID).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum ventas for reparacion %d: %w", orderID, err)
	}
	return total, nil
}

// buildTransitionUpdate renders the UPDATE for a plan. Only columns the plan touches are set.
func buildTransitionUpdate(orderID int, p *TransitionPlan) (string, []any) {
	sets := []string{"estado = $2", "updated_at = now()"}
	args := []any{orderID, p.To}

	if p.SetPresupuesto != nil {
		args = append(args, *p.SetPresupuesto)
		sets = append(sets, fmt.Sprintf("presupuesto = $%d", len(args)))
	}
	if p.SetPrecioFinal != nil {
		args = append(args, *p.SetPrecioFinal)
		sets = append(sets, fmt.Sprintf("precio_final = $%d", len(args)))
	}
	if p.StampPresupuesto {
		sets = append(sets, "fecha_presupuesto = now()")
	}
	if p.StampRespuesta {
		sets = append(sets, "fecha_respuesta = now()")
	}
	if p.StampReparado {
		sets = append(sets, "fecha_reparado = now()")
	}
	if p.StampRetiro {
		sets = append(sets, "fecha_retiro = now()")
	}
	if p.Reingreso {
		sets = append(sets, "reingresos = reingresos + 1",
			"presupuesto = NULL", "precio_final = NULL",
			"fecha_reparado = NULL", "fecha_retiro = NULL")
	}

	return "UPDATE reparaciones SET " + strings.Join(sets, ", ") + " WHERE id = $1", args
}

func (s *orderService) UpdateOrderDetails(ctx context.Context, orderID int, in OrderDetailsInput) (*Reparacion, error) {
	var sets []string
	args := []any{orderID}
	add := func(col string, v *string) {
		if v == nil {
			return
		}
		args = append(args, strings.TrimSpace(*v))
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if in.Equipo != nil && strings.TrimSpace(*in.Equipo) == "" {
		return nil, fmt.Errorf("%w: equipo must not be empty", ErrValidation)
	}
	add("equipo", in.Equipo)
	add("marca", in.Marca)
	add("modelo", in.Modelo)
	add("numero_serie", in.NumeroSerie)
	add("falla", in.Falla)
	add("accesorios", in.Accesorios)
	add("observaciones", in.Observaciones)

	if len(sets) == 0 {
		return s.GetOrder(ctx, orderID)
	}
	sets = append(sets, "updated_at = now()")

	tag, err := s.pool.Exec(ctx, "UPDATE reparaciones SET "+strings.Join(sets, ", ")+" WHERE id = $1", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update reparacion %d: %w", orderID, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("reparacion %d: %w", orderID, ErrNotFound)
	}
	return s.GetOrder(ctx, orderID)
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *orderService) GetOrder(ctx context.Context, orderID int) (*Reparacion, error) {
	o, err := scanReparacion(s.pool.QueryRow(ctx, "SELECT "+reparacionColumns+reparacionFrom+" WHERE r.id = $1", orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("reparacion %d: %w", orderID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch reparacion %d: %w", orderID, err)
	}
	return o, nil
}

func (s *orderService) GetOrderByCodigo(ctx context.Context, codigo string) (*Reparacion, error) {
	codigo = strings.ToUpper(strings.TrimSpace(codigo))
	o, err := scanReparacion(s.pool.QueryRow(ctx, "SELECT "+reparacionColumns+reparacionFrom+" WHERE r.codigo = $1", codigo))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("reparacion %s: %w", codigo, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch reparacion %s: %w", codigo, err)
	}
	return o, nil
}

func (s *orderService) ListOrders(ctx context.Context, f OrderFilter) ([]Reparacion, error) {
	var where []string
	var args []any

	if f.Estado != "" {
		if !f.Estado.Valid() {
			return nil, fmt.Errorf("%w: unknown estado %q", ErrValidation, f.Estado)
		}
		args = append(args, f.Estado)
		where = append(where, fmt.Sprintf("r.estado = $%d", len(args)))
	} else if !f.IncludeClosed {
		where = append(where, "r.estado NOT IN ('RETIRA', 'ARCHIVADO')")
	}
	if f.ClienteID > 0 {
		args = append(args, f.ClienteID)
		where = append(where, fmt.Sprintf("r.cliente_id = $%d", len(args)))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		args = append(args, "%"+q+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(r.codigo ILIKE $%d OR r.equipo ILIKE $%d OR r.marca ILIKE $%d OR r.modelo ILIKE $%d OR r.numero_serie ILIKE $%d)", n, n, n, n, n))
	}

	sql := "SELECT " + reparacionColumns + reparacionFrom
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	sql += " ORDER BY r.fecha_ingreso DESC, r.id DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		sql += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	return queryReparaciones(ctx, s.pool, sql, args...)
}

func queryReparaciones(ctx context.Context, q pgxQuerier, sql string, args ...any) ([]Reparacion, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reparaciones: %w", err)
	}
	defer rows.Close()

	out := []Reparacion{}
	for rows.Next() {
		o, err := scanReparacion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reparacion: %w", err)
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reparaciones: %w", err)
	}
	return out, nil
}

func (s *orderService) ListNovedades(ctx context.Context, orderID int) ([]Novedad, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, reparacion_id, tipo, estado_anterior, monto, medio_pago, observacion, usuario, created_at
		FROM novedades
		WHERE reparacion_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query novedades: %w", err)
	}
	defer rows.Close()

	out := []Novedad{}
	for rows.Next() {
		var n Novedad
		if err := rows.Scan(&n.ID, &n.ReparacionID, &n.Tipo, &n.EstadoAnterior, &n.Monto, &n.MedioPago,
			&n.Observacion, &n.Usuario, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan novedad: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *orderService) Kanban(ctx context.Context) (Board, error) {
	orders, err := s.ListOrders(ctx, OrderFilter{})
	if err != nil {
		return Board{}, err
	}
	orden, err := s.estadosOrden(ctx)
	if err != nil {
		return Board{}, err
	}
	return BuildKanbanOrdered(orders, s.now(), orden), nil
}

func (s *orderService) estadosOrden(ctx context.Context) (map[Estado]int, error) {
	rows, err := s.pool.Query(ctx, "SELECT code, orden FROM estados")
	if err != nil {
		return nil, fmt.Errorf("failed to query estados: %w", err)
	}
	defer rows.Close()

	orden := make(map[Estado]int)
	for rows.Next() {
		var e Estado
		var n int
		if err := rows.Scan(&e, &n); err != nil {
			return nil, fmt.Errorf("failed to scan estado: %w", err)
		}
		orden[e] = n
	}
	return orden, rows.Err()
}
