package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// VentaInput records a counter sale that is not tied to a reparacion.
// When Cobrar is set the full amount is paid at once with MedioPago.
type VentaInput struct {
	Concepto  string
	Monto     decimal.Decimal
	ClienteID *int
	Cobrar    bool
	MedioPago MedioPago
}

type PagoInput struct {
	Monto     decimal.Decimal
	MedioPago MedioPago
}

// MovimientoFilter narrows venta and pago listings. Zero times are unbounded;
// Hasta is inclusive by day.
type MovimientoFilter struct {
	Desde        time.Time
	Hasta        time.Time
	ReparacionID int
	Limit        int
}

// AccountingService aggregates ventas and pagos and issues facturas.
type AccountingService interface {
	// Summary buckets ventas and pagos by day, week or month in the shop timezone.
	Summary(ctx context.Context, q SummaryQuery) (*Summary, error)

	ListVentas(ctx context.Context, f MovimientoFilter) ([]Venta, error)
	GetVenta(ctx context.Context, id int) (*Venta, error)
	CreateVenta(ctx context.Context, in VentaInput) (*Venta, error)
	// RegisterPago adds a payment against a venta. Payments may not exceed the saldo.
	RegisterPago(ctx context.Context, ventaID int, in PagoInput) (*Pago, error)
	ListPagos(ctx context.Context, f MovimientoFilter) ([]Pago, error)

	// CreateFactura issues the single factura a venta may have.
	CreateFactura(ctx context.Context, ventaID int, tipo string) (*Factura, error)

	Location() *time.Location
}

type accountingService struct {
	pool       *pgxpool.Pool
	docService DocumentService
	loc        *time.Location
	now        func() time.Time
}

func NewAccountingService(pool *pgxpool.Pool, docService DocumentService, loc *time.Location) AccountingService {
	if loc == nil {
		loc = time.UTC
	}
	return &accountingService{pool: pool, docService: docService, loc: loc, now: time.Now}
}

func (s *accountingService) Location() *time.Location { return s.loc }

// ── Shared writers ───────────────────────────────────────────────────────────

type ventaRow struct {
	ReparacionID *int
	ClienteID    *int
	NovedadID    *int
	Concepto     string
	Monto        decimal.Decimal
}

func insertVenta(ctx context.Context, q pgxQuerier, v ventaRow) (int, error) {
	var id int
	err := q.QueryRow(ctx, `
		INSERT INTO ventas (reparacion_id, cliente_id, novedad_id, concepto, monto)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, v.ReparacionID, v.ClienteID, v.NovedadID, v.Concepto, v.Monto).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert venta: %w", err)
	}
	return id, nil
}

func insertPago(ctx context.Context, q pgxQuerier, ventaID int, reparacionID *int, monto decimal.Decimal, medio MedioPago) error {
	_, err := q.Exec(ctx, `
		INSERT INTO pagos (venta_id, reparacion_id, monto, medio_pago)
		VALUES ($1, $2, $3, $4)
	`, ventaID, reparacionID, monto, medio)
	if err != nil {
		return fmt.Errorf("failed to insert pago: %w", err)
	}
	return nil
}

// ── Summary ──────────────────────────────────────────────────────────────────

func (s *accountingService) Summary(ctx context.Context, q SummaryQuery) (*Summary, error) {
	if err := q.Validate(s.loc); err != nil {
		return nil, err
	}
	from, to := q.Range(s.loc)

	ventas, err := s.ListVentas(ctx, MovimientoFilter{Desde: from, Hasta: to.AddDate(0, 0, -1)})
	if err != nil {
		return nil, err
	}
	pagos, err := s.ListPagos(ctx, MovimientoFilter{Desde: from, Hasta: to.AddDate(0, 0, -1)})
	if err != nil {
		return nil, err
	}
	return BuildSummary(q, ventas, pagos, s.loc)
}

// movimientoWhere renders the date and reparacion conditions shared by ventas and pagos.
func (s *accountingService) movimientoWhere(f MovimientoFilter, alias string) (string, []any) {
	var where []string
	var args []any
	if !f.Desde.IsZero() {
		args = append(args, BucketStart(f.Desde, BucketDia, s.loc))
		where = append(where, fmt.Sprintf("%s.fecha >= $%d", alias, len(args)))
	}
	if !f.Hasta.IsZero() {
		args = append(args, BucketStart(f.Hasta, BucketDia, s.loc).AddDate(0, 0, 1))
		where = append(where, fmt.Sprintf("%s.fecha < $%d", alias, len(args)))
	}
	if f.ReparacionID > 0 {
		args = append(args, f.ReparacionID)
		where = append(where, fmt.Sprintf("%s.reparacion_id = $%d", alias, len(args)))
	}
	if len(where) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

const ventaSelect = `
	SELECT v.id, v.reparacion_id, v.cliente_id, v.novedad_id, v.fecha, v.concepto, v.monto,
	       COALESCE((SELECT SUM(p.monto) FROM pagos p WHERE p.venta_id = v.id), 0),
	       v.created_at
	FROM ventas v`

func scanVenta(row pgx.Row) (*Venta, error) {
	var v Venta
	if err := row.Scan(&v.ID, &v.ReparacionID, &v.ClienteID, &v.NovedadID, &v.Fecha, &v.Concepto, &v.Monto, &v.Cobrado, &v.CreatedAt); err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *accountingService) ListVentas(ctx context.Context, f MovimientoFilter) ([]Venta, error) {
	where, args := s.movimientoWhere(f, "v")
	sql := ventaSelect + where + " ORDER BY v.fecha, v.id"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		sql += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ventas: %w", err)
	}
	defer rows.Close()

	out := []Venta{}
	for rows.Next() {
		v, err := scanVenta(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan venta: %w", err)
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

func (s *accountingService) GetVenta(ctx context.Context, id int) (*Venta, error) {
	v, err := scanVenta(s.pool.QueryRow(ctx, ventaSelect+" WHERE v.id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("venta %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch venta %d: %w", id, err)
	}
	return v, nil
}

func (s *accountingService) CreateVenta(ctx context.Context, in VentaInput) (*Venta, error) {
	in.Concepto = strings.TrimSpace(in.Concepto)
	if in.Concepto == "" {
		return nil, fmt.Errorf("%w: concepto is required", ErrValidation)
	}
	if !in.Monto.IsPositive() {
		return nil, fmt.Errorf("%w: monto must be > 0", ErrValidation)
	}
	medio, err := resolveMedioPago(in.MedioPago)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	id, err := insertVenta(ctx, tx, ventaRow{ClienteID: in.ClienteID, Concepto: in.Concepto, Monto: in.Monto})
	if err != nil {
		return nil, err
	}
	if in.Cobrar {
		if err := insertPago(ctx, tx, id, nil, in.Monto, medio); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit venta: %w", err)
	}
	return s.GetVenta(ctx, id)
}

func (s *accountingService) RegisterPago(ctx context.Context, ventaID int, in PagoInput) (*Pago, error) {
	if !in.Monto.IsPositive() {
		return nil, fmt.Errorf("%w: monto must be > 0", ErrValidation)
	}
	medio, err := resolveMedioPago(in.MedioPago)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var monto decimal.Decimal
	var reparacionID *int
	err = tx.QueryRow(ctx, "SELECT monto, reparacion_id FROM ventas WHERE id = $1 FOR UPDATE", ventaID).Scan(&monto, &reparacionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("venta %d: %w", ventaID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock venta %d: %w", ventaID, err)
	}
	var cobrado decimal.Decimal
	if err := tx.QueryRow(ctx, "SELECT COALESCE(SUM(monto), 0) FROM pagos WHERE venta_id = $1", ventaID).Scan(&cobrado); err != nil {
		return nil, fmt.Errorf("failed to sum pagos for venta %d: %w", ventaID, err)
	}
	saldo := monto.Sub(cobrado)
	if in.Monto.GreaterThan(saldo) {
		return nil, fmt.Errorf("%w: pago %s exceeds saldo %s of venta %d", ErrValidation, in.Monto.StringFixed(2), saldo.StringFixed(2), ventaID)
	}

	var p Pago
	err = tx.QueryRow(ctx, `
		INSERT INTO pagos (venta_id, reparacion_id, monto, medio_pago)
		VALUES ($1, $2, $3, $4)
		RETURNING id, venta_id, reparacion_id, fecha, monto, medio_pago, created_at
	`, ventaID, reparacionID, in.Monto, medio).Scan(&p.ID, &p.VentaID, &p.ReparacionID, &p.Fecha, &p.Monto, &p.MedioPago, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert pago: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit pago: %w", err)
	}
	return &p, nil
}

func (s *accountingService) ListPagos(ctx context.Context, f MovimientoFilter) ([]Pago, error) {
	where, args := s.movimientoWhere(f, "p")
	sql := `SELECT p.id, p.venta_id, p.reparacion_id, p.fecha, p.monto, p.medio_pago, p.created_at FROM pagos p` +
		where + " ORDER BY p.fecha, p.id"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		sql += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pagos: %w", err)
	}
	defer rows.Close()

	out := []Pago{}
	for rows.Next() {
		var p Pago
		if err := rows.Scan(&p.ID, &p.VentaID, &p.ReparacionID, &p.Fecha, &p.Monto, &p.MedioPago, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pago: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ── Facturas ─────────────────────────────────────────────────────────────────

func (s *accountingService) CreateFactura(ctx context.Context, ventaID int, tipo string) (*Factura, error) {
	tipo = strings.ToUpper(strings.TrimSpace(tipo))
	if tipo == "" {
		tipo = "B"
	}
	if !validFacturaTipo(tipo) {
		return nil, fmt.Errorf("%w: unknown factura tipo %q", ErrValidation, tipo)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var monto decimal.Decimal
	var clienteID *int
	err = tx.QueryRow(ctx, "SELECT monto, cliente_id FROM ventas WHERE id = $1 FOR UPDATE", ventaID).Scan(&monto, &clienteID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("venta %d: %w", ventaID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock venta %d: %w", ventaID, err)
	}

	var existing string
	err = tx.QueryRow(ctx, "SELECT numero FROM facturas WHERE venta_id = $1", ventaID).Scan(&existing)
	if err == nil {
		return nil, fmt.Errorf("%w: venta %d already has factura %s", ErrValidation, ventaID, existing)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to check factura for venta %d: %w", ventaID, err)
	}

	anio := s.now().In(s.loc).Year()
	numero, err := s.docService.NextNumberTx(ctx, tx, tipo, anio)
	if err != nil {
		return nil, err
	}

	var f Factura
	err = tx.QueryRow(ctx, `
		INSERT INTO facturas (venta_id, tipo, numero, total, cliente_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, venta_id, tipo, numero, fecha, total, cliente_id, created_at
	`, ventaID, tipo, numero, monto, clienteID).Scan(&f.ID, &f.VentaID, &f.Tipo, &f.Numero, &f.Fecha, &f.Total, &f.ClienteID, &f.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert factura: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit factura: %w", err)
	}
	return &f, nil
}
