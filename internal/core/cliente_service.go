package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ClienteService manages the customer directory.
type ClienteService interface {
	CreateCliente(ctx context.Context, in ClienteInput) (*Cliente, error)
	UpdateCliente(ctx context.Context, id int, in ClienteInput) (*Cliente, error)
	GetCliente(ctx context.Context, id int) (*Cliente, error)
	// ListClientes searches nombre, apellido, telefono and dni. An empty query lists everyone.
	ListClientes(ctx context.Context, query string, limit int) ([]Cliente, error)
	// ClienteHistory returns the cliente's reparaciones, newest first.
	ClienteHistory(ctx context.Context, id int) ([]Reparacion, error)
}

type clienteService struct {
	pool *pgxpool.Pool
}

func NewClienteService(pool *pgxpool.Pool) ClienteService {
	return &clienteService{pool: pool}
}

const clienteColumns = `id, nombre, apellido, telefono, email, dni, direccion, notas, created_at`

func scanCliente(row pgx.Row) (*Cliente, error) {
	var c Cliente
	if err := row.Scan(&c.ID, &c.Nombre, &c.Apellido, &c.Telefono, &c.Email, &c.DNI, &c.Direccion, &c.Notas, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// normalizeCliente trims every field and keeps only digits in telefono.
func normalizeCliente(in ClienteInput) (ClienteInput, error) {
	in.Nombre = strings.TrimSpace(in.Nombre)
	in.Apellido = strings.TrimSpace(in.Apellido)
	in.Telefono = digitsOnly(in.Telefono)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.DNI = digitsOnly(in.DNI)
	in.Direccion = strings.TrimSpace(in.Direccion)
	in.Notas = strings.TrimSpace(in.Notas)
	if in.Nombre == "" {
		return in, fmt.Errorf("%w: nombre is required", ErrValidation)
	}
	return in, nil
}

func digitsOnly(raw string) string {
	var b strings.Builder
	for _, ch := range raw {
		if ch >= '0' && ch <= '9' {
			b.WriteRune(ch)
		}
	}
	return b.String()
}

func (s *clienteService) CreateCliente(ctx context.Context, in ClienteInput) (*Cliente, error) {
	in, err := normalizeCliente(in)
	if err != nil {
		return nil, err
	}
	c, err := scanCliente(s.pool.QueryRow(ctx, `
		INSERT INTO clientes (nombre, apellido, telefono, email, dni, direccion, notas)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+clienteColumns,
		in.Nombre, in.Apellido, in.Telefono, in.Email, in.DNI, in.Direccion, in.Notas,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create cliente: %w", err)
	}
	return c, nil
}

func (s *clienteService) UpdateCliente(ctx context.Context, id int, in ClienteInput) (*Cliente, error) {
	in, err := normalizeCliente(in)
	if err != nil {
		return nil, err
	}
	c, err := scanCliente(s.pool.QueryRow(ctx, `
		UPDATE clientes
		SET nombre = $2, apellido = $3, telefono = $4, email = $5, dni = $6, direccion = $7, notas = $8
		WHERE id = $1
		RETURNING `+clienteColumns,
		id, in.Nombre, in.Apellido, in.Telefono, in.Email, in.DNI, in.Direccion, in.Notas,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("cliente %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update cliente %d: %w", id, err)
	}
	return c, nil
}

func (s *clienteService) GetCliente(ctx context.Context, id int) (*Cliente, error) {
	c, err := scanCliente(s.pool.QueryRow(ctx, "SELECT "+clienteColumns+" FROM clientes WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("cliente %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch cliente %d: %w", id, err)
	}
	return c, nil
}

func (s *clienteService) ListClientes(ctx context.Context, query string, limit int) ([]Cliente, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	sql := "SELECT " + clienteColumns + " FROM clientes"
	args := []any{}
	if q := strings.TrimSpace(query); q != "" {
		args = append(args, "%"+q+"%")
		sql += " WHERE ((nombre || ' ' || apellido) ILIKE $1"
		// telefono and dni are stored as digits only.
		if d := digitsOnly(q); d != "" {
			args = append(args, "%"+d+"%")
			sql += " OR telefono LIKE $2 OR dni LIKE $2"
		}
		sql += ")"
	}
	args = append(args, limit)
	sql += fmt.Sprintf(" ORDER BY apellido, nombre, id LIMIT $%d", len(args))

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query clientes: %w", err)
	}
	defer rows.Close()

	out := []Cliente{}
	for rows.Next() {
		c, err := scanCliente(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cliente: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (s *clienteService) ClienteHistory(ctx context.Context, id int) ([]Reparacion, error) {
	if _, err := s.GetCliente(ctx, id); err != nil {
		return nil, err
	}
	return queryReparaciones(ctx, s.pool,
		"SELECT "+reparacionColumns+reparacionFrom+" WHERE r.cliente_id = $1 ORDER BY r.fecha_ingreso DESC, r.id DESC", id)
}
