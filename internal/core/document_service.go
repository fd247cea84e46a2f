package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FacturaTipos are the invoice letters the shop may issue.
var FacturaTipos = []string{"A", "B", "C"}

func validFacturaTipo(tipo string) bool {
	for _, t := range FacturaTipos {
		if t == tipo {
			return true
		}
	}
	return false
}

// DocumentService hands out gapless factura numbers per (tipo, año).
type DocumentService interface {
	// NextNumber allocates a number in its own transaction. Use for standalone calls.
	NextNumber(ctx context.Context, tipo string, anio int) (string, error)
	// NextNumberTx allocates a number inside the caller's transaction so a rollback
	// also releases the number.
	NextNumberTx(ctx context.Context, tx pgx.Tx, tipo string, anio int) (string, error)
}

type documentService struct {
	pool *pgxpool.Pool
}

func NewDocumentService(pool *pgxpool.Pool) DocumentService {
	return &documentService{pool: pool}
}

func (s *documentService) NextNumber(ctx context.Context, tipo string, anio int) (string, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	num, err := s.NextNumberTx(ctx, tx, tipo, anio)
	if err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}
	return num, nil
}

func (s *documentService) NextNumberTx(ctx context.Context, tx pgx.Tx, tipo string, anio int) (string, error) {
	if !validFacturaTipo(tipo) {
		return "", fmt.Errorf("%w: unknown factura tipo %q", ErrValidation, tipo)
	}

	// The upsert row lock serializes concurrent allocations for the same key.
	var last int64
	err := tx.QueryRow(ctx, `
		INSERT INTO factura_secuencias (tipo, anio, ultimo_numero)
		VALUES ($1, $2, 1)
		ON CONFLICT (tipo, anio)
		DO UPDATE SET ultimo_numero = factura_secuencias.ultimo_numero + 1
		RETURNING ultimo_numero
	`, tipo, anio).Scan(&last)
	if err != nil {
		return "", fmt.Errorf("failed to generate gapless sequence number: %w", err)
	}
	return FormatFacturaNumero(tipo, anio, last), nil
}

// FormatFacturaNumero renders B-2026-00042.
func FormatFacturaNumero(tipo string, anio int, n int64) string {
	return fmt.Sprintf("%s-%d-%05d", tipo, anio, n)
}
