package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WhatsAppService stores message templates and renders them for orders.
type WhatsAppService interface {
	ListPlantillas(ctx context.Context) ([]Plantilla, error)
	GetPlantilla(ctx context.Context, clave string) (*Plantilla, error)
	UpsertPlantilla(ctx context.Context, p Plantilla) (*Plantilla, error)
	// SeedDefaults inserts the embedded templates when the table is empty.
	SeedDefaults(ctx context.Context) (int, error)
	// MessageForOrder renders the active template clave for an order.
	MessageForOrder(ctx context.Context, orderID int, clave string) (*WhatsAppMessage, error)
}

type whatsAppService struct {
	pool   *pgxpool.Pool
	orders OrderService
	taller string
	loc    *time.Location
}

func NewWhatsAppService(pool *pgxpool.Pool, orders OrderService, taller string, loc *time.Location) WhatsAppService {
	return &whatsAppService{pool: pool, orders: orders, taller: taller, loc: loc}
}

const plantillaColumns = "id, clave, nombre, cuerpo, activo, updated_at"

func scanPlantilla(row pgx.Row) (*Plantilla, error) {
	var p Plantilla
	if err := row.Scan(&p.ID, &p.Clave, &p.Nombre, &p.Cuerpo, &p.Activo, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *whatsAppService) ListPlantillas(ctx context.Context) ([]Plantilla, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+plantillaColumns+" FROM whatsapp_plantillas ORDER BY clave")
	if err != nil {
		return nil, fmt.Errorf("failed to query plantillas: %w", err)
	}
	defer rows.Close()

	out := []Plantilla{}
	for rows.Next() {
		p, err := scanPlantilla(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plantilla: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s *whatsAppService) GetPlantilla(ctx context.Context, clave string) (*Plantilla, error) {
	p, err := scanPlantilla(s.pool.QueryRow(ctx, "SELECT "+plantillaColumns+" FROM whatsapp_plantillas WHERE clave = $1", clave))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("plantilla %q: %w", clave, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch plantilla %q: %w", clave, err)
	}
	return p, nil
}

func (s *whatsAppService) UpsertPlantilla(ctx context.Context, in Plantilla) (*Plantilla, error) {
	in.Clave = strings.ToLower(strings.TrimSpace(in.Clave))
	in.Nombre = strings.TrimSpace(in.Nombre)
	if in.Clave == "" || strings.TrimSpace(in.Cuerpo) == "" {
		return nil, fmt.Errorf("%w: clave and cuerpo are required", ErrValidation)
	}
	if in.Nombre == "" {
		in.Nombre = in.Clave
	}
	p, err := scanPlantilla(s.pool.QueryRow(ctx, `
		INSERT INTO whatsapp_plantillas (clave, nombre, cuerpo, activo)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (clave) DO UPDATE
		  SET nombre = EXCLUDED.nombre,
		      cuerpo = EXCLUDED.cuerpo,
		      activo = EXCLUDED.activo,
		      updated_at = now()
		RETURNING `+plantillaColumns,
		in.Clave, in.Nombre, in.Cuerpo, in.Activo,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert plantilla %q: %w", in.Clave, err)
	}
	return p, nil
}

func (s *whatsAppService) SeedDefaults(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM whatsapp_plantillas").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count plantillas: %w", err)
	}
	if count > 0 {
		return 0, nil
	}
	defaults, err := DefaultPlantillas()
	if err != nil {
		return 0, err
	}
	for _, p := range defaults {
		if _, err := s.UpsertPlantilla(ctx, p); err != nil {
			return 0, err
		}
	}
	return len(defaults), nil
}

func (s *whatsAppService) MessageForOrder(ctx context.Context, orderID int, clave string) (*WhatsAppMessage, error) {
	p, err := s.GetPlantilla(ctx, clave)
	if err != nil {
		return nil, err
	}
	if !p.Activo {
		return nil, fmt.Errorf("%w: plantilla %q is inactive", ErrValidation, clave)
	}
	o, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	phone := NormalizePhone(o.ClienteTelefono)
	if phone == "" {
		return nil, fmt.Errorf("%w: cliente of %s has no valid telefono", ErrValidation, o.Codigo)
	}
	text := RenderPlantilla(p.Cuerpo, VarsForOrder(o, s.taller, s.loc))
	return &WhatsAppMessage{
		Clave:    p.Clave,
		Telefono: phone,
		Texto:    text,
		Link:     WhatsAppLink(phone, text),
	}, nil
}
