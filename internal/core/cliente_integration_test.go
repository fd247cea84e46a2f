package core_test

import (
	"context"
	"errors"
	"testing"

	"taller/internal/core"
)

func TestClienteService_CRUDAndHistory(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	clientes := core.NewClienteService(pool)
	orders := core.NewOrderService(pool)

	c, err := clientes.CreateCliente(ctx, core.ClienteInput{Nombre: " Carla ", Apellido: "Gómez", Telefono: "(011) 15-4444-5555", DNI: "30.123.456"})
	if err != nil {
		t.Fatalf("CreateCliente failed: %v", err)
	}
	if c.Nombre != "Carla" || c.Telefono != "01115444455555" || c.DNI != "30123456" {
		t.Errorf("Expected normalized cliente, got %+v", c)
	}

	if _, err := clientes.CreateCliente(ctx, core.ClienteInput{Apellido: "Sin nombre"}); !errors.Is(err, core.ErrValidation) {
		t.Errorf("Expected ErrValidation, got %v", err)
	}

	updated, err := clientes.UpdateCliente(ctx, c.ID, core.ClienteInput{Nombre: "Carla", Apellido: "Gómez", Email: "carla@example.com"})
	if err != nil || updated.Email != "carla@example.com" {
		t.Fatalf("UpdateCliente failed: %v", err)
	}

	found, err := clientes.ListClientes(ctx, "gómez", 10)
	if err != nil || len(found) != 1 {
		t.Errorf("Expected 1 match, got %d (%v)", len(found), err)
	}

	for _, q := range []string{"11-2345-6789", "(11) 2345 6789", "23456789"} {
		found, err = clientes.ListClientes(ctx, q, 10)
		if err != nil || len(found) != 1 || found[0].Nombre != "Ana" {
			t.Errorf("Expected Ana for phone query %q, got %+v (%v)", q, found, err)
		}
	}

	if _, err := orders.CreateOrder(ctx, core.NewOrderInput{ClienteID: c.ID, Equipo: "Celular"}); err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	history, err := clientes.ClienteHistory(ctx, c.ID)
	if err != nil || len(history) != 1 {
		t.Errorf("Expected 1 order in history, got %d (%v)", len(history), err)
	}

	if _, err := clientes.GetCliente(ctx, 9999); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
