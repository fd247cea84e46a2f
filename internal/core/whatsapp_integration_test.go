package core_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"taller/internal/core"

	"github.com/shopspring/decimal"
)

func TestWhatsAppService_SeedAndRender(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	orders := core.NewOrderService(pool)
	wa := core.NewWhatsAppService(pool, orders, "Taller Centro", time.UTC)

	n, err := wa.SeedDefaults(ctx)
	if err != nil {
		t.Fatalf("SeedDefaults failed: %v", err)
	}
	if n == 0 {
		t.Fatal("Expected default plantillas to be inserted")
	}
	again, err := wa.SeedDefaults(ctx)
	if err != nil || again != 0 {
		t.Errorf("Expected second seed to be a no-op, got %d (%v)", again, err)
	}

	order, err := orders.CreateOrder(ctx, core.NewOrderInput{ClienteID: 1, Equipo: "Notebook"})
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	if _, err := orders.ApplyNovedad(ctx, order.ID, core.NovedadInput{Tipo: core.EstadoPresupuestado, Monto: mustDecimal("12345.5")}); err != nil {
		t.Fatalf("PRESUPUESTADO failed: %v", err)
	}

	msg, err := wa.MessageForOrder(ctx, order.ID, "presupuesto")
	if err != nil {
		t.Fatalf("MessageForOrder failed: %v", err)
	}
	if msg.Telefono != "5491123456789" {
		t.Errorf("Expected normalized phone, got %s", msg.Telefono)
	}
	if !strings.Contains(msg.Texto, "Hola Ana!") || !strings.Contains(msg.Texto, core.FormatMoney(decimal.RequireFromString("12345.5"))) {
		t.Errorf("Unexpected text: %q", msg.Texto)
	}
	if !strings.HasPrefix(msg.Link, "https://wa.me/5491123456789?text=") {
		t.Errorf("Unexpected link: %s", msg.Link)
	}

	// Cliente 2 has no telefono.
	other, _ := orders.CreateOrder(ctx, core.NewOrderInput{ClienteID: 2, Equipo: "Celular"})
	if _, err := wa.MessageForOrder(ctx, other.ID, "ingreso"); !errors.Is(err, core.ErrValidation) {
		t.Errorf("Expected ErrValidation for missing telefono, got %v", err)
	}

	if _, err := wa.MessageForOrder(ctx, order.ID, "inexistente"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown plantilla, got %v", err)
	}

	p, err := wa.UpsertPlantilla(ctx, core.Plantilla{Clave: "presupuesto", Nombre: "Presupuesto", Cuerpo: "Orden {codigo}: {presupuesto}", Activo: false})
	if err != nil {
		t.Fatalf("UpsertPlantilla failed: %v", err)
	}
	if p.Activo {
		t.Error("Expected plantilla to be inactive")
	}
	if _, err := wa.MessageForOrder(ctx, order.ID, "presupuesto"); !errors.Is(err, core.ErrValidation) {
		t.Errorf("Expected ErrValidation for inactive plantilla, got %v", err)
	}
}
