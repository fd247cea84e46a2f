package core_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"taller/internal/core"

	"github.com/shopspring/decimal"
)

func newAccounting(t *testing.T) (core.AccountingService, core.OrderService) {
	t.Helper()
	pool := setupTestDB(t)
	loc, _ := time.LoadLocation("America/Argentina/Buenos_Aires")
	return core.NewAccountingService(pool, core.NewDocumentService(pool), loc), core.NewOrderService(pool)
}

func TestAccounting_CounterSaleAndPagos(t *testing.T) {
	acc, _ := newAccounting(t)
	ctx := context.Background()

	venta, err := acc.CreateVenta(ctx, core.VentaInput{Concepto: "Cargador USB-C", Monto: decimal.NewFromInt(9000)})
	if err != nil {
		t.Fatalf("CreateVenta failed: %v", err)
	}
	if !venta.Cobrado.IsZero() {
		t.Errorf("Expected nothing cobrado yet, got %s", venta.Cobrado)
	}

	if _, err := acc.RegisterPago(ctx, venta.ID, core.PagoInput{Monto: decimal.NewFromInt(4000), MedioPago: core.MedioMercadoPago}); err != nil {
		t.Fatalf("RegisterPago failed: %v", err)
	}

	_, err = acc.RegisterPago(ctx, venta.ID, core.PagoInput{Monto: decimal.NewFromInt(6000)})
	if !errors.Is(err, core.ErrValidation) {
		t.Errorf("Expected ErrValidation for overpayment, got %v", err)
	}

	got, err := acc.GetVenta(ctx, venta.ID)
	if err != nil {
		t.Fatalf("GetVenta failed: %v", err)
	}
	if !got.Saldo().Equal(decimal.NewFromInt(5000)) {
		t.Errorf("Expected saldo 5000, got %s", got.Saldo())
	}

	if _, err := acc.RegisterPago(ctx, 9999, core.PagoInput{Monto: decimal.NewFromInt(1)}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestAccounting_SummaryIncludesRepairs(t *testing.T) {
	acc, orders := newAccounting(t)
	ctx := context.Background()

	order, err := orders.CreateOrder(ctx, core.NewOrderInput{ClienteID: 1, Equipo: "Notebook", Sena: decimal.NewFromInt(1000)})
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	if _, err := acc.CreateVenta(ctx, core.VentaInput{Concepto: "Mouse", Monto: decimal.NewFromInt(2500), Cobrar: true, MedioPago: core.MedioTransferencia}); err != nil {
		t.Fatalf("CreateVenta failed: %v", err)
	}

	today := time.Now()
	summary, err := acc.Summary(ctx, core.SummaryQuery{Desde: today, Hasta: today, Bucket: core.BucketDia})
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if len(summary.Buckets) != 1 {
		t.Fatalf("Expected 1 bucket, got %d", len(summary.Buckets))
	}
	if !summary.Ventas.Equal(decimal.NewFromInt(3500)) || !summary.Cobrado.Equal(decimal.NewFromInt(3500)) {
		t.Errorf("Expected ventas=cobrado=3500, got %s / %s", summary.Ventas, summary.Cobrado)
	}
	if summary.Cantidad != 2 {
		t.Errorf("Expected 2 ventas, got %d", summary.Cantidad)
	}
	if !summary.PorMedio[core.MedioEfectivo].Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Expected 1000 in EFECTIVO, got %s", summary.PorMedio[core.MedioEfectivo])
	}

	ventas, err := acc.ListVentas(ctx, core.MovimientoFilter{ReparacionID: order.ID})
	if err != nil || len(ventas) != 1 {
		t.Errorf("Expected the seña venta for the order, got %d (%v)", len(ventas), err)
	}
}

func TestAccounting_ConcurrentFacturaNumbering(t *testing.T) {
	acc, _ := newAccounting(t)
	ctx := context.Background()

	const n = 10
	ids := make([]int, n)
	for i := range ids {
		v, err := acc.CreateVenta(ctx, core.VentaInput{Concepto: "Servicio", Monto: decimal.NewFromInt(int64(100 * (i + 1)))})
		if err != nil {
			t.Fatalf("CreateVenta failed: %v", err)
		}
		ids[i] = v.ID
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	numeros := map[string]bool{}
	for _, id := range ids {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			f, err := acc.CreateFactura(ctx, id, "")
			if err != nil {
				t.Errorf("CreateFactura failed: %v", err)
				return
			}
			mu.Lock()
			numeros[f.Numero] = true
			mu.Unlock()
		}(id)
	}
	wg.Wait()

	if len(numeros) != n {
		t.Fatalf("Expected %d distinct numbers, got %d", n, len(numeros))
	}
	anio := time.Now().In(acc.Location()).Year()
	for i := 1; i <= n; i++ {
		want := core.FormatFacturaNumero("B", anio, int64(i))
		if !numeros[want] {
			t.Errorf("Missing gapless number %s", want)
		}
	}

	if _, err := acc.CreateFactura(ctx, ids[0], "B"); !errors.Is(err, core.ErrValidation) {
		t.Errorf("Expected ErrValidation for a second factura, got %v", err)
	}
}
