package core

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteSummaryXLSX(t *testing.T) {
	loc := time.UTC
	d := time.Date(2026, 10, 1, 10, 0, 0, 0, loc)
	rep := 7
	ventas := []Venta{
		{ID: 1, Fecha: d, Concepto: "Reparación R-1", Monto: decimal.NewFromInt(1000), Cobrado: decimal.NewFromInt(400), ReparacionID: &rep},
	}
	pagos := []Pago{{Fecha: d, Monto: decimal.NewFromInt(400), MedioPago: MedioTarjeta}}
	s, err := BuildSummary(SummaryQuery{Desde: d, Hasta: d.AddDate(0, 0, 1), Bucket: BucketDia}, ventas, pagos, loc)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteSummaryXLSX(&buf, s, ventas))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetResumen, sheetVentas}, f.GetSheetList())

	rows, err := f.GetRows(sheetResumen)
	require.NoError(t, err)
	require.Len(t, rows, 4) // header, 2 days, total
	assert.Equal(t, "Periodo", rows[0][0])
	assert.Equal(t, "2026-10-01", rows[1][0])
	assert.Equal(t, "1000", rows[1][1])
	assert.Equal(t, "Total", rows[3][0])

	vrows, err := f.GetRows(sheetVentas)
	require.NoError(t, err)
	require.Len(t, vrows, 2)
	assert.Equal(t, "Reparación R-1", vrows[1][2])
	assert.Equal(t, "600", vrows[1][5])
	assert.Equal(t, "7", vrows[1][6])
}
