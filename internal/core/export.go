package core

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	sheetResumen = "Resumen"
	sheetVentas  = "Ventas"
)

// WriteSummaryXLSX writes a two-sheet workbook: the bucketed summary and the ventas behind it.
// Amounts are written as numbers so spreadsheets can sum them.
func WriteSummaryXLSX(w io.Writer, s *Summary, ventas []Venta) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetResumen); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(sheetVentas); err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}

	head := []any{"Periodo", "Ventas", "Cobrado", "Saldo", "Cantidad"}
	for _, m := range MediosPago {
		head = append(head, string(m))
	}
	if err := f.SetSheetRow(sheetResumen, "A1", &head); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, b := range s.Buckets {
		row := []any{b.Etiqueta, b.Ventas.InexactFloat64(), b.Cobrado.InexactFloat64(), b.Saldo.InexactFloat64(), b.Cantidad}
		for _, m := range MediosPago {
			row = append(row, b.PorMedio[m].InexactFloat64())
		}
		if err := f.SetSheetRow(sheetResumen, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return fmt.Errorf("failed to write bucket %s: %w", b.Etiqueta, err)
		}
	}
	total := []any{"Total", s.Ventas.InexactFloat64(), s.Cobrado.InexactFloat64(), s.Saldo.InexactFloat64(), s.Cantidad}
	for _, m := range MediosPago {
		total = append(total, s.PorMedio[m].InexactFloat64())
	}
	if err := f.SetSheetRow(sheetResumen, fmt.Sprintf("A%d", len(s.Buckets)+2), &total); err != nil {
		return fmt.Errorf("failed to write totals: %w", err)
	}

	vhead := []any{"ID", "Fecha", "Concepto", "Monto", "Cobrado", "Saldo", "Reparación"}
	if err := f.SetSheetRow(sheetVentas, "A1", &vhead); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, v := range ventas {
		rep := ""
		if v.ReparacionID != nil {
			rep = fmt.Sprint(*v.ReparacionID)
		}
		row := []any{v.ID, v.Fecha.Format("2006-01-02 15:04"), v.Concepto,
			v.Monto.InexactFloat64(), v.Cobrado.InexactFloat64(), v.Saldo().InexactFloat64(), rep}
		if err := f.SetSheetRow(sheetVentas, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return fmt.Errorf("failed to write venta %d: %w", v.ID, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
