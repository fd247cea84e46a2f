package web

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"taller/internal/app"

	"github.com/shopspring/decimal"
)

func summaryRequest(r *http.Request) app.SummaryRequest {
	q := r.URL.Query()
	return app.SummaryRequest{Desde: q.Get("desde"), Hasta: q.Get("hasta"), Bucket: q.Get("bucket")}
}

func movimientosRequest(r *http.Request) app.MovimientosRequest {
	q := r.URL.Query()
	return app.MovimientosRequest{
		Desde:        q.Get("desde"),
		Hasta:        q.Get("hasta"),
		ReparacionID: queryInt(r, "reparacion_id"),
		Limit:        queryInt(r, "limit"),
	}
}

// apiSummary handles GET /api/contabilidad/resumen?desde=&hasta=&bucket=dia|semana|mes.
func (h *Handler) apiSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.GetSummary(r.Context(), summaryRequest(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, summary)
}

// apiSummaryXLSX handles GET /api/contabilidad/resumen.xlsx with the same query as apiSummary.
func (h *Handler) apiSummaryXLSX(w http.ResponseWriter, r *http.Request) {
	req := summaryRequest(r)
	// Buffer so a failure can still produce a JSON error.
	var buf bytes.Buffer
	if err := h.svc.ExportSummary(r.Context(), req, &buf); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	name := "resumen"
	if req.Desde != "" || req.Hasta != "" {
		name += "_" + strings.Trim(req.Desde+"_"+req.Hasta, "_")
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, name))
	_, _ = buf.WriteTo(w)
}

// apiListVentas handles GET /api/ventas?desde=&hasta=&reparacion_id=&limit=.
func (h *Handler) apiListVentas(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListVentas(r.Context(), movimientosRequest(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Ventas)
}

// apiCreateVenta handles POST /api/ventas.
// Body: { concepto, monto, cliente_id?, cobrar?, medio_pago? }
func (h *Handler) apiCreateVenta(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Concepto  string          `json:"concepto"`
		Monto     decimal.Decimal `json:"monto"`
		ClienteID *int            `json:"cliente_id"`
		Cobrar    bool            `json:"cobrar"`
		MedioPago string          `json:"medio_pago"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	venta, err := h.svc.CreateVenta(r.Context(), app.CreateVentaRequest{
		Concepto:  body.Concepto,
		Monto:     body.Monto,
		ClienteID: body.ClienteID,
		Cobrar:    body.Cobrar,
		MedioPago: body.MedioPago,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeCreated(w, venta)
}

// apiRegisterPago handles POST /api/ventas/{id}/pagos.
// Body: { monto, medio_pago? }
func (h *Handler) apiRegisterPago(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Monto     decimal.Decimal `json:"monto"`
		MedioPago string          `json:"medio_pago"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	pago, err := h.svc.RegisterPago(r.Context(), id, app.PagoRequest{Monto: body.Monto, MedioPago: body.MedioPago})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeCreated(w, pago)
}

// apiCreateFactura handles POST /api/ventas/{id}/factura.
// Body: { tipo? } (optional; defaults to B).
func (h *Handler) apiCreateFactura(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Tipo string `json:"tipo"`
	}
	if !decodeOptionalJSON(w, r, &body) {
		return
	}
	factura, err := h.svc.CreateFactura(r.Context(), id, body.Tipo)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeCreated(w, factura)
}

// apiListPagos handles GET /api/pagos?desde=&hasta=&reparacion_id=&limit=.
func (h *Handler) apiListPagos(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListPagos(r.Context(), movimientosRequest(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Pagos)
}
