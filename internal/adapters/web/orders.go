package web

import (
	"net/http"
	"strconv"

	"taller/internal/app"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// apiListOrders handles GET /api/reparaciones?estado=&cliente_id=&q=&cerradas=&limit=.
func (h *Handler) apiListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	closed, _ := strconv.ParseBool(q.Get("cerradas"))
	result, err := h.svc.ListOrders(r.Context(), app.ListOrdersRequest{
		Estado:        q.Get("estado"),
		ClienteID:     queryInt(r, "cliente_id"),
		Query:         q.Get("q"),
		IncludeClosed: closed,
		Limit:         queryInt(r, "limit"),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Orders)
}

// apiGetOrder handles GET /api/reparaciones/{ref}.
func (h *Handler) apiGetOrder(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetOrder(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiCreateOrder handles POST /api/reparaciones.
// Body: { cliente_id, equipo, marca?, modelo?, numero_serie?, falla?, accesorios?,
// observaciones?, sena?, medio_pago? }
func (h *Handler) apiCreateOrder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ClienteID     int             `json:"cliente_id"`
		Equipo        string          `json:"equipo"`
		Marca         string          `json:"marca"`
		Modelo        string          `json:"modelo"`
		NumeroSerie   string          `json:"numero_serie"`
		Falla         string          `json:"falla"`
		Accesorios    string          `json:"accesorios"`
		Observaciones string          `json:"observaciones"`
		Sena          decimal.Decimal `json:"sena"`
		MedioPago     string          `json:"medio_pago"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.ClienteID <= 0 {
		writeError(w, r, "cliente_id is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.CreateOrder(r.Context(), app.CreateOrderRequest{
		ClienteID:     body.ClienteID,
		Equipo:        body.Equipo,
		Marca:         body.Marca,
		Modelo:        body.Modelo,
		NumeroSerie:   body.NumeroSerie,
		Falla:         body.Falla,
		Accesorios:    body.Accesorios,
		Observaciones: body.Observaciones,
		Sena:          body.Sena,
		MedioPago:     body.MedioPago,
		Usuario:       actor(r),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeCreated(w, result)
}

// apiUpdateOrder handles PATCH /api/reparaciones/{ref}. Absent fields are left unchanged.
func (h *Handler) apiUpdateOrder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Equipo        *string `json:"equipo"`
		Marca         *string `json:"marca"`
		Modelo        *string `json:"modelo"`
		NumeroSerie   *string `json:"numero_serie"`
		Falla         *string `json:"falla"`
		Accesorios    *string `json:"accesorios"`
		Observaciones *string `json:"observaciones"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.UpdateOrder(r.Context(), chi.URLParam(r, "ref"), app.UpdateOrderRequest{
		Equipo:        body.Equipo,
		Marca:         body.Marca,
		Modelo:        body.Modelo,
		NumeroSerie:   body.NumeroSerie,
		Falla:         body.Falla,
		Accesorios:    body.Accesorios,
		Observaciones: body.Observaciones,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiListNovedades handles GET /api/reparaciones/{ref}/novedades.
func (h *Handler) apiListNovedades(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListNovedades(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Novedades)
}

// apiApplyNovedad handles POST /api/reparaciones/{ref}/novedades.
// Body: { tipo, monto?, medio_pago?, observacion? }
func (h *Handler) apiApplyNovedad(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Tipo        string           `json:"tipo"`
		Monto       *decimal.Decimal `json:"monto"`
		MedioPago   string           `json:"medio_pago"`
		Observacion string           `json:"observacion"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Tipo == "" {
		writeError(w, r, "tipo is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.ApplyNovedad(r.Context(), chi.URLParam(r, "ref"), app.NovedadRequest{
		Tipo:        body.Tipo,
		Monto:       body.Monto,
		MedioPago:   body.MedioPago,
		Observacion: body.Observacion,
		Usuario:     actor(r),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeCreated(w, result)
}

// apiKanban handles GET /api/kanban.
func (h *Handler) apiKanban(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Kanban(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiPublicStatus handles GET /api/public/reparaciones/{codigo}.
func (h *Handler) apiPublicStatus(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.PublicStatus(r.Context(), chi.URLParam(r, "codigo"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}
