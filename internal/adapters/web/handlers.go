package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"taller/internal/app"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler holds the ApplicationService, the event hub and the chi router.
type Handler struct {
	svc       app.ApplicationService
	hub       *Hub
	logger    *zap.Logger
	router    chi.Router
	jwtSecret string
}

// NewHandler creates and wires the chi router with all routes. hub may be nil,
// in which case /api/ws answers 501.
func NewHandler(svc app.ApplicationService, hub *Hub, logger *zap.Logger, allowedOrigins, jwtSecret string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		svc:       svc,
		hub:       hub,
		logger:    logger,
		jwtSecret: jwtSecret,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(logger.Named("http")))
	r.Use(Recoverer(logger))
	r.Use(CORS(allowedOrigins))

	// ── Public ───────────────────────────────────────────────────────────────
	r.Get("/api/health", h.health)
	r.Post("/api/auth/login", h.login)
	r.Post("/api/auth/logout", h.logout)
	r.Get("/api/public/reparaciones/{codigo}", h.apiPublicStatus)

	// ── Authenticated routes ─────────────────────────────────────────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)

		// Long-lived; no body limit applies.
		if hub != nil {
			r.Get("/api/ws", hub.ServeWS)
		} else {
			r.Get("/api/ws", notImplemented)
		}

		r.Group(func(r chi.Router) {
			r.Use(RequestBodyLimit(1 << 20)) // 1 MB

			r.Get("/api/auth/me", h.me)

			// ── Clientes ─────────────────────────────────────────────────────
			r.Get("/api/clientes", h.apiListClientes)
			r.Post("/api/clientes", h.apiCreateCliente)
			r.Get("/api/clientes/{id}", h.apiGetCliente)
			r.Put("/api/clientes/{id}", h.apiUpdateCliente)
			r.Get("/api/clientes/{id}/reparaciones", h.apiClienteHistory)

			// ── Reparaciones ─────────────────────────────────────────────────
			r.Get("/api/reparaciones", h.apiListOrders)
			r.Post("/api/reparaciones", h.apiCreateOrder)
			r.Get("/api/reparaciones/{ref}", h.apiGetOrder)
			r.Patch("/api/reparaciones/{ref}", h.apiUpdateOrder)
			r.Get("/api/reparaciones/{ref}/novedades", h.apiListNovedades)
			r.Post("/api/reparaciones/{ref}/novedades", h.apiApplyNovedad)
			r.Get("/api/kanban", h.apiKanban)

			// ── Contabilidad ─────────────────────────────────────────────────
			r.Get("/api/contabilidad/resumen", h.apiSummary)
			r.Get("/api/contabilidad/resumen.xlsx", h.apiSummaryXLSX)
			r.Get("/api/ventas", h.apiListVentas)
			r.Post("/api/ventas", h.apiCreateVenta)
			r.Post("/api/ventas/{id}/pagos", h.apiRegisterPago)
			r.Post("/api/ventas/{id}/factura", h.apiCreateFactura)
			r.Get("/api/pagos", h.apiListPagos)

			// ── WhatsApp ─────────────────────────────────────────────────────
			r.Get("/api/whatsapp/plantillas", h.apiListPlantillas)
			r.Put("/api/whatsapp/plantillas/{clave}", h.apiUpsertPlantilla)
			r.Get("/api/reparaciones/{ref}/whatsapp/{clave}", h.apiRenderWhatsApp)
			r.Post("/api/reparaciones/{ref}/whatsapp/{clave}/enviar", h.apiSendWhatsApp)
		})
	})

	h.router = r
	return r
}

// health returns service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status  string `json:"status"`
		Time    string `json:"time"`
		Clients int    `json:"ws_clients"`
	}
	resp := response{Status: "ok", Time: time.Now().UTC().Format(time.RFC3339)}
	if h.hub != nil {
		resp.Clients = h.hub.ClientCount()
	}
	writeJSON(w, resp)
}

// decodeJSON reads the body into v. On failure it has already answered
// 413 (over RequestBodyLimit) or 400 and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	return decodeBody(w, r, v, false)
}

// decodeOptionalJSON is decodeJSON for endpoints whose body may be empty.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	return decodeBody(w, r, v, true)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || (allowEmpty && errors.Is(err, io.EOF)) {
		return true
	}
	if tooLarge := new(http.MaxBytesError); errors.As(err, &tooLarge) {
		writeError(w, r, "request body exceeds 1 MB", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
		return false
	}
	writeError(w, r, "malformed JSON: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
	return false
}

// intParam parses a positive integer URL parameter, writing 400 on failure.
func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		writeError(w, r, "invalid "+name, "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// queryInt reads an optional integer query parameter; malformed values count as zero.
func queryInt(r *http.Request, name string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(name))
	return n
}
