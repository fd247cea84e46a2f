package web

import (
	"net/http"

	"taller/internal/app"

	"github.com/go-chi/chi/v5"
)

// apiListPlantillas handles GET /api/whatsapp/plantillas.
func (h *Handler) apiListPlantillas(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListPlantillas(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Plantillas)
}

// apiUpsertPlantilla handles PUT /api/whatsapp/plantillas/{clave}.
// Body: { nombre, cuerpo, activo? } (activo defaults to true).
func (h *Handler) apiUpsertPlantilla(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Nombre string `json:"nombre"`
		Cuerpo string `json:"cuerpo"`
		Activo *bool  `json:"activo"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	activo := true
	if body.Activo != nil {
		activo = *body.Activo
	}
	p, err := h.svc.UpsertPlantilla(r.Context(), app.PlantillaRequest{
		Clave:  chi.URLParam(r, "clave"),
		Nombre: body.Nombre,
		Cuerpo: body.Cuerpo,
		Activo: activo,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, p)
}

// apiRenderWhatsApp handles GET /api/reparaciones/{ref}/whatsapp/{clave}.
func (h *Handler) apiRenderWhatsApp(w http.ResponseWriter, r *http.Request) {
	msg, err := h.svc.RenderWhatsApp(r.Context(), chi.URLParam(r, "ref"), chi.URLParam(r, "clave"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, msg)
}

// apiSendWhatsApp handles POST /api/reparaciones/{ref}/whatsapp/{clave}/enviar.
func (h *Handler) apiSendWhatsApp(w http.ResponseWriter, r *http.Request) {
	msg, err := h.svc.SendWhatsApp(r.Context(), chi.URLParam(r, "ref"), chi.URLParam(r, "clave"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, msg)
}
