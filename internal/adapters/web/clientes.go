package web

import (
	"net/http"

	"taller/internal/app"
)

type clienteBody struct {
	Nombre    string `json:"nombre"`
	Apellido  string `json:"apellido"`
	Telefono  string `json:"telefono"`
	Email     string `json:"email"`
	DNI       string `json:"dni"`
	Direccion string `json:"direccion"`
	Notas     string `json:"notas"`
}

func (b clienteBody) request() app.ClienteRequest {
	return app.ClienteRequest{
		Nombre:    b.Nombre,
		Apellido:  b.Apellido,
		Telefono:  b.Telefono,
		Email:     b.Email,
		DNI:       b.DNI,
		Direccion: b.Direccion,
		Notas:     b.Notas,
	}
}

// apiListClientes handles GET /api/clientes?q=.
func (h *Handler) apiListClientes(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListClientes(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Clientes)
}

// apiCreateCliente handles POST /api/clientes.
func (h *Handler) apiCreateCliente(w http.ResponseWriter, r *http.Request) {
	var body clienteBody
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.CreateCliente(r.Context(), body.request())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeCreated(w, result.Cliente)
}

// apiGetCliente handles GET /api/clientes/{id}.
func (h *Handler) apiGetCliente(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	result, err := h.svc.GetCliente(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Cliente)
}

// apiUpdateCliente handles PUT /api/clientes/{id}. The body replaces every field.
func (h *Handler) apiUpdateCliente(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	var body clienteBody
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.UpdateCliente(r.Context(), id, body.request())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Cliente)
}

// apiClienteHistory handles GET /api/clientes/{id}/reparaciones.
func (h *Handler) apiClienteHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	result, err := h.svc.ClienteHistory(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Orders)
}
