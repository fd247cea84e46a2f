package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"taller/internal/app"
	"taller/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testSecret = "test-secret"

// fakeApp embeds the interface; unimplemented methods panic, which the
// Recoverer turns into 500s.
type fakeApp struct {
	app.ApplicationService
	novedad    app.NovedadRequest
	novedadErr error
}

func (f *fakeApp) AuthenticateUser(_ context.Context, username, password string) (*app.UserSession, error) {
	if username == "ana" && password == "secreto123" {
		return &app.UserSession{UserID: 1, Username: "ana", Rol: core.RolAdmin}, nil
	}
	return nil, core.ErrNotFound
}

func (f *fakeApp) GetUser(_ context.Context, id int) (*app.UserResult, error) {
	return &app.UserResult{ID: id, Username: "ana", Rol: core.RolAdmin}, nil
}

func (f *fakeApp) GetOrder(_ context.Context, ref string) (*app.OrderResult, error) {
	if ref != "R-ABC123" {
		return nil, core.ErrNotFound
	}
	return &app.OrderResult{Order: &core.Reparacion{ID: 7, Codigo: ref, Estado: core.EstadoIngreso}}, nil
}

func (f *fakeApp) ApplyNovedad(_ context.Context, ref string, req app.NovedadRequest) (*app.OrderResult, error) {
	f.novedad = req
	if f.novedadErr != nil {
		return nil, f.novedadErr
	}
	return &app.OrderResult{Order: &core.Reparacion{ID: 7, Codigo: ref, Estado: core.Estado(req.Tipo)}}, nil
}

func (f *fakeApp) PublicStatus(_ context.Context, codigo string) (*app.PublicStatusResult, error) {
	return &app.PublicStatusResult{Codigo: codigo, Equipo: "Notebook", Estado: core.EstadoReparado}, nil
}

func (f *fakeApp) ExportSummary(_ context.Context, req app.SummaryRequest, w io.Writer) error {
	if req.Bucket == "anio" {
		return core.ErrValidation
	}
	_, err := w.Write([]byte("PK"))
	return err
}

func newTestHandler(svc app.ApplicationService) (*Handler, http.Handler) {
	mux := NewHandler(svc, nil, zap.NewNop(), "", testSecret)
	return &Handler{svc: svc, logger: zap.NewNop(), jwtSecret: testSecret}, mux
}

func authCookie(t *testing.T, h *Handler) *http.Cookie {
	t.Helper()
	token, err := h.signToken(1, "ana", core.RolAdmin, time.Now())
	require.NoError(t, err)
	return &http.Cookie{Name: authCookieName, Value: token}
}

func do(mux http.Handler, method, path string, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apiError {
	t.Helper()
	var e apiError
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&e))
	return e
}

func TestHealthIsPublic(t *testing.T) {
	_, mux := newTestHandler(&fakeApp{})
	rec := do(mux, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestProtectedRoutesRequireCookie(t *testing.T) {
	_, mux := newTestHandler(&fakeApp{})

	rec := do(mux, http.MethodGet, "/api/reparaciones/R-ABC123", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, rec).Code)

	rec = do(mux, http.MethodGet, "/api/reparaciones/R-ABC123", "", &http.Cookie{Name: authCookieName, Value: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginSetsCookieAndMe(t *testing.T) {
	_, mux := newTestHandler(&fakeApp{})

	rec := do(mux, http.MethodPost, "/api/auth/login", `{"username":"ana","password":"nope"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(mux, http.MethodPost, "/api/auth/login", `{"username":"ana","password":"secreto123"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == authCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	rec = do(mux, http.MethodGet, "/api/auth/me", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var me app.UserResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&me))
	assert.Equal(t, "ana", me.Username)
}

func TestApplyNovedad(t *testing.T) {
	svc := &fakeApp{}
	h, mux := newTestHandler(svc)
	cookie := authCookie(t, h)

	rec := do(mux, http.MethodPost, "/api/reparaciones/R-ABC123/novedades", `{"tipo":"PRESUPUESTADO","monto":"15000.50"}`, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "PRESUPUESTADO", svc.novedad.Tipo)
	assert.Equal(t, "ana", svc.novedad.Usuario)
	require.NotNil(t, svc.novedad.Monto)
	assert.Equal(t, "15000.5", svc.novedad.Monto.String())

	rec = do(mux, http.MethodPost, "/api/reparaciones/R-ABC123/novedades", `{}`, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(mux, http.MethodPost, "/api/reparaciones/R-ABC123/novedades", `{"tipo":`, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServiceErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{core.ErrInvalidTransition, http.StatusUnprocessableEntity, "INVALID_TRANSITION"},
		{core.ErrValidation, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{core.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{core.ErrWhatsAppNotConfigured, http.StatusServiceUnavailable, "WHATSAPP_NOT_CONFIGURED"},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			svc := &fakeApp{novedadErr: tc.err}
			h, mux := newTestHandler(svc)
			rec := do(mux, http.MethodPost, "/api/reparaciones/7/novedades", `{"tipo":"RETIRA"}`, authCookie(t, h))
			assert.Equal(t, tc.status, rec.Code)
			e := decodeError(t, rec)
			assert.Equal(t, tc.code, e.Code)
			assert.NotEmpty(t, e.RequestID)
		})
	}
}

func TestGetOrderNotFound(t *testing.T) {
	h, mux := newTestHandler(&fakeApp{})
	rec := do(mux, http.MethodGet, "/api/reparaciones/R-000000", "", authCookie(t, h))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBodyLimit(t *testing.T) {
	h, mux := newTestHandler(&fakeApp{})
	big := `{"tipo":"ACEPTA","observacion":"` + strings.Repeat("x", 2<<20) + `"}`
	rec := do(mux, http.MethodPost, "/api/reparaciones/7/novedades", big, authCookie(t, h))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestPublicStatusNeedsNoAuth(t *testing.T) {
	_, mux := newTestHandler(&fakeApp{})
	rec := do(mux, http.MethodGet, "/api/public/reparaciones/R-ABC123", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "cliente")
}

func TestSummaryXLSX(t *testing.T) {
	h, mux := newTestHandler(&fakeApp{})
	cookie := authCookie(t, h)

	rec := do(mux, http.MethodGet, "/api/contabilidad/resumen.xlsx?desde=2026-10-01&hasta=2026-10-18", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "resumen_2026-10-01_2026-10-18.xlsx")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))

	rec = do(mux, http.MethodGet, "/api/contabilidad/resumen.xlsx?bucket=anio", "", cookie)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}

func TestRecovererReturns500(t *testing.T) {
	h, mux := newTestHandler(&fakeApp{})
	// ListClientes is not implemented by fakeApp and panics.
	rec := do(mux, http.MethodGet, "/api/clientes", "", authCookie(t, h))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	mux := NewHandler(&fakeApp{}, nil, zap.NewNop(), "https://panel.example.com", testSecret)
	req := httptest.NewRequest(http.MethodOptions, "/api/kanban", nil)
	req.Header.Set("Origin", "https://panel.example.com")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://panel.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

type facturaApp struct {
	fakeApp
	calls int
	tipo  string
}

func (f *facturaApp) CreateFactura(_ context.Context, ventaID int, tipo string) (*core.Factura, error) {
	f.calls++
	f.tipo = tipo
	return &core.Factura{ID: 1, VentaID: ventaID, Tipo: "B", Numero: "B-2026-00001"}, nil
}

func TestCreateFactura_Body(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		wantTipo string
		issued   bool
	}{
		{"empty body defaults", "", http.StatusCreated, "", true},
		{"explicit tipo", `{"tipo":"A"}`, http.StatusCreated, "A", true},
		{"malformed json", `{"tipo": A}`, http.StatusBadRequest, "", false},
		{"too large", `{"tipo":"` + strings.Repeat("B", 2<<20) + `"}`, http.StatusRequestEntityTooLarge, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &facturaApp{}
			h, mux := newTestHandler(svc)
			rec := do(mux, http.MethodPost, "/api/ventas/3/factura", tt.body, authCookie(t, h))
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.issued, svc.calls == 1)
			assert.Equal(t, tt.wantTipo, svc.tipo)
		})
	}
}
