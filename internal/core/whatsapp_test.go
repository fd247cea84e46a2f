package core

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPlantilla(t *testing.T) {
	vars := map[string]string{"nombre": "Ana", "codigo": "R-1A2B3C"}

	assert.Equal(t, "Hola Ana, orden R-1A2B3C.", RenderPlantilla("Hola {nombre}, orden {codigo}.", vars))
	assert.Equal(t, "Hola {desconocido} Ana", RenderPlantilla("Hola {desconocido} {nombre}", vars))
	assert.Equal(t, "{Ana}", RenderPlantilla("{{nombre}}", vars))
	assert.Equal(t, "sin cierre {nombre", RenderPlantilla("sin cierre {nombre", vars))
	assert.Equal(t, "Ana Ana", RenderPlantilla("{nombre} {nombre}", vars))
	assert.Equal(t, "", RenderPlantilla("", vars))
}

func TestFormatMoney(t *testing.T) {
	cases := map[string]string{
		"0":         "$ 0,00",
		"5":         "$ 5,00",
		"999.5":     "$ 999,50",
		"1000":      "$ 1.000,00",
		"12345.678": "$ 12.345,68",
		"1234567.1": "$ 1.234.567,10",
		"-2500":     "-$ 2.500,00",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatMoney(decimal.RequireFromString(in)), in)
	}
}

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"11 2345-6789":        "5491123456789",
		"011 2345 6789":       "5491123456789",
		"+54 9 11 2345 6789":  "5491123456789",
		"54 11 2345 6789":     "5491123456789",
		"0054 9 11 23456789":  "5491123456789",
		"011 15 2345 6789":    "5491123456789",
		"11 15 2345-6789":     "5491123456789",
		"+54 11 15 2345 6789": "5491123456789",
		"0351 15 612 3456":    "5493516123456",
		"03543 15 41 2345":    "5493543412345",
		"011 15 2345 678":     "",
		"34 612 345 678":      "34612345678",
		"123":                 "",
		"":                    "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizePhone(in), in)
	}
}

func TestWhatsAppLink(t *testing.T) {
	link := WhatsAppLink("5491123456789", "Hola Ana & co")
	assert.Equal(t, "https://wa.me/5491123456789?text=Hola%20Ana%20%26%20co", link)
}

func TestVarsForOrder(t *testing.T) {
	retiro := time.Date(2026, 10, 18, 15, 0, 0, 0, time.UTC)
	o := &Reparacion{
		Codigo:        "R-XYZ",
		ClienteNombre: "Ana Pérez",
		Equipo:        "Notebook",
		Marca:         "Lenovo",
		Estado:        EstadoReparado,
		Presupuesto:   dec("12000"),
		PrecioFinal:   dec("13000"),
		Sena:          decimal.NewFromInt(3000),
		FechaRetiro:   &retiro,
	}
	vars := VarsForOrder(o, "Taller Centro", time.UTC)

	assert.Equal(t, "Ana", vars["nombre"])
	assert.Equal(t, "Ana Pérez", vars["cliente"])
	assert.Equal(t, "Reparado", vars["estado"])
	assert.Equal(t, "$ 12.000,00", vars["presupuesto"])
	assert.Equal(t, "$ 10.000,00", vars["precio"])
	assert.Equal(t, "18/10/2026", vars["fecha"])
	assert.Equal(t, "Taller Centro", vars["taller"])
}

func TestDefaultPlantillas(t *testing.T) {
	ps, err := DefaultPlantillas()
	require.NoError(t, err)

	claves := map[string]bool{}
	for _, p := range ps {
		claves[p.Clave] = true
		assert.True(t, p.Activo)
		assert.NotEmpty(t, p.Nombre)
		assert.True(t, strings.Contains(p.Cuerpo, "{codigo}") || strings.Contains(p.Cuerpo, "{taller}"), p.Clave)
	}
	for _, want := range []string{"ingreso", "presupuesto", "reparado", "retiro", "recordatorio"} {
		assert.True(t, claves[want], want)
	}
}
