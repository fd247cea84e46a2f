package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnaFor(t *testing.T) {
	assert.Equal(t, ColumnaIngresados, ColumnaFor(EstadoIngreso))
	assert.Equal(t, ColumnaIngresados, ColumnaFor(EstadoReingreso))
	assert.Equal(t, ColumnaRechazados, ColumnaFor(EstadoArmado))
	assert.Equal(t, ColumnaEnReparacion, ColumnaFor(EstadoAcepta))
	assert.Equal(t, Columna(""), ColumnaFor(EstadoRetira))
	assert.Equal(t, Columna(""), ColumnaFor(EstadoArchivado))
}

func TestBuildKanban_GroupsAndOrders(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	orders := []Reparacion{
		{ID: 1, Codigo: "R-1", Estado: EstadoIngreso, FechaIngreso: now.Add(-24 * time.Hour)},
		{ID: 2, Codigo: "R-2", Estado: EstadoReingreso, FechaIngreso: now.Add(-72 * time.Hour), Reingresos: 1},
		{ID: 3, Codigo: "R-3", Estado: EstadoRetira, FechaIngreso: now.Add(-96 * time.Hour)},
		{ID: 4, Codigo: "R-4", Estado: EstadoArmado, FechaIngreso: now.Add(-10 * time.Hour)},
		{ID: 5, Codigo: "R-5", Estado: EstadoRechaza, FechaIngreso: now.Add(-50 * time.Hour)},
		{ID: 6, Codigo: "R-6", Estado: EstadoArchivado, FechaIngreso: now},
		{ID: 7, Codigo: "R-7", Estado: EstadoReparado, FechaIngreso: now.Add(time.Hour)},
	}

	b := BuildKanban(orders, now)

	require.Len(t, b.Columns, 5)
	assert.Equal(t, 5, b.Total)
	assert.Equal(t, now, b.GeneratedAt)

	ing := b.Column(ColumnaIngresados)
	require.NotNil(t, ing)
	require.Len(t, ing.Cards, 2)
	assert.Equal(t, "R-2", ing.Cards[0].Codigo)
	assert.Equal(t, 3, ing.Cards[0].DiasEnTaller)
	assert.Equal(t, "R-1", ing.Cards[1].Codigo)
	assert.Equal(t, 1, ing.Cards[1].DiasEnTaller)

	rech := b.Column(ColumnaRechazados)
	require.Len(t, rech.Cards, 2)
	assert.Equal(t, "R-5", rech.Cards[0].Codigo)
	assert.Equal(t, 2, rech.Cards[0].DiasEnTaller)
	assert.Equal(t, 0, rech.Cards[1].DiasEnTaller)

	rep := b.Column(ColumnaReparados)
	require.Len(t, rep.Cards, 1)
	assert.Equal(t, 0, rep.Cards[0].DiasEnTaller)

	assert.NotNil(t, b.Column(ColumnaPresupuestados).Cards)
	assert.Empty(t, b.Column(ColumnaPresupuestados).Cards)
}

func TestBuildKanban_Empty(t *testing.T) {
	b := BuildKanban(nil, time.Now())
	assert.Equal(t, 0, b.Total)
	assert.Len(t, b.Columns, 5)
	assert.Nil(t, b.Column("nope"))
}

func columnKeys(b Board) []Columna {
	keys := make([]Columna, 0, len(b.Columns))
	for _, c := range b.Columns {
		keys = append(keys, c.Key)
	}
	return keys
}

func TestBuildKanbanOrdered_FollowsEstadosOrden(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	seeded := []Columna{ColumnaIngresados, ColumnaPresupuestados, ColumnaEnReparacion, ColumnaRechazados, ColumnaReparados}

	assert.Equal(t, seeded, columnKeys(BuildKanban(nil, now)))

	orden := map[Estado]int{}
	for _, e := range AllEstados {
		orden[e] = seededOrden(e)
	}
	assert.Equal(t, seeded, columnKeys(BuildKanbanOrdered(nil, now, orden)))

	// Reparados first, Rechazados (RECHAZA/ARMADO) after En reparación still.
	orden[EstadoReparado] = 0
	b := BuildKanbanOrdered([]Reparacion{{ID: 1, Estado: EstadoReparado, FechaIngreso: now}}, now, orden)
	assert.Equal(t, []Columna{ColumnaReparados, ColumnaIngresados, ColumnaPresupuestados, ColumnaEnReparacion, ColumnaRechazados}, columnKeys(b))
	require.Len(t, b.Columns[0].Cards, 1)
}
