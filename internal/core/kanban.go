package core

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Columna is a Kanban column key.
type Columna string

const (
	ColumnaIngresados     Columna = "ingresados"
	ColumnaPresupuestados Columna = "presupuestados"
	ColumnaEnReparacion   Columna = "en_reparacion"
	ColumnaRechazados     Columna = "rechazados"
	ColumnaReparados      Columna = "reparados"
)

var columnas = []columna{
	{ColumnaIngresados, "Ingresados", []Estado{EstadoIngreso, EstadoReingreso}},
	{ColumnaPresupuestados, "Presupuestados", []Estado{EstadoPresupuestado}},
	{ColumnaEnReparacion, "En reparación", []Estado{EstadoAcepta}},
	{ColumnaRechazados, "Rechazados", []Estado{EstadoRechaza, EstadoArmado}},
	{ColumnaReparados, "Reparados", []Estado{EstadoReparado}},
}

type columna struct {
	key     Columna
	titulo  string
	estados []Estado
}

func columnasOrdenadas(orden map[Estado]int) []columna {
	out := append([]columna(nil), columnas...)
	if len(orden) == 0 {
		return out
	}
	rank := func(c columna) int {
		best := -1
		for _, e := range c.estados {
			n, ok := orden[e]
			if !ok {
				n = seededOrden(e)
			}
			if best < 0 || n < best {
				best = n
			}
		}
		return best
	}
	sort.SliceStable(out, func(i, j int) bool { return rank(out[i]) < rank(out[j]) })
	return out
}

// seededOrden is the position of e in AllEstados, counted from 1 like estados.orden.
func seededOrden(e Estado) int {
	for i, v := range AllEstados {
		if v == e {
			return i + 1
		}
	}
	return len(AllEstados) + 1
}

// ColumnaFor returns the column an estado is shown in, or "" for closed estados.
func ColumnaFor(e Estado) Columna {
	for _, c := range columnas {
		for _, ce := range c.estados {
			if ce == e {
				return c.key
			}
		}
	}
	return ""
}

type KanbanCard struct {
	ID              int              `json:"id"`
	Codigo          string           `json:"codigo"`
	Estado          Estado           `json:"estado"`
	ClienteNombre   string           `json:"cliente_nombre"`
	ClienteTelefono string           `json:"cliente_telefono"`
	Equipo          string           `json:"equipo"`
	Marca           string           `json:"marca"`
	Modelo          string           `json:"modelo"`
	Presupuesto     *decimal.Decimal `json:"presupuesto,omitempty"`
	FechaIngreso    time.Time        `json:"fecha_ingreso"`
	DiasEnTaller    int              `json:"dias_en_taller"`
	Reingresos      int              `json:"reingresos"`
}

type KanbanColumn struct {
	Key    Columna      `json:"key"`
	Titulo string       `json:"titulo"`
	Cards  []KanbanCard `json:"cards"`
}

// Board is the grouped view of open orders.
type Board struct {
	Columns     []KanbanColumn `json:"columns"`
	Total       int            `json:"total"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// Column returns the column with key, or nil.
func (b Board) Column(key Columna) *KanbanColumn {
	for i := range b.Columns {
		if b.Columns[i].Key == key {
			return &b.Columns[i]
		}
	}
	return nil
}

// BuildKanban groups open orders into columns in the seeded estados order.
func BuildKanban(orders []Reparacion, now time.Time) Board {
	return BuildKanbanOrdered(orders, now, nil)
}

// BuildKanbanOrdered groups open orders into columns. Closed orders are dropped.
// Columns are sorted by the lowest estados.orden among their estados; estados
// missing from orden keep their seeded position. Cards are ordered oldest intake first.
func BuildKanbanOrdered(orders []Reparacion, now time.Time, orden map[Estado]int) Board {
	cols := columnasOrdenadas(orden)
	b := Board{GeneratedAt: now, Columns: make([]KanbanColumn, len(cols))}
	index := make(map[Columna]int, len(cols))
	for i, c := range cols {
		b.Columns[i] = KanbanColumn{Key: c.key, Titulo: c.titulo, Cards: []KanbanCard{}}
		index[c.key] = i
	}

	for _, o := range orders {
		col := ColumnaFor(o.Estado)
		if col == "" {
			continue
		}
		i := index[col]
		b.Columns[i].Cards = append(b.Columns[i].Cards, KanbanCard{
			ID:              o.ID,
			Codigo:          o.Codigo,
			Estado:          o.Estado,
			ClienteNombre:   o.ClienteNombre,
			ClienteTelefono: o.ClienteTelefono,
			Equipo:          o.Equipo,
			Marca:           o.Marca,
			Modelo:          o.Modelo,
			Presupuesto:     o.Presupuesto,
			FechaIngreso:    o.FechaIngreso,
			DiasEnTaller:    diasEntre(o.FechaIngreso, now),
			Reingresos:      o.Reingresos,
		})
		b.Total++
	}

	for i := range b.Columns {
		cards := b.Columns[i].Cards
		sort.SliceStable(cards, func(a, c int) bool {
			if cards[a].FechaIngreso.Equal(cards[c].FechaIngreso) {
				return cards[a].ID < cards[c].ID
			}
			return cards[a].FechaIngreso.Before(cards[c].FechaIngreso)
		})
	}
	return b
}

func diasEntre(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from).Hours() / 24)
}
