package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// allowedFrom maps each novedad tipo to the estados it may be applied from.
// INGRESO is absent: it is only written at intake.
var allowedFrom = map[Estado][]Estado{
	EstadoPresupuestado: {EstadoIngreso, EstadoReingreso, EstadoPresupuestado},
	EstadoAcepta:        {EstadoPresupuestado},
	EstadoRechaza:       {EstadoPresupuestado},
	EstadoArmado:        {EstadoRechaza},
	EstadoReparado:      {EstadoAcepta, EstadoReingreso},
	EstadoRetira:        {EstadoReparado, EstadoRechaza, EstadoArmado},
	EstadoReingreso:     {EstadoRetira},
}

// CanTransition reports whether a novedad of tipo may be applied to an order in from.
func CanTransition(from, tipo Estado) bool {
	if tipo == EstadoArchivado {
		return from.Valid() && from != EstadoArchivado
	}
	for _, e := range allowedFrom[tipo] {
		if e == from {
			return true
		}
	}
	return false
}

// NextEstados lists the novedades that may be applied from an estado, in board order.
func NextEstados(from Estado) []Estado {
	var out []Estado
	for _, tipo := range AllEstados {
		if CanTransition(from, tipo) {
			out = append(out, tipo)
		}
	}
	return out
}

// OrderState is the slice of a Reparacion the planner reads.
type OrderState struct {
	Codigo      string
	Equipo      string
	Estado      Estado
	Presupuesto *decimal.Decimal
	PrecioFinal *decimal.Decimal
	// Facturado is the sum of ventas already booked for the order since intake
	// or its last REINGRESO. It includes the seña in the first cycle.
	Facturado decimal.Decimal
}

// TransitionPlan is the full set of writes for one novedad. The order service
// executes it inside a single transaction.
type TransitionPlan struct {
	From Estado
	To   Estado

	SetPresupuesto *decimal.Decimal
	SetPrecioFinal *decimal.Decimal

	StampPresupuesto bool
	StampRespuesta   bool
	StampReparado    bool
	StampRetiro      bool

	// Reingreso starts a new repair cycle: it clears the dates and prices of the
	// previous one and bumps the counter.
	Reingreso bool

	Venta *VentaPlan
	Pago  *PagoPlan
}

type VentaPlan struct {
	Concepto string
	Monto    decimal.Decimal
}

type PagoPlan struct {
	Monto     decimal.Decimal
	MedioPago MedioPago
}

// PlanTransition validates in against cur and returns the writes it implies.
func PlanTransition(cur OrderState, in NovedadInput) (*TransitionPlan, error) {
	if !in.Tipo.Valid() {
		return nil, fmt.Errorf("%w: unknown novedad %q", ErrValidation, in.Tipo)
	}
	if in.Tipo == EstadoIngreso {
		return nil, fmt.Errorf("%w: INGRESO is only recorded at intake", ErrInvalidTransition)
	}
	if !CanTransition(cur.Estado, in.Tipo) {
		return nil, fmt.Errorf("%w: %s cannot be applied to an order in %s", ErrInvalidTransition, in.Tipo, cur.Estado)
	}
	if in.Monto != nil && in.Monto.IsNegative() {
		return nil, fmt.Errorf("%w: monto must not be negative", ErrValidation)
	}

	p := &TransitionPlan{From: cur.Estado, To: in.Tipo}

	switch in.Tipo {
	case EstadoPresupuestado:
		if in.Monto == nil || !in.Monto.IsPositive() {
			return nil, fmt.Errorf("%w: PRESUPUESTADO requires monto > 0", ErrValidation)
		}
		p.SetPresupuesto = in.Monto
		p.StampPresupuesto = true

	case EstadoAcepta:
		if err := rejectMonto(in); err != nil {
			return nil, err
		}
		p.StampRespuesta = true

	case EstadoRechaza:
		p.StampRespuesta = true
		if in.Monto != nil && in.Monto.IsPositive() {
			p.SetPrecioFinal = in.Monto
		}

	case EstadoArmado:
		if err := rejectMonto(in); err != nil {
			return nil, err
		}

	case EstadoReparado:
		p.StampReparado = true
		switch {
		case in.Monto != nil && in.Monto.IsPositive():
			p.SetPrecioFinal = in.Monto
		case cur.PrecioFinal == nil && cur.Presupuesto != nil:
			p.SetPrecioFinal = cur.Presupuesto
		}

	case EstadoRetira:
		p.StampRetiro = true
		medio, err := resolveMedioPago(in.MedioPago)
		if err != nil {
			return nil, err
		}
		amount := decimal.Zero
		switch {
		case in.Monto != nil:
			amount = *in.Monto
		case cur.PrecioFinal != nil:
			amount = *cur.PrecioFinal
		}
		p.SetPrecioFinal = &amount

		saldo := amount.Sub(cur.Facturado)
		if saldo.IsPositive() {
			p.Venta = &VentaPlan{
				Concepto: conceptoReparacion(cur),
				Monto:    saldo,
			}
			p.Pago = &PagoPlan{Monto: saldo, MedioPago: medio}
		}

	case EstadoReingreso:
		if err := rejectMonto(in); err != nil {
			return nil, err
		}
		p.Reingreso = true

	case EstadoArchivado:
		if err := rejectMonto(in); err != nil {
			return nil, err
		}
	}

	return p, nil
}

func rejectMonto(in NovedadInput) error {
	if in.Monto != nil && !in.Monto.IsZero() {
		return fmt.Errorf("%w: %s does not take a monto", ErrValidation, in.Tipo)
	}
	return nil
}

func resolveMedioPago(m MedioPago) (MedioPago, error) {
	if m == "" {
		return MedioEfectivo, nil
	}
	if !m.Valid() {
		return "", fmt.Errorf("%w: unknown medio de pago %q", ErrValidation, m)
	}
	return m, nil
}

func conceptoReparacion(cur OrderState) string {
	if cur.Equipo == "" {
		return "Reparación " + cur.Codigo
	}
	return fmt.Sprintf("Reparación %s - %s", cur.Codigo, cur.Equipo)
}

// PlanIntake returns the seña venta/pago recorded when an order is created, or nils.
func PlanIntake(codigo string, sena decimal.Decimal, medio MedioPago) (*VentaPlan, *PagoPlan, error) {
	if sena.IsNegative() {
		return nil, nil, fmt.Errorf("%w: seña must not be negative", ErrValidation)
	}
	if !sena.IsPositive() {
		return nil, nil, nil
	}
	m, err := resolveMedioPago(medio)
	if err != nil {
		return nil, nil, err
	}
	return &VentaPlan{Concepto: "Seña " + codigo, Monto: sena}, &PagoPlan{Monto: sena, MedioPago: m}, nil
}
