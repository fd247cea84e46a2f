package core

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Bucket is the width of one summary period.
type Bucket string

const (
	BucketDia    Bucket = "dia"
	BucketSemana Bucket = "semana"
	BucketMes    Bucket = "mes"
)

// maxBuckets caps the number of periods a single summary may span.
const maxBuckets = 1000

func (b Bucket) Valid() bool {
	return b == BucketDia || b == BucketSemana || b == BucketMes
}

// SummaryQuery selects the inclusive date range [Desde, Hasta] in the shop's timezone.
type SummaryQuery struct {
	Desde  time.Time
	Hasta  time.Time
	Bucket Bucket
}

// SummaryBucket holds the totals of one period.
// Saldo is Ventas minus Cobrado for movements dated inside the period.
type SummaryBucket struct {
	Inicio   time.Time                     `json:"inicio"`
	Etiqueta string                        `json:"etiqueta"`
	Ventas   decimal.Decimal               `json:"ventas"`
	Cobrado  decimal.Decimal               `json:"cobrado"`
	Cantidad int                           `json:"cantidad"`
	Saldo    decimal.Decimal               `json:"saldo"`
	PorMedio map[MedioPago]decimal.Decimal `json:"por_medio"`
}

type Summary struct {
	Desde    time.Time                     `json:"desde"`
	Hasta    time.Time                     `json:"hasta"`
	Bucket   Bucket                        `json:"bucket"`
	Buckets  []SummaryBucket               `json:"buckets"`
	Ventas   decimal.Decimal               `json:"ventas"`
	Cobrado  decimal.Decimal               `json:"cobrado"`
	Cantidad int                           `json:"cantidad"`
	Saldo    decimal.Decimal               `json:"saldo"`
	PorMedio map[MedioPago]decimal.Decimal `json:"por_medio"`
}

// BucketStart truncates t to the start of its period in loc.
// Weeks start on Monday.
func BucketStart(t time.Time, b Bucket, loc *time.Location) time.Time {
	t = t.In(loc)
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	switch b {
	case BucketSemana:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case BucketMes:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
	default:
		return day
	}
}

func nextBucket(start time.Time, b Bucket) time.Time {
	switch b {
	case BucketSemana:
		return start.AddDate(0, 0, 7)
	case BucketMes:
		return start.AddDate(0, 1, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}

// BucketLabel renders the chart axis label: 2026-10-18, 2026-W42 or 2026-10.
func BucketLabel(start time.Time, b Bucket) string {
	switch b {
	case BucketSemana:
		y, w := start.ISOWeek()
		return fmt.Sprintf("%d-W%02d", y, w)
	case BucketMes:
		return start.Format("2006-01")
	default:
		return start.Format("2006-01-02")
	}
}

// Range returns the half-open instant range [from, to) covered by q in loc.
func (q SummaryQuery) Range(loc *time.Location) (time.Time, time.Time) {
	from := BucketStart(q.Desde, BucketDia, loc)
	to := BucketStart(q.Hasta, BucketDia, loc).AddDate(0, 0, 1)
	return from, to
}

// Validate checks the bucket and the range width.
func (q SummaryQuery) Validate(loc *time.Location) error {
	if !q.Bucket.Valid() {
		return fmt.Errorf("%w: unknown bucket %q", ErrValidation, q.Bucket)
	}
	from, to := q.Range(loc)
	if !from.Before(to) || q.Hasta.Before(q.Desde) {
		return fmt.Errorf("%w: hasta must not be before desde", ErrValidation)
	}
	n := 0
	for s := BucketStart(from, q.Bucket, loc); s.Before(to); s = nextBucket(s, q.Bucket) {
		n++
		if n > maxBuckets {
			return fmt.Errorf("%w: range spans more than %d %s buckets", ErrValidation, maxBuckets, q.Bucket)
		}
	}
	return nil
}

// BuildSummary buckets ventas and pagos. Every period in the range is present,
// including empty ones. Movements outside the range are ignored.
func BuildSummary(q SummaryQuery, ventas []Venta, pagos []Pago, loc *time.Location) (*Summary, error) {
	if err := q.Validate(loc); err != nil {
		return nil, err
	}
	from, to := q.Range(loc)

	s := &Summary{
		Desde:    from,
		Hasta:    to.AddDate(0, 0, -1),
		Bucket:   q.Bucket,
		PorMedio: map[MedioPago]decimal.Decimal{},
	}
	index := map[string]int{}
	for start := BucketStart(from, q.Bucket, loc); start.Before(to); start = nextBucket(start, q.Bucket) {
		index[BucketLabel(start, q.Bucket)] = len(s.Buckets)
		s.Buckets = append(s.Buckets, SummaryBucket{
			Inicio:   start,
			Etiqueta: BucketLabel(start, q.Bucket),
			PorMedio: map[MedioPago]decimal.Decimal{},
		})
	}

	inRange := func(t time.Time) bool { return !t.Before(from) && t.Before(to) }

	for _, v := range ventas {
		if !inRange(v.Fecha) {
			continue
		}
		b := &s.Buckets[index[BucketLabel(BucketStart(v.Fecha, q.Bucket, loc), q.Bucket)]]
		b.Ventas = b.Ventas.Add(v.Monto)
		b.Cantidad++
		s.Ventas = s.Ventas.Add(v.Monto)
		s.Cantidad++
	}
	for _, p := range pagos {
		if !inRange(p.Fecha) {
			continue
		}
		b := &s.Buckets[index[BucketLabel(BucketStart(p.Fecha, q.Bucket, loc), q.Bucket)]]
		b.Cobrado = b.Cobrado.Add(p.Monto)
		b.PorMedio[p.MedioPago] = b.PorMedio[p.MedioPago].Add(p.Monto)
		s.Cobrado = s.Cobrado.Add(p.Monto)
		s.PorMedio[p.MedioPago] = s.PorMedio[p.MedioPago].Add(p.Monto)
	}
	for i := range s.Buckets {
		s.Buckets[i].Saldo = s.Buckets[i].Ventas.Sub(s.Buckets[i].Cobrado)
	}
	s.Saldo = s.Ventas.Sub(s.Cobrado)
	return s, nil
}
