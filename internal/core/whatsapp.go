package core

import (
	_ "embed"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Plantilla is a WhatsApp message template. Cuerpo holds {placeholder} tokens.
type Plantilla struct {
	ID        int       `json:"id" yaml:"-"`
	Clave     string    `json:"clave" yaml:"clave"`
	Nombre    string    `json:"nombre" yaml:"nombre"`
	Cuerpo    string    `json:"cuerpo" yaml:"cuerpo"`
	Activo    bool      `json:"activo" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

// WhatsAppMessage is a rendered template ready to send or open as a wa.me link.
type WhatsAppMessage struct {
	Clave    string `json:"clave"`
	Telefono string `json:"telefono"`
	Texto    string `json:"texto"`
	Link     string `json:"link"`
}

//go:embed plantillas.yaml
var defaultPlantillasYAML []byte

// DefaultPlantillas parses the embedded template set.
func DefaultPlantillas() ([]Plantilla, error) {
	var out []Plantilla
	if err := yaml.Unmarshal(defaultPlantillasYAML, &out); err != nil {
		return nil, fmt.Errorf("failed to parse default plantillas: %w", err)
	}
	for i := range out {
		out[i].Activo = true
	}
	return out, nil
}

// RenderPlantilla replaces {name} tokens with vars[name]. Unknown tokens and
// unbalanced braces are copied through unchanged.
func RenderPlantilla(cuerpo string, vars map[string]string) string {
	var b strings.Builder
	b.Grow(len(cuerpo))
	for {
		open := strings.IndexByte(cuerpo, '{')
		if open < 0 {
			b.WriteString(cuerpo)
			return b.String()
		}
		end := strings.IndexByte(cuerpo[open+1:], '}')
		if end < 0 {
			b.WriteString(cuerpo)
			return b.String()
		}
		end += open + 1

		name := cuerpo[open+1 : end]
		b.WriteString(cuerpo[:open])
		if v, ok := vars[name]; ok {
			b.WriteString(v)
			cuerpo = cuerpo[end+1:]
			continue
		}
		// Not a known token: emit the brace and rescan after it.
		b.WriteByte('{')
		cuerpo = cuerpo[open+1:]
	}
}

// VarsForOrder builds the placeholder values for a reparacion.
func VarsForOrder(o *Reparacion, taller string, loc *time.Location) map[string]string {
	if loc == nil {
		loc = time.UTC
	}
	nombre := o.ClienteNombre
	if i := strings.IndexByte(nombre, ' '); i > 0 {
		nombre = nombre[:i]
	}
	vars := map[string]string{
		"cliente":     o.ClienteNombre,
		"nombre":      nombre,
		"equipo":      o.Equipo,
		"marca":       o.Marca,
		"modelo":      o.Modelo,
		"codigo":      o.Codigo,
		"estado":      estadoNombre(o.Estado),
		"presupuesto": "",
		"precio":      "",
		"fecha":       time.Now().In(loc).Format("02/01/2006"),
		"taller":      taller,
	}
	if o.Presupuesto != nil {
		vars["presupuesto"] = FormatMoney(*o.Presupuesto)
	}
	// The seña only counts against the first repair cycle.
	sena := o.Sena
	if o.Reingresos > 0 {
		sena = decimal.Zero
	}
	switch {
	case o.PrecioFinal != nil:
		vars["precio"] = FormatMoney(o.PrecioFinal.Sub(sena))
	case o.Presupuesto != nil:
		vars["precio"] = FormatMoney(o.Presupuesto.Sub(sena))
	}
	if o.FechaRetiro != nil {
		vars["fecha"] = o.FechaRetiro.In(loc).Format("02/01/2006")
	}
	return vars
}

var estadoNombres = map[Estado]string{
	EstadoIngreso:       "Ingresado",
	EstadoReingreso:     "Reingresado",
	EstadoPresupuestado: "Presupuestado",
	EstadoAcepta:        "Aceptado",
	EstadoRechaza:       "Rechazado",
	EstadoArmado:        "Armado",
	EstadoReparado:      "Reparado",
	EstadoRetira:        "Retirado",
	EstadoArchivado:     "Archivado",
}

func estadoNombre(e Estado) string {
	if n, ok := estadoNombres[e]; ok {
		return n
	}
	return string(e)
}

// FormatMoney renders an amount the es-AR way: $ 12.345,67.
func FormatMoney(d decimal.Decimal) string {
	neg := d.IsNegative()
	s := d.Abs().StringFixed(2)
	intPart, frac := s[:len(s)-3], s[len(s)-2:]

	var b strings.Builder
	for i, ch := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(ch)
	}
	sign := ""
	if neg {
		sign = "-"
	}
	return fmt.Sprintf("%s$ %s,%s", sign, b.String(), frac)
}

// NormalizePhone turns a local Argentine number into the international form
// wa.me expects (54 9 area number), dropping the "15" mobile prefix.
// Returns "" if the result is not plausible.
func NormalizePhone(raw string) string {
	digits := digitsOnly(raw)
	for strings.HasPrefix(digits, "00") {
		digits = strings.TrimPrefix(digits, "00")
	}

	var national string
	switch {
	case strings.HasPrefix(digits, "549"):
		national = stripMobile15(digits[3:])
	case strings.HasPrefix(digits, "54"):
		national = stripMobile15(digits[2:])
	case strings.HasPrefix(digits, "0"):
		national = stripMobile15(digits[1:])
	default:
		// Unprefixed: a 10-digit national number, or one with the 15, else foreign.
		national = stripMobile15(digits)
		if len(national) != 10 {
			if len(digits) < 10 || len(digits) > 15 {
				return ""
			}
			return digits
		}
	}
	if len(national) != 10 {
		return ""
	}
	return "549" + national
}

// stripMobile15 removes the "15" that follows the area code in a 12-digit
// national mobile number. Area codes are 2 (only 11), 3 or 4 digits long.
func stripMobile15(national string) string {
	if len(national) != 12 {
		return national
	}
	for _, area := range []int{2, 3, 4} {
		if area == 2 && !strings.HasPrefix(national, "11") {
			continue
		}
		if national[area:area+2] == "15" {
			return national[:area] + national[area+2:]
		}
	}
	return national
}

// WhatsAppLink returns the click-to-chat URL for phone with text prefilled.
func WhatsAppLink(phone, text string) string {
	return "https://wa.me/" + phone + "?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}
