package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatFacturaNumero(t *testing.T) {
	assert.Equal(t, "B-2026-00001", FormatFacturaNumero("B", 2026, 1))
	assert.Equal(t, "A-2027-12345", FormatFacturaNumero("A", 2027, 12345))
	assert.Equal(t, "C-2026-123456", FormatFacturaNumero("C", 2026, 123456))
}

func TestValidFacturaTipo(t *testing.T) {
	assert.True(t, validFacturaTipo("A"))
	assert.True(t, validFacturaTipo("C"))
	assert.False(t, validFacturaTipo("X"))
	assert.False(t, validFacturaTipo("b"))
}
