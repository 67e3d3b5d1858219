package summary

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeSummary(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"markdown cleanup", "**Hola** mundo\n- punto uno\n\n# Título", []string{"Hola mundo", "punto uno", "Título"}},
		{"windows line endings", "uno\r\n\r\ndos", []string{"uno", "dos"}},
		{"quotes and nested markers", "> * ## Ojo: *gastos* altos  ", []string{"Ojo: gastos altos"}},
		{"underscore emphasis", "__Importante__ revisar", []string{"Importante revisar"}},
		{"single underscore italics", "> *cita* _x_ y _dos palabras_", []string{"cita x y dos palabras"}},
		{"snake case kept", "el campo gasto_total_mes sube", []string{"el campo gasto_total_mes sube"}},
		{"blank input", "  \n\n \r\n", nil},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Paragraphs(tt.in))
		})
	}
}

func TestSanitizeSummary_Restartable(t *testing.T) {
	seq := SanitizeSummary("a\nb\nc")

	first := slices.Collect(seq)
	second := slices.Collect(seq)

	assert.Equal(t, []string{"a", "b", "c"}, first)
	assert.Equal(t, first, second)
}

func TestSanitizeSummary_StopsEarly(t *testing.T) {
	var got []string
	for p := range SanitizeSummary("a\nb\nc") {
		got = append(got, p)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"a", "b"}, got)
}
