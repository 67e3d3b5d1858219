package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"Alimentación":  "alimentacion",
		"  EDUCACIÓN  ": "educacion",
		"Niño":          "nino",
		"\u0301\u0301":  "",
		"   ":           "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "Normalize(%q)", in)
	}
}

func TestMergeUnique(t *testing.T) {
	base := []string{"Alimentación", "Vivienda", "alimentacion", " ", "Otros"}
	additions := []string{"Zapatos", "vivienda", "Ómnibus", "auto", "", "Otros", "ZAPATOS"}

	got := MergeUnique(base, additions)

	assert.Equal(t, []string{"Alimentación", "Vivienda", "Otros", "auto", "Ómnibus", "Zapatos"}, got)
}

func TestMergeUnique_NoDuplicateKeys(t *testing.T) {
	base := DefaultCategories(Expense)
	additions := []string{"salud", "Educacion", "Mascotas", "mascotas ", "Café", "cafe"}

	got := MergeUnique(base, additions)

	seen := map[string]bool{}
	for _, label := range got {
		key := Normalize(label)
		assert.False(t, seen[key], "duplicate key %q", key)
		seen[key] = true
	}
	for _, label := range append(base, additions...) {
		assert.True(t, seen[Normalize(label)], "label %q missing", label)
	}
	assert.Len(t, got, len(base)+2)
}

func TestMergeUnique_DoesNotAliasInput(t *testing.T) {
	base := []string{"A", "B"}
	got := MergeUnique(base, []string{"C"})
	got[0] = "changed"
	assert.Equal(t, "A", base[0])
}

func TestDefaultCategories(t *testing.T) {
	assert.Equal(t, []string{"Salario", "Otros"}, DefaultCategories(Income))
	assert.Contains(t, DefaultCategories(Expense), "Alimentación")

	c := DefaultCategories(Expense)
	c[0] = "x"
	assert.Equal(t, "Alimentación", DefaultCategories(Expense)[0])
}

func TestContainsCategory(t *testing.T) {
	list := []string{"Alimentación", "Salud"}
	assert.True(t, ContainsCategory(list, "alimentacion"))
	assert.True(t, ContainsCategory(list, " SALUD "))
	assert.False(t, ContainsCategory(list, "Viajes"))
	assert.False(t, ContainsCategory(list, " "))
}

func TestSuggestCategory(t *testing.T) {
	list := DefaultCategories(Expense)

	got, ok := SuggestCategory(list, "Trasnporte")
	assert.True(t, ok)
	assert.Equal(t, "Transporte", got)

	_, ok = SuggestCategory(list, "transporte")
	assert.False(t, ok, "exact matches are not suggestions")

	_, ok = SuggestCategory(list, "Mascotas")
	assert.False(t, ok)
}
