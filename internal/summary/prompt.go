// Package summary builds the financial-analysis prompt, calls the hosted
// chat-completion API and cleans up the text it returns.
package summary

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const (
	MaxPromptTransactions = 120
	MaxPromptCategories   = 8
	MaxPromptRecent       = 20
)

// SystemPrompt is the instruction sent alongside every analysis prompt.
const SystemPrompt = "Actuá como un asesor financiero experto especializado en finanzas personales para usuarios en Argentina. " +
	"Tu objetivo es proporcionar análisis claros, estructurados y fácilmente comprensibles que ayuden al usuario a tomar mejores decisiones financieras. " +
	"Enfocate en insights prácticos y accionables basados exclusivamente en los datos proporcionados. " +
	"Mantené un tono profesional pero cercano, evitando tecnicismos complejos."

const (
	noCategoriesLine = "- Sin categorías registradas"
	noMovementsLine  = "- No hay movimientos registrados"
)

const promptTemplate = `Análisis de datos financieros del usuario:

RESUMEN FINANCIERO:
- Ingresos totales: %s
- Gastos totales: %s
- Balance neto: %s

DISTRIBUCIÓN POR CATEGORÍAS (principales):
%s

MOVIMIENTOS RECIENTES (últimos %d):
%s

CONTEXTO: Usuario de aplicación de finanzas personales en Argentina. Los montos están en pesos argentinos (ARS).

INSTRUCCIONES ESPECÍFICAS:
1. Estructurá tu respuesta en 3-4 párrafos breves y claros
2. Primer párrafo: Estado general de las finanzas (balance, situación actual)
3. Segundo párrafo: Patrones y tendencias principales (dónde gasta más, categorías destacadas)
4. Tercer párrafo: Alertas y preocupaciones (si las hay)
5. Cuarto párrafo: 3 recomendaciones concretas y accionables
6. Usá tono profesional pero cercano y accesible
7. Evita formato markdown, negritas o listas con viñetas
8. Sé específico y basate en los datos proporcionados
9. Si hay balance negativo, mencionalo como área de atención prioritaria`

type signedTotal struct {
	name  string
	value decimal.Decimal
}

// BuildPrompt renders the analysis prompt for a newest-first list of
// transactions. Only the first MaxPromptTransactions records are considered.
// The output is deterministic for a given input.
func BuildPrompt(txs []core.Transaction) string {
	if len(txs) > MaxPromptTransactions {
		txs = txs[:MaxPromptTransactions]
	}

	var income, expense decimal.Decimal
	index := make(map[string]int)
	var byCategory []signedTotal

	for _, tx := range txs {
		amount := tx.Amount.Abs()
		signed := amount.Neg()
		if tx.IsIncome() {
			income = income.Add(amount)
			signed = amount
		} else {
			expense = expense.Add(amount)
		}

		name := strings.TrimSpace(tx.Category)
		if name == "" {
			name = tx.Type.Label()
		}
		if i, ok := index[name]; ok {
			byCategory[i].value = byCategory[i].value.Add(signed)
			continue
		}
		index[name] = len(byCategory)
		byCategory = append(byCategory, signedTotal{name: name, value: signed})
	}

	sort.SliceStable(byCategory, func(i, j int) bool {
		return byCategory[i].value.Abs().GreaterThan(byCategory[j].value.Abs())
	})
	if len(byCategory) > MaxPromptCategories {
		byCategory = byCategory[:MaxPromptCategories]
	}

	categoryLines := make([]string, 0, len(byCategory))
	for _, c := range byCategory {
		categoryLines = append(categoryLines, fmt.Sprintf("- %s: %s", c.name, core.FormatCurrency(c.value)))
	}
	if len(categoryLines) == 0 {
		categoryLines = append(categoryLines, noCategoriesLine)
	}

	recent := txs
	if len(recent) > MaxPromptRecent {
		recent = recent[:MaxPromptRecent]
	}
	recentLines := make([]string, 0, len(recent))
	for _, tx := range recent {
		recentLines = append(recentLines, recentLine(tx))
	}
	if len(recentLines) == 0 {
		recentLines = append(recentLines, noMovementsLine)
	}

	return fmt.Sprintf(promptTemplate,
		core.FormatCurrency(income),
		core.FormatCurrency(expense),
		core.FormatCurrency(income.Sub(expense)),
		strings.Join(categoryLines, "\n"),
		len(recent),
		strings.Join(recentLines, "\n"),
	)
}

func recentLine(tx core.Transaction) string {
	date := core.FormatDate(tx.CreatedAt)
	if date == "" {
		date = "Sin fecha"
	}
	description := strings.TrimSpace(tx.Description)
	if description == "" {
		description = "Sin descripción"
	}
	category := strings.TrimSpace(tx.Category)
	if category == "" {
		category = "Sin categoría"
	}
	return fmt.Sprintf("- %s · %s de %s en \"%s\" (categoría: %s)",
		date, tx.Type.Label(), core.FormatCurrency(tx.Amount.Abs()), description, category)
}
