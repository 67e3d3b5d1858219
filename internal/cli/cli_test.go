package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/store"
	"fintrack/internal/store/memory"
)

func seed(t *testing.T, st *memory.Store, userID, amount string, typ core.TransactionType, category string) {
	t.Helper()
	_, err := st.InsertTransaction(context.Background(), core.Transaction{
		UserID:   userID,
		Amount:   decimal.RequireFromString(amount),
		Type:     typ,
		Category: category,
	})
	require.NoError(t, err)
}

func TestRunReport(t *testing.T) {
	st := memory.New()
	seed(t, st, "u1", "1000", core.Income, "Salario")
	seed(t, st, "u1", "300", core.Expense, "Salud")
	seed(t, st, "u1", "1200", core.Expense, "Vivienda")
	seed(t, st, "u2", "999", core.Expense, "Otros")

	var out bytes.Buffer
	require.NoError(t, runReport(context.Background(), &out, st, "u1", false, time.Now()))

	report := out.String()
	assert.Contains(t, report, "Transacciones:")
	assert.Contains(t, report, "$ 1.000")
	assert.Contains(t, report, "-$ 500")
	assert.Contains(t, report, "Gastos por categoría:")
	assert.Less(t, strings.Index(report, "Vivienda"), strings.Index(report, "Salud"), "largest category first")
	assert.NotContains(t, report, "Otros")
	assert.NotContains(t, report, "RESUMEN FINANCIERO")
}

func TestRunReportWithPrompt(t *testing.T) {
	st := memory.New()
	seed(t, st, "u1", "50", core.Expense, "Transporte")

	var out bytes.Buffer
	require.NoError(t, runReport(context.Background(), &out, st, "u1", true, time.Now()))
	assert.Contains(t, out.String(), "RESUMEN FINANCIERO")
}

func TestRunReportEmpty(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runReport(context.Background(), &out, memory.New(), "nobody", false, time.Now()))
	assert.Contains(t, out.String(), "$ 0")
	assert.NotContains(t, out.String(), "Gastos por categoría:")
}

type failingReader struct{ store.TransactionReader }

func (failingReader) ListTransactions(context.Context, string, store.Query) ([]core.Transaction, error) {
	return nil, errors.New("disk on fire")
}

func TestRunReportError(t *testing.T) {
	err := runReport(context.Background(), &bytes.Buffer{}, failingReader{}, "u1", false, time.Now())
	assert.ErrorContains(t, err, "list transactions")
}

func TestLoadAndValidateConfig(t *testing.T) {
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("PORT", "9090")
	cfg, err := LoadAndValidateConfig()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)

	t.Setenv("DATA_BACKEND", "cassandra")
	_, err = LoadAndValidateConfig()
	assert.ErrorContains(t, err, "invalid data backend")
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := NewRootCommand()
	for _, name := range []string{"serve", "worker", "migrate", "report"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}

	report, _, _ := root.Find([]string{"report"})
	assert.NotNil(t, report.Flags().Lookup("user"))
	assert.NotNil(t, report.Flags().Lookup("prompt"))
}

func TestRunWorkerRequiresAMQP(t *testing.T) {
	cfg := &config.Config{DataBackend: "memory"}
	err := runWorker(context.Background(), cfg, SetupLogger("error"), "")
	assert.ErrorContains(t, err, "AMQP_URL")
}

func TestMediaPrefix(t *testing.T) {
	assert.Equal(t, "/media", mediaPrefix("/media"))
	assert.Equal(t, "/uploads", mediaPrefix("https://cdn.example.com/uploads"))
	assert.Nil(t, oauthConfig(&config.Config{}))
	assert.Equal(t, "google", oauthConfig(&config.Config{OAuthClientID: "id"}).Provider)
}
