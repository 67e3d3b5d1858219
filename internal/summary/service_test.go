package summary

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

type fakeLister struct {
	txs   []core.Transaction
	err   error
	query store.Query
}

func (f *fakeLister) ListTransactions(_ context.Context, _ string, q store.Query) ([]core.Transaction, error) {
	f.query = q
	return f.txs, f.err
}

type fakeCompleter struct {
	text   string
	err    error
	calls  int
	prompt string
}

func (f *fakeCompleter) Complete(_ context.Context, _, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	return f.text, f.err
}

func TestService_Generate(t *testing.T) {
	lister := &fakeLister{txs: []core.Transaction{{Amount: decimal.NewFromInt(10), Type: core.Expense, Category: "Comida"}}}
	completer := &fakeCompleter{text: "**Balance** positivo.\n\n- Gastás poco."}

	res, err := NewService(lister, completer).Generate(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, []string{"Balance positivo.", "Gastás poco."}, res.Paragraphs)
	assert.False(t, res.Empty)
	assert.Equal(t, MaxPromptTransactions, lister.query.Limit)
	assert.Contains(t, completer.prompt, "- Comida: -$ 10")
}

func TestService_Generate_NoTransactions(t *testing.T) {
	completer := &fakeCompleter{}

	res, err := NewService(&fakeLister{}, completer).Generate(context.Background(), "u1")

	require.NoError(t, err)
	assert.True(t, res.Empty)
	assert.Equal(t, []string{NoTransactionsMessage}, res.Paragraphs)
	assert.Zero(t, completer.calls)
}

func TestService_Generate_Errors(t *testing.T) {
	one := []core.Transaction{{Amount: decimal.NewFromInt(1), Type: core.Income}}

	_, err := NewService(&fakeLister{}, &fakeCompleter{}).Generate(context.Background(), "")
	assert.ErrorIs(t, err, core.ErrUserNotResolved)

	_, err = NewService(&fakeLister{err: errors.New("db down")}, &fakeCompleter{}).Generate(context.Background(), "u1")
	assert.ErrorIs(t, err, core.ErrFetch)

	_, err = NewService(&fakeLister{txs: one}, &fakeCompleter{err: ErrQuotaExceeded}).Generate(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	_, err = NewService(&fakeLister{txs: one}, &fakeCompleter{text: "# \n **"}).Generate(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{core.ErrUserNotResolved, "No pudimos obtener los datos del usuario. Iniciá sesión nuevamente."},
		{core.ErrFetch, "No pudimos recuperar tus transacciones para analizarlas."},
		{ErrEmptyContent, "No recibimos contenido válido desde OpenRouter."},
		{&StatusError{Status: 500, Message: "boom"}, "OpenRouter respondió con un error (500). boom"},
		{&StatusError{Status: 503}, "OpenRouter respondió con un error (503). Revisá la configuración e intentá nuevamente."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, UserMessage(tt.err))
	}
	assert.Contains(t, UserMessage(ErrQuotaExceeded), "saldo insuficiente")
	assert.Contains(t, UserMessage(ErrMissingAPIKey), "OPENROUTER_API_KEY")
}
