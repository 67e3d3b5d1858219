// Package storetest holds the behaviour every store.Store must share. Each
// backend's tests call Run with a constructor for a fresh, empty store.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

// Run executes the shared store suite.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("transactions newest first", func(t *testing.T) { testListOrder(t, newStore(t)) })
	t.Run("transaction filters", func(t *testing.T) { testListFilters(t, newStore(t)) })
	t.Run("get transaction", func(t *testing.T) { testGetTransaction(t, newStore(t)) })
	t.Run("insert validates", func(t *testing.T) { testInsertValidates(t, newStore(t)) })
	t.Run("categories", func(t *testing.T) { testCategories(t, newStore(t)) })
	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
}

func insert(t *testing.T, s store.Store, userID, amount string, typ core.TransactionType, category, description string) core.Transaction {
	t.Helper()
	tx, err := s.InsertTransaction(context.Background(), core.Transaction{
		UserID:      userID,
		Amount:      decimal.RequireFromString(amount),
		Type:        typ,
		Category:    category,
		Description: description,
	})
	require.NoError(t, err)
	require.NotEmpty(t, tx.ID)
	require.False(t, tx.CreatedAt.IsZero())
	return tx
}

func descriptions(txs []core.Transaction) []string {
	out := make([]string, 0, len(txs))
	for _, tx := range txs {
		out = append(out, tx.Description)
	}
	return out
}

func testListOrder(t *testing.T, s store.Store) {
	ctx := context.Background()
	insert(t, s, "u1", "10", core.Expense, "Comida", "first")
	time.Sleep(2 * time.Millisecond)
	insert(t, s, "u1", "20", core.Income, "Salario", "second")
	time.Sleep(2 * time.Millisecond)
	insert(t, s, "u1", "30", core.Expense, "Salud", "third")
	insert(t, s, "u2", "99", core.Expense, "Otros", "other user")

	txs, err := s.ListTransactions(ctx, "u1", store.Query{Type: core.FilterAll})
	require.NoError(t, err)
	assert.Equal(t, []string{"third", "second", "first"}, descriptions(txs))

	limited, err := s.ListTransactions(ctx, "u1", store.Query{Type: core.FilterAll, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"third", "second"}, descriptions(limited))

	none, err := s.ListTransactions(ctx, "nobody", store.Query{})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testListFilters(t *testing.T, s store.Store) {
	ctx := context.Background()
	insert(t, s, "u1", "10.50", core.Expense, "Comida", "almuerzo")
	insert(t, s, "u1", "2000", core.Income, "", "sueldo")

	expenses, err := s.ListTransactions(ctx, "u1", store.Query{Type: core.FilterExpense})
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.True(t, expenses[0].Amount.Equal(decimal.RequireFromString("10.50")), "amount = %s", expenses[0].Amount)

	incomes, err := s.ListTransactions(ctx, "u1", store.Query{Type: core.FilterIncome})
	require.NoError(t, err)
	require.Len(t, incomes, 1)
	assert.Equal(t, core.DefaultIncomeCategory, incomes[0].Category)
}

func testGetTransaction(t *testing.T, s store.Store) {
	ctx := context.Background()
	created := insert(t, s, "u1", "42", core.Expense, "Transporte", "SUBE")

	got, err := s.GetTransaction(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "Transporte", got.Category)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(42)))

	_, err = s.GetTransaction(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testInsertValidates(t *testing.T, s store.Store) {
	_, err := s.InsertTransaction(context.Background(), core.Transaction{
		UserID: "u1",
		Amount: decimal.Zero,
		Type:   core.Expense,
	})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = s.InsertTransaction(context.Background(), core.Transaction{
		UserID: "u1",
		Amount: decimal.RequireFromString("0.004"),
		Type:   core.Expense,
	})
	assert.ErrorIs(t, err, core.ErrInvalidAmount, "amounts that round to zero are rejected")

	rounded := insert(t, s, "u1", "10.555", core.Income, "Salario", "")
	got, err := s.GetTransaction(context.Background(), rounded.ID)
	require.NoError(t, err)
	assert.Equal(t, "10.56", got.Amount.String())
	assert.True(t, rounded.Amount.Equal(got.Amount), "returned and stored amounts match")
}

func testCategories(t *testing.T, s store.Store) {
	ctx := context.Background()
	insert(t, s, "u1", "5", core.Expense, "Mascotas", "")
	insert(t, s, "u1", "5", core.Income, "Freelance", "")

	require.NoError(t, s.SaveCategory(ctx, "u1", core.Expense, "Viajes"))
	require.NoError(t, s.SaveCategory(ctx, "u1", core.Expense, "viajes"))
	require.NoError(t, s.SaveCategory(ctx, "u2", core.Expense, "Ajeno"))

	got, err := s.ListCategories(ctx, "u1", core.Expense)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Mascotas", "viajes"}, got, "last save of a name wins")

	income, err := s.ListCategories(ctx, "u1", core.Income)
	require.NoError(t, err)
	assert.Equal(t, []string{"Freelance"}, income)

	assert.ErrorIs(t, s.SaveCategory(ctx, "u1", core.Expense, "  "), core.ErrEmptyCategory)
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()

	u, err := s.CreateUser(ctx, core.User{Email: " Ana@Example.com ", PasswordHash: "hash", Provider: "password"})
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)
	assert.Equal(t, "ana@example.com", u.Email)

	_, err = s.CreateUser(ctx, core.User{Email: "ana@example.com"})
	assert.ErrorIs(t, err, store.ErrConflict)

	byEmail, err := s.GetUserByEmail(ctx, "ANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
	assert.Equal(t, "hash", byEmail.PasswordHash)

	updated, err := s.UpdateProfile(ctx, u.ID, core.Profile{Name: "Ana", AvatarURL: "http://x/a.png"})
	require.NoError(t, err)
	assert.Equal(t, "Ana", updated.Profile.Name)

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "http://x/a.png", got.Profile.AvatarURL)

	_, err = s.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.UpdateProfile(ctx, "missing", core.Profile{})
	assert.ErrorIs(t, err, store.ErrNotFound)
}
