package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseTransactionType(t *testing.T) {
	cases := []struct {
		in   string
		want TransactionType
		ok   bool
	}{
		{"income", Income, true},
		{" Expense ", Expense, true},
		{"Ingreso", Income, true},
		{"gasto", Expense, true},
		{"transfer", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseTransactionType(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("%q expected %q, got %q (err=%v)", tc.in, tc.want, got, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidType) {
			t.Fatalf("%q expected ErrInvalidType, got %v", tc.in, err)
		}
	}
}

func TestParseTypeFilter(t *testing.T) {
	cases := []struct {
		in   string
		want TypeFilter
		ok   bool
	}{
		{"", FilterAll, true},
		{"all", FilterAll, true},
		{"INCOME", FilterIncome, true},
		{"expense", FilterExpense, true},
		{"both", "", false},
	}
	for _, tc := range cases {
		got, err := ParseTypeFilter(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("%q expected %q, got %q (err=%v)", tc.in, tc.want, got, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestTypeFilterMatches(t *testing.T) {
	if !FilterAll.Matches(Income) || !FilterAll.Matches(Expense) {
		t.Fatal("all should match every type")
	}
	if !FilterIncome.Matches(Income) || FilterIncome.Matches(Expense) {
		t.Fatal("income filter mismatch")
	}
	if FilterExpense.Matches(Income) || !FilterExpense.Matches(Expense) {
		t.Fatal("expense filter mismatch")
	}
}

func TestTransactionNormalized(t *testing.T) {
	tx := Transaction{Amount: decimal.NewFromInt(-40), Type: Expense, Category: "   ", Description: " taxi "}.Normalized()
	if !tx.Amount.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("amount should be made non-negative, got %s", tx.Amount)
	}
	if tx.Category != DefaultExpenseCategory {
		t.Fatalf("blank expense category should become %q, got %q", DefaultExpenseCategory, tx.Category)
	}
	if tx.Description != "taxi" {
		t.Fatalf("description not trimmed: %q", tx.Description)
	}

	inc := Transaction{Amount: decimal.NewFromInt(1), Type: Income}.Normalized()
	if inc.Category != DefaultIncomeCategory {
		t.Fatalf("blank income category should become %q, got %q", DefaultIncomeCategory, inc.Category)
	}
}

func TestTransactionInputParse(t *testing.T) {
	good := TransactionInput{Amount: "1.500,50", Type: "expense", Category: " Comida ", Description: "super"}
	tx, err := good.Parse("u1")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if tx.UserID != "u1" || tx.Category != "Comida" || !tx.Amount.Equal(decimal.RequireFromString("1500.50")) {
		t.Fatalf("unexpected transaction: %+v", tx)
	}

	rounded, err := TransactionInput{Amount: "10.555", Type: "income"}.Parse("u1")
	if err != nil || rounded.Amount.String() != "10.56" {
		t.Fatalf("expected 10.56, got %s (err=%v)", rounded.Amount, err)
	}

	bads := []struct {
		in   TransactionInput
		want error
	}{
		{TransactionInput{Amount: "0", Type: "expense"}, ErrInvalidAmount},
		{TransactionInput{Amount: "-3", Type: "expense"}, ErrInvalidAmount},
		{TransactionInput{Amount: "abc", Type: "income"}, ErrInvalidAmount},
		{TransactionInput{Amount: "0,004", Type: "expense"}, ErrInvalidAmount},
		{TransactionInput{Amount: "10", Type: "loan"}, ErrInvalidType},
		{TransactionInput{Amount: "10", Type: "income", Description: strings.Repeat("x", 201)}, ErrDescriptionTooLong},
	}
	for i, tc := range bads {
		if _, err := tc.in.Parse("u1"); !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestUserDisplayName(t *testing.T) {
	if got := (User{Email: "ana@example.com"}).DisplayName(); got != "ana" {
		t.Fatalf("expected email local part, got %q", got)
	}
	if got := (User{Email: "ana@example.com", Profile: Profile{Name: "Ana P."}}).DisplayName(); got != "Ana P." {
		t.Fatalf("expected profile name, got %q", got)
	}
}
