package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

// NoTransactionsMessage is shown instead of an analysis for an empty history.
const NoTransactionsMessage = "Todavía no registraste transacciones, por lo que no hay información para analizar. Registrá movimientos y volvé a intentarlo."

// Completer is the chat-completion call the service depends on.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// TransactionLister is the read side of the transaction store.
type TransactionLister interface {
	ListTransactions(ctx context.Context, userID string, q store.Query) ([]core.Transaction, error)
}

// Result is a generated analysis split into display paragraphs.
type Result struct {
	Paragraphs []string `json:"paragraphs"`
	Empty      bool     `json:"empty"`
}

type Service struct {
	txs       TransactionLister
	completer Completer
}

func NewService(txs TransactionLister, completer Completer) *Service {
	return &Service{txs: txs, completer: completer}
}

// Generate fetches the user's newest transactions and asks the model for an
// analysis. No call is made when the user has no transactions.
func (s *Service) Generate(ctx context.Context, userID string) (Result, error) {
	if userID == "" {
		return Result{}, core.ErrUserNotResolved
	}

	txs, err := s.txs.ListTransactions(ctx, userID, store.Query{Type: core.FilterAll, Limit: MaxPromptTransactions})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", core.ErrFetch, err)
	}
	if len(txs) == 0 {
		return Result{Paragraphs: []string{NoTransactionsMessage}, Empty: true}, nil
	}

	prompt := BuildPrompt(txs)
	slog.DebugContext(ctx, "Requesting financial summary",
		"user_id", userID,
		"transactions", len(txs),
		"prompt_length", len(prompt))

	text, err := s.completer.Complete(ctx, SystemPrompt, prompt)
	if err != nil {
		return Result{}, err
	}

	paragraphs := Paragraphs(text)
	if len(paragraphs) == 0 {
		return Result{}, ErrEmptyContent
	}
	return Result{Paragraphs: paragraphs}, nil
}

// UserMessage maps a Generate error to the message shown to the user.
func UserMessage(err error) string {
	var statusErr *StatusError
	switch {
	case errors.Is(err, core.ErrUserNotResolved):
		return "No pudimos obtener los datos del usuario. Iniciá sesión nuevamente."
	case errors.Is(err, core.ErrFetch):
		return "No pudimos recuperar tus transacciones para analizarlas."
	case errors.Is(err, ErrMissingAPIKey):
		return "Configurá la variable OPENROUTER_API_KEY para habilitar el análisis con IA."
	case errors.Is(err, ErrQuotaExceeded):
		return "OpenRouter informó saldo insuficiente. Recargá tu cuenta o asegurate de usar un modelo gratuito antes de volver a intentarlo."
	case errors.Is(err, ErrEmptyContent):
		return "No recibimos contenido válido desde OpenRouter."
	case errors.As(err, &statusErr):
		msg := statusErr.Message
		if msg == "" {
			msg = "Revisá la configuración e intentá nuevamente."
		}
		return fmt.Sprintf("OpenRouter respondió con un error (%d). %s", statusErr.Status, msg)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "El análisis tardó demasiado. Intentá nuevamente."
	default:
		return "No pudimos generar el análisis en este momento."
	}
}
