package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/store"

	_ "modernc.org/sqlite"
)

type Repository struct {
	db  *sql.DB
	now func() time.Time
}

var _ store.Store = (*Repository)(nil)

// Open creates the database directory if needed, applies migrations and
// returns a ready repository.
func Open(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, now: time.Now}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const transactionColumns = `id, user_id, amount, type, category, description, created_at`

func (r *Repository) ListTransactions(ctx context.Context, userID string, q store.Query) ([]core.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = ?`
	args := []any{userID}
	if q.Type != "" && q.Type != core.FilterAll {
		query += ` AND type = ?`
		args = append(args, string(q.Type))
	}
	query += ` ORDER BY created_at DESC, rowid DESC`
	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (r *Repository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, store.ErrNotFound
	}
	return tx, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		tx        core.Transaction
		amount    string
		typ       string
		createdAt int64
	)
	if err := s.Scan(&tx.ID, &tx.UserID, &amount, &typ, &tx.Category, &tx.Description, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, err
		}
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	tx.Amount = core.CoerceAmount(amount)
	tx.Type = core.TransactionType(typ)
	tx.CreatedAt = time.Unix(0, createdAt).UTC()
	return tx, nil
}

func (r *Repository) InsertTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx = tx.Normalized()
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	tx.ID = uuid.NewString()
	tx.CreatedAt = r.now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.UserID, tx.Amount.String(), string(tx.Type), tx.Category, tx.Description, tx.CreatedAt.UnixNano())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", tx.ID,
		"user_id", tx.UserID,
		"type", tx.Type,
		"amount", tx.Amount.String(),
		"category", tx.Category)

	return tx, nil
}

func (r *Repository) ListCategories(ctx context.Context, userID string, t core.TransactionType) ([]string, error) {
	byKey := make(map[string]string)

	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT category FROM transactions WHERE user_id = ? AND type = ? AND category <> ''`,
		userID, string(t))
	if err != nil {
		return nil, fmt.Errorf("list used categories: %w", err)
	}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan category: %w", err)
		}
		name = strings.TrimSpace(name)
		if key := core.Normalize(name); key != "" {
			if _, ok := byKey[key]; !ok {
				byKey[key] = name
			}
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate used categories: %w", err)
	}

	saved, err := r.db.QueryContext(ctx,
		`SELECT key, name FROM categories WHERE user_id = ? AND type = ?`, userID, string(t))
	if err != nil {
		return nil, fmt.Errorf("list saved categories: %w", err)
	}
	defer saved.Close()
	for saved.Next() {
		var key, name string
		if err := saved.Scan(&key, &name); err != nil {
			return nil, fmt.Errorf("scan saved category: %w", err)
		}
		byKey[key] = name
	}
	if err := saved.Err(); err != nil {
		return nil, fmt.Errorf("iterate saved categories: %w", err)
	}

	out := make([]string, 0, len(byKey))
	for _, name := range byKey {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

func (r *Repository) SaveCategory(ctx context.Context, userID string, t core.TransactionType, name string) error {
	name = strings.TrimSpace(name)
	key := core.Normalize(name)
	if key == "" {
		return core.ErrEmptyCategory
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (user_id, type, key, name, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, type, key) DO UPDATE SET name = excluded.name, updated_at = excluded.updated_at`,
		userID, string(t), key, name, r.now().UnixNano())
	if err != nil {
		return fmt.Errorf("save category: %w", err)
	}
	return nil
}

const userColumns = `id, email, password_hash, provider, name, avatar_url, created_at`

func (r *Repository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	u.Email = core.NormalizeEmail(u.Email)
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Provider == "" {
		u.Provider = "password"
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = r.now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.Provider, u.Profile.Name, u.Profile.AvatarURL, u.CreatedAt.UnixNano())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return core.User{}, store.ErrConflict
		}
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (r *Repository) GetUser(ctx context.Context, id string) (core.User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, core.NormalizeEmail(email))
}

func (r *Repository) getUser(ctx context.Context, query string, arg string) (core.User, error) {
	var (
		u         core.User
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Provider, &u.Profile.Name, &u.Profile.AvatarURL, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, store.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = time.Unix(0, createdAt).UTC()
	return u, nil
}

func (r *Repository) UpdateProfile(ctx context.Context, id string, p core.Profile) (core.User, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET name = ?, avatar_url = ? WHERE id = ?`, p.Name, p.AvatarURL, id)
	if err != nil {
		return core.User{}, fmt.Errorf("update profile: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.User{}, store.ErrNotFound
	}
	return r.GetUser(ctx, id)
}
