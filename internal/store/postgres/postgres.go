package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

const uniqueViolation = "23505"

type Repo struct {
	conn *pgxpool.Pool
	now  func() time.Time
}

var _ store.Store = (*Repo)(nil)

// Open migrates the database behind dsn and connects a pool to it.
func Open(ctx context.Context, dsn string) (*Repo, error) {
	if err := RunMigrations(dsn); err != nil {
		return nil, err
	}

	conn, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}
	return NewRepo(conn), nil
}

func NewRepo(conn *pgxpool.Pool) *Repo {
	return &Repo{conn: conn, now: time.Now}
}

func (r *Repo) Close() error {
	r.conn.Close()
	return nil
}

func (r *Repo) Ping(ctx context.Context) error {
	return r.conn.Ping(ctx)
}

const transactionColumns = `id, user_id, amount::text, type, category, description, created_at`

func (r *Repo) ListTransactions(ctx context.Context, userID string, q store.Query) ([]core.Transaction, error) {
	args := []any{userID}
	where := ""
	if q.Type != "" && q.Type != core.FilterAll {
		args = append(args, string(q.Type))
		where += fmt.Sprintf(" AND type = $%d", len(args))
	}
	limit := ""
	if q.Limit > 0 {
		args = append(args, q.Limit)
		limit = fmt.Sprintf(" LIMIT $%d", len(args))
	}

	sql := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1` + where + `
		ORDER BY created_at DESC, seq DESC` + limit

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing transactions: %w", err)
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
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return out, nil
}

func (r *Repo) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
	tx, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Transaction{}, store.ErrNotFound
	}
	return tx, err
}

func scanTransaction(row pgx.Row) (core.Transaction, error) {
	var (
		tx     core.Transaction
		amount string
		typ    string
	)
	if err := row.Scan(&tx.ID, &tx.UserID, &amount, &typ, &tx.Category, &tx.Description, &tx.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.Transaction{}, err
		}
		return core.Transaction{}, fmt.Errorf("error scanning row: %w", err)
	}
	tx.Amount = core.CoerceAmount(amount)
	tx.Type = core.TransactionType(typ)
	tx.CreatedAt = tx.CreatedAt.UTC()
	return tx, nil
}

func (r *Repo) InsertTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx = tx.Normalized()
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	tx.ID = uuid.NewString()
	tx.CreatedAt = r.now().UTC()

	sql := `
		INSERT INTO transactions (id, user_id, amount, type, category, description, created_at)
		VALUES ($1, $2, $3::numeric, $4, $5, $6, $7)
		`
	_, err := r.conn.Exec(ctx, sql,
		tx.ID, tx.UserID, tx.Amount.StringFixed(core.AmountScale), string(tx.Type), tx.Category, tx.Description, tx.CreatedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("error adding transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to Postgres",
		"id", tx.ID,
		"user_id", tx.UserID,
		"type", tx.Type,
		"amount", tx.Amount.String())

	return tx, nil
}

func (r *Repo) ListCategories(ctx context.Context, userID string, t core.TransactionType) ([]string, error) {
	byKey := make(map[string]string)

	used, err := r.conn.Query(ctx, `
		SELECT category FROM transactions
		WHERE user_id = $1 AND type = $2 AND category <> ''
		GROUP BY category
		ORDER BY MIN(seq)`, userID, string(t))
	if err != nil {
		return nil, fmt.Errorf("error listing used categories: %w", err)
	}
	for used.Next() {
		var name string
		if err := used.Scan(&name); err != nil {
			used.Close()
			return nil, fmt.Errorf("error scanning category: %w", err)
		}
		name = strings.TrimSpace(name)
		if key := core.Normalize(name); key != "" {
			if _, ok := byKey[key]; !ok {
				byKey[key] = name
			}
		}
	}
	used.Close()
	if err := used.Err(); err != nil {
		return nil, fmt.Errorf("error iterating used categories: %w", err)
	}

	saved, err := r.conn.Query(ctx,
		`SELECT key, name FROM categories WHERE user_id = $1 AND type = $2`, userID, string(t))
	if err != nil {
		return nil, fmt.Errorf("error listing saved categories: %w", err)
	}
	defer saved.Close()
	for saved.Next() {
		var key, name string
		if err := saved.Scan(&key, &name); err != nil {
			return nil, fmt.Errorf("error scanning saved category: %w", err)
		}
		byKey[key] = name
	}
	if err := saved.Err(); err != nil {
		return nil, fmt.Errorf("error iterating saved categories: %w", err)
	}

	return sortedValues(byKey), nil
}

func (r *Repo) SaveCategory(ctx context.Context, userID string, t core.TransactionType, name string) error {
	name = strings.TrimSpace(name)
	key := core.Normalize(name)
	if key == "" {
		return core.ErrEmptyCategory
	}
	sql := `
		INSERT INTO categories (user_id, type, key, name, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id, type, key) DO UPDATE SET name = EXCLUDED.name, updated_at = EXCLUDED.updated_at
		`
	if _, err := r.conn.Exec(ctx, sql, userID, string(t), key, name); err != nil {
		return fmt.Errorf("error saving category: %w", err)
	}
	return nil
}

const userColumns = `id, email, password_hash, provider, name, avatar_url, created_at`

func (r *Repo) CreateUser(ctx context.Context, u core.User) (core.User, error) {
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

	_, err := r.conn.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.Email, u.PasswordHash, u.Provider, u.Profile.Name, u.Profile.AvatarURL, u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return core.User{}, store.ErrConflict
		}
		return core.User{}, fmt.Errorf("error adding user: %w", err)
	}
	return u, nil
}

func (r *Repo) GetUser(ctx context.Context, id string) (core.User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *Repo) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, core.NormalizeEmail(email))
}

func (r *Repo) getUser(ctx context.Context, sql, arg string) (core.User, error) {
	var u core.User
	err := r.conn.QueryRow(ctx, sql, arg).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Provider, &u.Profile.Name, &u.Profile.AvatarURL, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.User{}, store.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("error getting user: %w", err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}

func (r *Repo) UpdateProfile(ctx context.Context, id string, p core.Profile) (core.User, error) {
	tag, err := r.conn.Exec(ctx,
		`UPDATE users SET name = $1, avatar_url = $2 WHERE id = $3`, p.Name, p.AvatarURL, id)
	if err != nil {
		return core.User{}, fmt.Errorf("error updating profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.User{}, store.ErrNotFound
	}
	return r.GetUser(ctx, id)
}
