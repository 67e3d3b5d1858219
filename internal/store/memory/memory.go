package memory

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

type categoryKey struct {
	userID string
	typ    core.TransactionType
	key    string
}

// Store keeps everything in process memory. It is meant for local runs and
// tests.
type Store struct {
	mu         sync.Mutex
	txs        []core.Transaction
	categories map[categoryKey]string
	users      map[string]core.User
	now        func() time.Time
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		categories: make(map[categoryKey]string),
		users:      make(map[string]core.User),
		now:        time.Now,
	}
}

// NewFromFiles seeds a store from base/seed_transactions.json (a JSON array
// of loosely typed rows) and base/seed_categories.txt ("<user>:<type>:<name>"
// per line). Missing files are ignored.
func NewFromFiles(base string) (*Store, error) {
	s := New()

	data, err := os.ReadFile(filepath.Join(base, "seed_transactions.json"))
	switch {
	case err == nil:
		var rows []core.RawTransaction
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, fmt.Errorf("parse seed transactions: %w", err)
		}
		for _, r := range rows {
			tx := r.Coerce()
			if tx.ID == "" {
				tx.ID = uuid.NewString()
			}
			if tx.CreatedAt.IsZero() {
				tx.CreatedAt = s.now()
			}
			s.txs = append(s.txs, tx)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("read seed transactions: %w", err)
	}

	for _, line := range readLines(filepath.Join(base, "seed_categories.txt")) {
		parts := strings.SplitN(line, ":", 3)
		if len(parts) != 3 {
			continue
		}
		typ, err := core.ParseTransactionType(parts[1])
		if err != nil {
			continue
		}
		if err := s.SaveCategory(context.Background(), strings.TrimSpace(parts[0]), typ, parts[2]); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

func (s *Store) ListTransactions(ctx context.Context, userID string, q store.Query) ([]core.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// Walk backwards so equal timestamps list the later insert first.
	var out []core.Transaction
	for i := len(s.txs) - 1; i >= 0; i-- {
		if tx := s.txs[i]; tx.UserID == userID && q.Type.Matches(tx.Type) {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *Store) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range s.txs {
		if tx.ID == id {
			return tx, nil
		}
	}
	return core.Transaction{}, store.ErrNotFound
}

func (s *Store) InsertTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return core.Transaction{}, err
	}
	tx = tx.Normalized()
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx.ID = uuid.NewString()
	tx.CreatedAt = s.now().UTC()
	s.txs = append(s.txs, tx)
	return tx, nil
}

func (s *Store) ListCategories(ctx context.Context, userID string, t core.TransactionType) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	byKey := make(map[string]string)
	for _, tx := range s.txs {
		if tx.UserID != userID || tx.Type != t {
			continue
		}
		name := strings.TrimSpace(tx.Category)
		if key := core.Normalize(name); key != "" {
			if _, ok := byKey[key]; !ok {
				byKey[key] = name
			}
		}
	}
	for k, name := range s.categories {
		if k.userID == userID && k.typ == t {
			byKey[k.key] = name
		}
	}

	out := make([]string, 0, len(byKey))
	for _, name := range byKey {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) SaveCategory(ctx context.Context, userID string, t core.TransactionType, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	key := core.Normalize(name)
	if key == "" {
		return core.ErrEmptyCategory
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[categoryKey{userID: userID, typ: t, key: key}] = name
	return nil
}

func (s *Store) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	if err := ctx.Err(); err != nil {
		return core.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u.Email = core.NormalizeEmail(u.Email)
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return core.User{}, store.ErrConflict
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now().UTC()
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (core.User, error) {
	if err := ctx.Err(); err != nil {
		return core.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, store.ErrNotFound
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	if err := ctx.Err(); err != nil {
		return core.User{}, err
	}
	email = core.NormalizeEmail(email)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return core.User{}, store.ErrNotFound
}

func (s *Store) UpdateProfile(ctx context.Context, id string, p core.Profile) (core.User, error) {
	if err := ctx.Err(); err != nil {
		return core.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, store.ErrNotFound
	}
	u.Profile = p
	s.users[id] = u
	return u, nil
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}
