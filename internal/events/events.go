// Package events carries explicit "data changed" notifications between the
// write paths and whatever depends on the changed data (read caches, the
// HTTP layer's refetch hints, the export worker).
package events

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type Resource string

const (
	ResourceTransactions Resource = "transactions"
	ResourceCategories   Resource = "categories"
	ResourceProfile      Resource = "profile"
)

var ErrInvalidChange = errors.New("invalid change")

func (r Resource) IsValid() bool {
	switch r {
	case ResourceTransactions, ResourceCategories, ResourceProfile:
		return true
	default:
		return false
	}
}

// Trigger is the client-side event name announcing a change to r.
func (r Resource) Trigger() string {
	return string(r) + ":changed"
}

// Change says that Resource changed for UserID. TransactionID is set for
// transaction inserts.
type Change struct {
	Resource      Resource  `json:"resource"`
	UserID        string    `json:"user_id"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Version       int64     `json:"version"`
	At            time.Time `json:"at"`
}

func NewChange(resource Resource, userID string, at time.Time) Change {
	return Change{
		Resource: resource,
		UserID:   userID,
		Version:  at.UnixNano(),
		At:       at,
	}
}

func (c Change) Validate() error {
	if !c.Resource.IsValid() {
		return fmt.Errorf("%w: unknown resource %q", ErrInvalidChange, c.Resource)
	}
	if c.UserID == "" {
		return fmt.Errorf("%w: missing user", ErrInvalidChange)
	}
	return nil
}

// Publisher delivers changes to interested parties.
type Publisher interface {
	Publish(ctx context.Context, c Change) error
}

type PublisherFunc func(ctx context.Context, c Change) error

func (f PublisherFunc) Publish(ctx context.Context, c Change) error { return f(ctx, c) }

// Multi publishes to every non-nil publisher, joining their errors.
func Multi(pubs ...Publisher) Publisher {
	var live []Publisher
	for _, p := range pubs {
		if p != nil {
			live = append(live, p)
		}
	}
	return PublisherFunc(func(ctx context.Context, c Change) error {
		var errs []error
		for _, p := range live {
			if err := p.Publish(ctx, c); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}
