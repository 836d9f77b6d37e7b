// Package store persists buyer records per owner in SQLite or PostgreSQL.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/buyer-dedupe/internal/model"
)

// ErrNotFound is returned when a buyer does not exist for the given owner.
var ErrNotFound = eris.New("store: not found")

// ErrConflict is returned by CreateBuyer when the owner already has a buyer
// with the same id.
var ErrConflict = eris.New("store: buyer already exists")

// BuyerFilter specifies criteria for listing buyers. A zero Limit returns
// the whole collection.
type BuyerFilter struct {
	OwnerID string `json:"owner_id"`
	Limit   int    `json:"limit,omitempty"`
	Offset  int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for buyer collections.
type Store interface {
	CreateBuyer(ctx context.Context, b model.Buyer) error
	UpdateBuyer(ctx context.Context, b model.Buyer) error
	GetBuyer(ctx context.Context, ownerID, id string) (*model.Buyer, error)
	// ListBuyers returns buyers ordered by created_at, then id.
	ListBuyers(ctx context.Context, filter BuyerFilter) ([]model.Buyer, error)
	DeleteBuyer(ctx context.Context, ownerID, id string) error

	// ApplyMerge stores merged and removes secondaryID in one transaction.
	ApplyMerge(ctx context.Context, merged model.Buyer, secondaryID string) error
	// ImportBuyers inserts or replaces buyers keyed by (owner_id, id).
	ImportBuyers(ctx context.Context, buyers []model.Buyer) (int64, error)

	Migrate(ctx context.Context) error
	Close() error
}

// buyerColumns is the column order shared by both backends.
var buyerColumns = []string{
	"owner_id", "id", "name", "email", "phone", "company_name", "city", "state",
	"markets", "property_types", "strategies", "min_budget", "max_budget",
	"notes", "source", "tags", "priority", "created_at", "updated_at",
}

func conflict(ownerID, id string) error {
	return eris.Wrapf(ErrConflict, "store: buyer %s for owner %s", id, ownerID)
}

func notFound(ownerID, id string) error {
	return eris.Wrapf(ErrNotFound, "store: buyer %s for owner %s", id, ownerID)
}

func requireKey(b model.Buyer) error {
	if b.OwnerID == "" || b.ID == "" {
		return eris.New("store: buyer requires owner_id and id")
	}
	return nil
}
